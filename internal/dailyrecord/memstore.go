package dailyrecord

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in a map that is never mutated once published:
// every write copies the map, applies the change and swaps it in.
// Used with `storage: memory` and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	snap map[string]DailyRecord
	loc  *time.Location
}

func NewMemoryStore(loc *time.Location) *MemoryStore {
	return &MemoryStore{snap: map[string]DailyRecord{}, loc: loc}
}

var _ Repository = (*MemoryStore)(nil)

// Seed stores records as-is, including legacy ids. Existing keys are overwritten.
func (m *MemoryStore) Seed(recs ...DailyRecord) {
	m.update(func(next map[string]DailyRecord) {
		for _, r := range recs {
			next[r.ID] = r.clone()
		}
	})
}

func (m *MemoryStore) current() map[string]DailyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// update publishes a new snapshot built by fn. fn runs under the lock, so a
// read-check-write inside it is atomic.
func (m *MemoryStore) update(fn func(next map[string]DailyRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string]DailyRecord, len(m.snap)+1)
	for k, v := range m.snap {
		next[k] = v
	}
	fn(next)
	m.snap = next
}

// lookup resolves id in snap. It returns the row, the key it is stored under
// and the canonical id it belongs to.
//
// A canonical id falls back to the newest legacy row for the same identity.
// A legacy id is only found when it is the row its canonical id resolves to.
func (m *MemoryStore) lookup(snap map[string]DailyRecord, id string) (DailyRecord, string, string, bool) {
	if IsLegacyID(id) {
		r, ok := snap[id]
		if !ok {
			return DailyRecord{}, "", "", false
		}
		canon := r.canonicalID()
		// 正規行か、より新しい旧行があればこの行は使わない
		if _, key, _, ok := m.lookup(snap, canon); !ok || key != id {
			return DailyRecord{}, "", "", false
		}
		return r, id, canon, true
	}
	if r, ok := snap[id]; ok {
		return r, id, id, true
	}
	day, student, ok := ParseID(id, m.loc)
	if !ok {
		return DailyRecord{}, "", "", false
	}
	var (
		best    DailyRecord
		bestKey string
	)
	for k, r := range snap {
		if !IsLegacyID(k) || r.StudentID != student || !sameDay(r.Date, day) {
			continue
		}
		if bestKey == "" || r.LastModifiedAt.After(best.LastModifiedAt) ||
			(r.LastModifiedAt.Equal(best.LastModifiedAt) && k > bestKey) {
			best, bestKey = r, k
		}
	}
	return best, bestKey, id, bestKey != ""
}

// adoptLocked moves a legacy row to its canonical key. Caller holds the lock via update.
func adoptLocked(next map[string]DailyRecord, key, id string) {
	if key == id {
		return
	}
	r := next[key]
	delete(next, key)
	r.ID = id
	next[id] = r
	log.Printf("[INFO] adopted legacy daily record %s as %s", key, id)
}

func (m *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r, _, _, ok := m.lookup(m.current(), id)
	return ok && !r.Deleted, nil
}

func (m *MemoryStore) Find(ctx context.Context, id string) (DailyRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return DailyRecord{}, false, err
	}
	r, key, canon, ok := m.lookup(m.current(), id)
	if !ok {
		return DailyRecord{}, false, nil
	}
	if key == canon {
		return r.clone(), true, nil
	}

	// 旧行の付け替えが要るときだけ書き込む
	var (
		out   DailyRecord
		found bool
	)
	m.update(func(next map[string]DailyRecord) {
		r, key, canon, ok := m.lookup(next, id)
		if !ok {
			return
		}
		adoptLocked(next, key, canon)
		r.ID = canon
		out, found = r.clone(), true
	})
	return out, found, nil
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, rec DailyRecord) (DailyRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return DailyRecord{}, false, err
	}
	var (
		out     DailyRecord
		created bool
	)
	m.update(func(next map[string]DailyRecord) {
		if cur, key, _, ok := m.lookup(next, rec.ID); ok {
			adoptLocked(next, key, rec.ID)
			if !cur.Deleted {
				cur.ID = rec.ID
				out = cur.clone()
				return
			}
			rec = rec.withReviewFields(cur)
		}
		next[rec.ID] = rec.clone()
		out, created = rec.clone(), true
	})
	return out, created, nil
}

func (m *MemoryStore) Replace(ctx context.Context, rec DailyRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	m.update(func(next map[string]DailyRecord) {
		cur, exists := next[rec.ID]
		if !exists || cur.Deleted {
			return
		}
		cur = cur.withStaffFields(rec)
		cur.LastModifiedByStaffID = rec.LastModifiedByStaffID
		cur.LastModifiedAt = rec.LastModifiedAt
		next[rec.ID] = cur
		ok = true
	})
	return ok, nil
}

func (m *MemoryStore) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	m.update(func(next map[string]DailyRecord) {
		cur, key, canon, found := m.lookup(next, id)
		if !found {
			return
		}
		adoptLocked(next, key, canon)
		cur.ID = canon
		if !cur.Deleted {
			cur.Deleted = true
			cur.LastModifiedAt = at
		}
		next[canon] = cur
		ok = true
	})
	return ok, nil
}

func (m *MemoryStore) SaveReview(ctx context.Context, id, comment string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	m.update(func(next map[string]DailyRecord) {
		cur, exists := next[id]
		if !exists || cur.Deleted {
			return
		}
		cur.ReviewedByGuardian = true
		cur.ReviewedAt = &at
		cur.GuardianComment = comment
		next[id] = cur
		ok = true
	})
	return ok, nil
}

func (m *MemoryStore) ListByStudent(ctx context.Context, f ListFilter) ([]DailyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := m.current()
	var raw []DailyRecord
	for _, r := range snap {
		if r.StudentID != f.StudentID {
			continue
		}
		if f.From != nil && r.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && r.Date.After(*f.To) {
			continue
		}
		raw = append(raw, r.clone())
	}
	SortNewestFirst(raw)

	// 削除済みの正規行も旧行を打ち消すので、絞り込みは移行の後
	migrated, adopted := migrateLegacy(raw)
	out := migrated[:0]
	for _, r := range migrated {
		if r.Deleted && !f.IncludeDeleted {
			continue
		}
		out = append(out, r)
	}
	if len(adopted) > 0 {
		m.update(func(next map[string]DailyRecord) {
			for id, legacyID := range adopted {
				if _, taken := next[id]; taken {
					continue
				}
				if _, still := next[legacyID]; still {
					adoptLocked(next, legacyID, id)
				}
			}
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// SortNewestFirst: 日付の新しい順、同日なら更新の新しい順
func SortNewestFirst(recs []DailyRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.After(recs[j].Date)
		}
		return recs[i].LastModifiedAt.After(recs[j].LastModifiedAt)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
