package attendance

import (
	"context"
	"sync"
	"time"
)

type memKey struct {
	classID string
	day     string
}

// MemoryStore は storage: memory 用。Save はクラス×日単位でまとめて差し替える。
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[memKey]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: map[memKey]Record{}}
}

func (m *MemoryStore) Get(ctx context.Context, classID string, date time.Time) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[memKey{classID, date.Format(DateLayout)}]
	if !ok {
		return Record{}, false, nil
	}
	return rec.clone(), true, nil
}

func (m *MemoryStore) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := memKey{rec.ClassID, rec.Date.Format(DateLayout)}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := rec.clone()
	if cur, ok := m.recs[k]; ok {
		merged := cur.clone()
		for sid, st := range rec.Marks {
			merged.Marks[sid] = st
		}
		merged.RecordedAt = rec.RecordedAt
		next = merged
	}
	m.recs[k] = next
	return nil
}
