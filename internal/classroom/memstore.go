package classroom

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu       sync.RWMutex
	classes  map[string]Class
	roster   map[string]map[string]struct{}
	holidays map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		classes:  map[string]Class{},
		roster:   map[string]map[string]struct{}{},
		holidays: map[string]string{},
	}
}

func (m *MemoryStore) ListClasses(ctx context.Context, includeInactive bool) ([]Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Class, 0, len(m.classes))
	for _, c := range m.classes {
		if c.IsActive || includeInactive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassID < out[j].ClassID })
	return out, nil
}

func (m *MemoryStore) GetClass(ctx context.Context, classID string) (Class, bool, error) {
	if err := ctx.Err(); err != nil {
		return Class{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[classID]
	return c, ok, nil
}

func (m *MemoryStore) SaveClass(ctx context.Context, c Class) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[c.ClassID] = c
	return nil
}

func (m *MemoryStore) StudentsInClass(ctx context.Context, classID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.roster[classID]))
	for sid := range m.roster[classID] {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Enroll(ctx context.Context, classID string, studentIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.roster[classID]
	if !ok {
		set = map[string]struct{}{}
		m.roster[classID] = set
	}
	for _, sid := range studentIDs {
		set[sid] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) Unenroll(ctx context.Context, classID, studentID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roster[classID][studentID]; !ok {
		return false, nil
	}
	delete(m.roster[classID], studentID)
	return true, nil
}

func (m *MemoryStore) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.holidays[date.Format(DateLayout)]
	return ok, nil
}

func (m *MemoryStore) AddHoliday(ctx context.Context, h Holiday) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.Date.Format(DateLayout)] = h.Label
	return nil
}
