package customer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Used in demo mode and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[int64]*Customer
	nextID    int64
}

// NewMemoryStore creates an empty in-memory customer store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[int64]*Customer),
		nextID:    1,
	}
}

func (m *MemoryStore) Create(_ context.Context, c *Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.customers {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrExists
		}
	}

	c.ID = m.nextID
	m.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Active = true

	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, segment Segment) ([]*Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Customer
	for _, c := range m.customers {
		if segment != "" && c.Segment != segment {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateHealthScore(_ context.Context, id int64, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return ErrNotFound
	}
	c.HealthScore = score
	return nil
}
