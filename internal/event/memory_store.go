package event

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Used in demo mode and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*Event
	nextID int64
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) Insert(_ context.Context, ev *Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ev.ID = m.nextID
	m.nextID++
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	cp := *ev
	m.events = append(m.events, &cp)
	return nil
}

func (m *MemoryStore) ListByCustomer(_ context.Context, customerID int64, from, to time.Time) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Event
	for _, ev := range m.events {
		if ev.CustomerID != customerID {
			continue
		}
		if ev.Timestamp.Before(from) || ev.Timestamp.After(to) {
			continue
		}
		cp := *ev
		out = append(out, &cp)
	}

	// Timestamp ascending; insertion order (ID) breaks ties.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

func (m *MemoryStore) CountByCustomer(_ context.Context, customerID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, ev := range m.events {
		if ev.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}
