package scoring

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySnapshotStore implements SnapshotStore in memory.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
	nextID    int64
}

// NewMemorySnapshotStore creates an in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{nextID: 1}
}

func (m *MemorySnapshotStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.ID = m.nextID
	m.nextID++
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *MemorySnapshotStore) SaveBatch(ctx context.Context, snaps []*Snapshot) error {
	for _, s := range snaps {
		if err := m.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemorySnapshotStore) Query(_ context.Context, q HistoryQuery) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*Snapshot
	for _, s := range m.snapshots {
		if s.CustomerID != q.CustomerID {
			continue
		}
		if !q.From.IsZero() && s.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && s.CreatedAt.After(q.To) {
			continue
		}
		results = append(results, s)
	}

	// Newest first, ID breaking ties for batch writes that share a
	// timestamp. Same ordering as the postgres store.
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (m *MemorySnapshotStore) Latest(_ context.Context, customerID int64) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Snapshot
	for _, s := range m.snapshots {
		if s.CustomerID != customerID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) ||
			(s.CreatedAt.Equal(latest.CreatedAt) && s.ID > latest.ID) {
			latest = s
		}
	}
	return latest, nil
}
