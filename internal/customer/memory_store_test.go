package customer

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_CreateAssignsIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := &Customer{Name: "Alpha", Segment: SegmentSMB, Seats: 10}
	b := &Customer{Name: "Beta", Segment: SegmentStartup, Seats: 3}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("IDs = %d, %d, want 1, 2", a.ID, b.ID)
	}
	if !a.Active {
		t.Error("new customers should be active")
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestMemoryStore_CreateRejectsDuplicateNames(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, &Customer{Name: "Acme", Segment: SegmentSMB, Seats: 5}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Case-insensitive uniqueness.
	err := store.Create(ctx, &Customer{Name: "ACME", Segment: SegmentSMB, Seats: 5})
	if !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestMemoryStore_CreateValidates(t *testing.T) {
	store := NewMemoryStore()
	err := store.Create(context.Background(), &Customer{Name: "", Segment: SegmentSMB})
	if err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := &Customer{Name: "Acme", Segment: SegmentEnterprise, Seats: 100}
	if err := store.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Acme" {
		t.Errorf("Name = %q", got.Name)
	}

	// Returned value is a copy.
	got.Name = "Mutated"
	again, _ := store.Get(ctx, c.ID)
	if again.Name != "Acme" {
		t.Error("mutating a returned customer leaked into the store")
	}

	if _, err := store.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListFiltersAndSorts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, c := range []*Customer{
		{Name: "Gamma", Segment: SegmentSMB, Seats: 10},
		{Name: "Alpha", Segment: SegmentEnterprise, Seats: 400},
		{Name: "Beta", Segment: SegmentSMB, Seats: 20},
	} {
		if err := store.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.Name, err)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d customers, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID < all[i-1].ID {
			t.Fatal("List not ordered by ID ascending")
		}
	}

	smb, err := store.List(ctx, SegmentSMB)
	if err != nil {
		t.Fatalf("List smb: %v", err)
	}
	if len(smb) != 2 {
		t.Errorf("got %d smb customers, want 2", len(smb))
	}
}

func TestMemoryStore_UpdateHealthScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := &Customer{Name: "Acme", Segment: SegmentSMB, Seats: 5}
	if err := store.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.UpdateHealthScore(ctx, c.ID, 88.8); err != nil {
		t.Fatalf("UpdateHealthScore: %v", err)
	}
	got, _ := store.Get(ctx, c.ID)
	if got.HealthScore != 88.8 {
		t.Errorf("cached score = %v, want 88.8", got.HealthScore)
	}

	if err := store.UpdateHealthScore(ctx, 999, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
