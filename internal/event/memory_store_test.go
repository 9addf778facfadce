package event

import (
	"context"
	"testing"
	"time"
)

var base = time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

func TestMemoryStore_InsertAssignsIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ev := &Event{CustomerID: 1, Type: TypeLogin, Timestamp: base}
		if err := store.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if ev.ID != int64(i) {
			t.Errorf("ID = %d, want %d", ev.ID, i)
		}
	}
}

func TestMemoryStore_InsertValidates(t *testing.T) {
	store := NewMemoryStore()

	err := store.Insert(context.Background(), &Event{
		CustomerID: 1,
		Type:       TypeLogin,
		FeatureKey: "stray",
		Timestamp:  base,
	})
	if err == nil {
		t.Fatal("expected validation error for login with feature key")
	}
}

func TestMemoryStore_ListByCustomer_OrderAndWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Inserted out of time order, plus one with an identical timestamp.
	inserts := []*Event{
		{CustomerID: 1, Type: TypeLogin, Timestamp: base.Add(2 * time.Hour)},
		{CustomerID: 1, Type: TypeLogin, Timestamp: base},
		{CustomerID: 1, Type: TypeLogin, Timestamp: base.Add(2 * time.Hour)}, // tie
		{CustomerID: 2, Type: TypeLogin, Timestamp: base.Add(time.Hour)},     // other customer
		{CustomerID: 1, Type: TypeLogin, Timestamp: base.Add(48 * time.Hour)}, // outside window
	}
	for _, ev := range inserts {
		if err := store.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := store.ListByCustomer(ctx, 1, base, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if !got[0].Timestamp.Equal(base) {
		t.Error("first event should be the oldest")
	}
	// Equal timestamps keep insertion order (ascending ID).
	if got[1].ID > got[2].ID {
		t.Errorf("tie not broken by insertion order: %d before %d", got[1].ID, got[2].ID)
	}
}

func TestMemoryStore_ListReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &Event{CustomerID: 1, Type: TypeLogin, Timestamp: base}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	first, _ := store.ListByCustomer(ctx, 1, base, base)
	first[0].Type = TypeInvoiceLate

	second, _ := store.ListByCustomer(ctx, 1, base, base)
	if second[0].Type != TypeLogin {
		t.Error("mutating a listed event leaked into the store")
	}
}

func TestMemoryStore_CountByCustomer(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_ = store.Insert(ctx, &Event{CustomerID: 1, Type: TypeLogin, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	_ = store.Insert(ctx, &Event{CustomerID: 2, Type: TypeLogin, Timestamp: base})

	n, err := store.CountByCustomer(ctx, 1)
	if err != nil {
		t.Fatalf("CountByCustomer: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}
