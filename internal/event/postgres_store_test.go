package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
	"github.com/pulseboard/pulseboard/internal/testutil"
)

func fptr(v float64) *float64 { return &v }

func seedCustomer(t *testing.T, db interface {
	Create(ctx context.Context, c *customer.Customer) error
}) int64 {
	t.Helper()
	c := &customer.Customer{Name: "Acme", Segment: customer.SegmentSMB, Seats: 10}
	if err := db.Create(context.Background(), c); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c.ID
}

func TestPostgresStore_InsertAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	customerID := seedCustomer(t, customer.NewPostgresStore(db))
	store := event.NewPostgresStore(db)

	base := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	events := []*event.Event{
		{CustomerID: customerID, Type: event.TypeAPICall, Value: fptr(120), Timestamp: base.Add(2 * time.Hour)},
		{CustomerID: customerID, Type: event.TypeLogin, Timestamp: base},
		{CustomerID: customerID, Type: event.TypeFeatureUse, FeatureKey: "reports", Timestamp: base.Add(time.Hour)},
	}
	for _, ev := range events {
		if err := store.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert %s: %v", ev.Type, err)
		}
		if ev.ID == 0 {
			t.Fatal("Insert did not assign an ID")
		}
	}

	got, err := store.ListByCustomer(ctx, customerID, base.Add(-time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	// Ordered by timestamp ascending regardless of insert order.
	if got[0].Type != event.TypeLogin || got[2].Type != event.TypeAPICall {
		t.Errorf("wrong order: %s, %s, %s", got[0].Type, got[1].Type, got[2].Type)
	}
	// Payload round trip.
	if got[1].FeatureKey != "reports" {
		t.Errorf("featureKey = %q, want reports", got[1].FeatureKey)
	}
	if got[2].Value == nil || *got[2].Value != 120 {
		t.Errorf("value = %v, want 120", got[2].Value)
	}
	if got[0].Value != nil || got[0].FeatureKey != "" {
		t.Error("login event should carry no payload")
	}
}

func TestPostgresStore_ListWindowIsInclusive(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	customerID := seedCustomer(t, customer.NewPostgresStore(db))
	store := event.NewPostgresStore(db)

	base := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.Insert(ctx, &event.Event{
			CustomerID: customerID,
			Type:       event.TypeLogin,
			Timestamp:  base.AddDate(0, 0, i),
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := store.ListByCustomer(ctx, customerID, base, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d events, want 2 (both window edges inclusive)", len(got))
	}
}

func TestPostgresStore_CountByCustomer(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	customerID := seedCustomer(t, customer.NewPostgresStore(db))
	store := event.NewPostgresStore(db)

	n, err := store.CountByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("CountByCustomer: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	if err := store.Insert(ctx, &event.Event{
		CustomerID: customerID, Type: event.TypeLogin, Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	n, err = store.CountByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("CountByCustomer: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
