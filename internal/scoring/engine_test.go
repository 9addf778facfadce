package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
)

var asOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func fptr(v float64) *float64 { return &v }

func seedEvents(t *testing.T, store event.Store, customerID int64, events []*event.Event) {
	t.Helper()
	for _, ev := range events {
		ev.CustomerID = customerID
		if err := store.Insert(context.Background(), ev); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}
}

func daysAgo(d int) time.Time {
	return asOf.AddDate(0, 0, -d)
}

func TestEngine_ScoreAt_WorkedExample(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 1, Name: "Acme", Segment: customer.SegmentSMB, Seats: 10}

	var events []*event.Event
	// 4 logins in 30d -> 50 (target 8)
	for i := 0; i < 4; i++ {
		events = append(events, &event.Event{Type: event.TypeLogin, Timestamp: daysAgo(i + 1)})
	}
	// 3 distinct features -> 50 (catalog 6); repeats don't count twice
	for _, key := range []string{"reports", "exports", "alerts", "reports"} {
		events = append(events, &event.Event{Type: event.TypeFeatureUse, FeatureKey: key, Timestamp: daysAgo(5)})
	}
	// 2 tickets -> 80
	events = append(events,
		&event.Event{Type: event.TypeSupportTicketOpened, Timestamp: daysAgo(3)},
		&event.Event{Type: event.TypeSupportTicketOpened, Timestamp: daysAgo(12)},
	)
	// 3 paid, 1 late in 90d -> 75
	events = append(events,
		&event.Event{Type: event.TypeInvoicePaid, Timestamp: daysAgo(10)},
		&event.Event{Type: event.TypeInvoicePaid, Timestamp: daysAgo(40)},
		&event.Event{Type: event.TypeInvoicePaid, Timestamp: daysAgo(70)},
		&event.Event{Type: event.TypeInvoiceLate, Timestamp: daysAgo(85)},
	)
	// API usage doubled week over week -> 100
	events = append(events,
		&event.Event{Type: event.TypeAPICall, Value: fptr(600), Timestamp: daysAgo(2)},
		&event.Event{Type: event.TypeAPICall, Value: fptr(400), Timestamp: daysAgo(4)},
		&event.Event{Type: event.TypeAPICall, Value: fptr(500), Timestamp: daysAgo(9)},
	)
	seedEvents(t, store, c.ID, events)

	bd, err := NewEngine(store).ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("ScoreAt: %v", err)
	}

	wantFactors := map[string]float64{
		FactorLoginFrequency:      50,
		FactorFeatureAdoption:     50,
		FactorSupportTicketVolume: 80,
		FactorInvoiceTimeliness:   75,
		FactorAPIUsageTrend:       100,
	}
	for name, want := range wantFactors {
		if got := bd.Factors[name]; !almostEqual(got, want) {
			t.Errorf("factor %s = %v, want %v", name, got, want)
		}
	}

	// .25*50 + .25*50 + .20*80 + .15*75 + .15*100 = 67.25 -> 67.3
	if bd.Total != 67.3 {
		t.Errorf("total = %v, want 67.3", bd.Total)
	}
	if bd.Risk != RiskWatch {
		t.Errorf("risk = %s, want %s", bd.Risk, RiskWatch)
	}
	if !bd.ComputedAt.Equal(asOf) {
		t.Errorf("computedAt = %v, want %v", bd.ComputedAt, asOf)
	}
}

func TestEngine_ScoreAt_NoEvents(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 2, Name: "Quiet Corp", Segment: customer.SegmentSMB, Seats: 5}

	bd, err := NewEngine(store).ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("ScoreAt: %v", err)
	}

	// login 0, features 0, tickets 100, invoices 100, trend 50
	// .20*100 + .15*100 + .15*50 = 42.5
	if bd.Total != 42.5 {
		t.Errorf("total = %v, want 42.5", bd.Total)
	}
	if bd.Risk != RiskWatch {
		t.Errorf("risk = %s, want %s", bd.Risk, RiskWatch)
	}
}

func TestEngine_ScoreAt_WindowBoundaries(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 3, Name: "Edge Inc", Segment: customer.SegmentSMB, Seats: 10}

	seedEvents(t, store, c.ID, []*event.Event{
		// Inside and outside the 30d login window
		{Type: event.TypeLogin, Timestamp: daysAgo(30)},
		{Type: event.TypeLogin, Timestamp: daysAgo(31)},
		// Inside and outside the 90d invoice window
		{Type: event.TypeInvoiceLate, Timestamp: daysAgo(90)},
		{Type: event.TypeInvoiceLate, Timestamp: daysAgo(91)},
	})

	bd, err := NewEngine(store).ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("ScoreAt: %v", err)
	}

	// Exactly 1 login counted: 100 * 1/8 = 12.5
	if got := bd.Factors[FactorLoginFrequency]; !almostEqual(got, 12.5) {
		t.Errorf("login factor = %v, want 12.5 (one login inside window)", got)
	}
	// Exactly 1 late invoice counted: 0 paid / 1 late -> 0
	if got := bd.Factors[FactorInvoiceTimeliness]; !almostEqual(got, 0) {
		t.Errorf("invoice factor = %v, want 0 (late invoice inside window)", got)
	}
}

func TestEngine_ScoreAt_TrendWindows(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 4, Name: "Trendy", Segment: customer.SegmentSMB, Seats: 10}

	seedEvents(t, store, c.ID, []*event.Event{
		{Type: event.TypeAPICall, Value: fptr(300), Timestamp: daysAgo(1)},  // recent
		{Type: event.TypeAPICall, Value: fptr(600), Timestamp: daysAgo(8)},  // prior
		{Type: event.TypeAPICall, Value: fptr(900), Timestamp: daysAgo(20)}, // older than both windows
	})

	bd, err := NewEngine(store).ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("ScoreAt: %v", err)
	}

	// recent=300, prior=600: 50 + 50*(300-600)/600 = 25
	if got := bd.Factors[FactorAPIUsageTrend]; !almostEqual(got, 25) {
		t.Errorf("trend factor = %v, want 25", got)
	}
}

func TestEngine_ScoreAt_Deterministic(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 5, Name: "Stable", Segment: customer.SegmentEnterprise, Seats: 200}

	seedEvents(t, store, c.ID, []*event.Event{
		{Type: event.TypeLogin, Timestamp: daysAgo(2)},
		{Type: event.TypeFeatureUse, FeatureKey: "sso", Timestamp: daysAgo(6)},
		{Type: event.TypeInvoicePaid, Timestamp: daysAgo(45)},
	})

	engine := NewEngine(store)
	first, err := engine.ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("first ScoreAt: %v", err)
	}
	second, err := engine.ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("second ScoreAt: %v", err)
	}

	if first.Total != second.Total || first.Risk != second.Risk {
		t.Errorf("same inputs produced different scores: %v/%s vs %v/%s",
			first.Total, first.Risk, second.Total, second.Risk)
	}
}

// badSource hands the engine an event that would never pass ingestion.
type badSource struct{}

func (badSource) ListByCustomer(context.Context, int64, time.Time, time.Time) ([]*event.Event, error) {
	return []*event.Event{
		{ID: 99, Type: event.TypeLogin, FeatureKey: "sneaky", Timestamp: asOf.Add(-time.Hour)},
	}, nil
}

func TestEngine_ScoreAt_MalformedEventAborts(t *testing.T) {
	c := &customer.Customer{ID: 6, Name: "Corrupt", Segment: customer.SegmentSMB, Seats: 10}

	_, err := NewEngine(badSource{}).ScoreAt(context.Background(), c, asOf)
	if err == nil {
		t.Fatal("expected error for malformed event history")
	}
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("expected ErrMalformedEvent, got %v", err)
	}
}

func TestEngine_Score_UsesClock(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 7, Name: "Clocked", Segment: customer.SegmentSMB, Seats: 10}

	seedEvents(t, store, c.ID, []*event.Event{
		{Type: event.TypeLogin, Timestamp: daysAgo(1)},
	})

	engine := NewEngine(store).WithClock(func() time.Time { return asOf })
	bd, err := engine.Score(context.Background(), c)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !bd.ComputedAt.Equal(asOf) {
		t.Errorf("computedAt = %v, want clock time %v", bd.ComputedAt, asOf)
	}
	if got := bd.Factors[FactorLoginFrequency]; almostEqual(got, 0) {
		t.Error("expected the login recorded relative to the injected clock to count")
	}
}

func TestEngine_WithCatalogSize(t *testing.T) {
	store := event.NewMemoryStore()
	c := &customer.Customer{ID: 8, Name: "Adopter", Segment: customer.SegmentSMB, Seats: 10}

	seedEvents(t, store, c.ID, []*event.Event{
		{Type: event.TypeFeatureUse, FeatureKey: "a", Timestamp: daysAgo(1)},
		{Type: event.TypeFeatureUse, FeatureKey: "b", Timestamp: daysAgo(1)},
	})

	bd, err := NewEngine(store).WithCatalogSize(4).ScoreAt(context.Background(), c, asOf)
	if err != nil {
		t.Fatalf("ScoreAt: %v", err)
	}
	if got := bd.Factors[FactorFeatureAdoption]; !almostEqual(got, 50) {
		t.Errorf("feature factor = %v, want 50 with catalog size 4", got)
	}
}
