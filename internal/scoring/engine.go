package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
)

// Engine computes health breakdowns from event history.
//
// Stateless between calls: every invocation is a pure function of
// (events, as-of time, configuration), so concurrent scoring of
// different customers needs no coordination.
type Engine struct {
	source      EventSource
	weights     Weights
	thresholds  Thresholds
	catalogSize int
	now         func() time.Time
}

// NewEngine creates a scoring engine over the given event source with
// default weights and thresholds.
func NewEngine(source EventSource) *Engine {
	return &Engine{
		source:      source,
		weights:     DefaultWeights,
		thresholds:  DefaultThresholds,
		catalogSize: DefaultFeatureCatalogSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithWeights overrides the factor weights. Callers must have validated them.
func (e *Engine) WithWeights(w Weights) *Engine {
	e.weights = w
	return e
}

// WithThresholds overrides the risk bucket boundaries.
func (e *Engine) WithThresholds(t Thresholds) *Engine {
	e.thresholds = t
	return e
}

// WithCatalogSize overrides the feature catalog size used by the
// feature adoption factor.
func (e *Engine) WithCatalogSize(n int) *Engine {
	e.catalogSize = n
	return e
}

// WithClock overrides the time source (for tests and replay).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Thresholds returns the engine's risk thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Score computes the breakdown for a customer as of now.
func (e *Engine) Score(ctx context.Context, c *customer.Customer) (*Breakdown, error) {
	return e.ScoreAt(ctx, c, e.now())
}

// ScoreAt computes the breakdown for a customer as of an arbitrary
// point in time. Every factor window is measured backward from asOf,
// which is what lets the trend aggregator replay history.
func (e *Engine) ScoreAt(ctx context.Context, c *customer.Customer, asOf time.Time) (*Breakdown, error) {
	events, err := e.source.ListByCustomer(ctx, c.ID, asOf.Add(-maxLookback), asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch events for customer %d: %w", c.ID, err)
	}

	tallies, err := tally(events, asOf)
	if err != nil {
		return nil, err
	}

	factors := map[string]float64{
		FactorLoginFrequency:      scoreLoginFrequency(tallies.logins, c.Seats, c.Segment),
		FactorFeatureAdoption:     scoreFeatureAdoption(len(tallies.features), e.catalogSize),
		FactorSupportTicketVolume: scoreSupportTicketVolume(tallies.tickets, c.Seats, c.Segment),
		FactorInvoiceTimeliness:   scoreInvoiceTimeliness(tallies.invoicesPaid, tallies.invoicesLate),
		FactorAPIUsageTrend:       scoreAPIUsageTrend(tallies.apiRecent, tallies.apiPrior),
	}

	total := e.weights.LoginFrequency*factors[FactorLoginFrequency] +
		e.weights.FeatureAdoption*factors[FactorFeatureAdoption] +
		e.weights.SupportTicketVolume*factors[FactorSupportTicketVolume] +
		e.weights.InvoiceTimeliness*factors[FactorInvoiceTimeliness] +
		e.weights.APIUsageTrend*factors[FactorAPIUsageTrend]

	total = round1(clamp(total))

	return &Breakdown{
		CustomerID: c.ID,
		Total:      total,
		Risk:       e.thresholds.Classify(total),
		Factors:    factors,
		ComputedAt: asOf,
	}, nil
}

// windowTallies are the raw per-factor inputs extracted from one pass
// over the event history.
type windowTallies struct {
	logins       int
	features     map[string]struct{}
	tickets      int
	invoicesPaid int
	invoicesLate int
	apiRecent    float64
	apiPrior     float64
}

// tally partitions events into each factor's lookback window. A
// malformed or unknown-type event aborts the computation: the
// ingestion boundary should have rejected it, and skipping it here
// would silently distort the score.
func tally(events []*event.Event, asOf time.Time) (*windowTallies, error) {
	loginCutoff := asOf.Add(-loginWindow)
	featureCutoff := asOf.Add(-featureWindow)
	ticketCutoff := asOf.Add(-ticketWindow)
	invoiceCutoff := asOf.Add(-invoiceWindow)
	recentCutoff := asOf.Add(-trendWindow)
	priorCutoff := asOf.Add(-2 * trendWindow)

	t := &windowTallies{features: make(map[string]struct{})}

	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrMalformedEvent, ev.ID, err)
		}
		if ev.Timestamp.After(asOf) {
			continue // the source contract already excludes these
		}

		switch ev.Type {
		case event.TypeLogin:
			if !ev.Timestamp.Before(loginCutoff) {
				t.logins++
			}
		case event.TypeFeatureUse:
			if !ev.Timestamp.Before(featureCutoff) {
				t.features[ev.FeatureKey] = struct{}{}
			}
		case event.TypeSupportTicketOpened:
			if !ev.Timestamp.Before(ticketCutoff) {
				t.tickets++
			}
		case event.TypeInvoicePaid:
			if !ev.Timestamp.Before(invoiceCutoff) {
				t.invoicesPaid++
			}
		case event.TypeInvoiceLate:
			if !ev.Timestamp.Before(invoiceCutoff) {
				t.invoicesLate++
			}
		case event.TypeAPICall:
			switch {
			case !ev.Timestamp.Before(recentCutoff):
				t.apiRecent += *ev.Value
			case !ev.Timestamp.Before(priorCutoff):
				t.apiPrior += *ev.Value
			}
		}
	}

	return t, nil
}
