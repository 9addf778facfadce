// Package scoring implements the explainable 0-100 customer health score.
//
// A customer's score is a weighted combination of 5 factors, each
// normalized to 0-100 from time-windowed event history:
// login frequency, feature adoption, support ticket volume, invoice
// timeliness, and API usage trend. The score is a pure derived view of
// (events, as-of time, configuration); any persisted copy is a cache
// with no correctness dependency.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pulseboard/pulseboard/internal/event"
)

// Factor names, as exposed in breakdowns and aggregate reports.
const (
	FactorLoginFrequency      = "login_frequency"
	FactorFeatureAdoption     = "feature_adoption"
	FactorSupportTicketVolume = "support_ticket_volume"
	FactorInvoiceTimeliness   = "invoice_timeliness"
	FactorAPIUsageTrend       = "api_usage_trend"
)

// FactorNames lists all factors in reporting order.
var FactorNames = []string{
	FactorLoginFrequency,
	FactorFeatureAdoption,
	FactorSupportTicketVolume,
	FactorInvoiceTimeliness,
	FactorAPIUsageTrend,
}

// Lookback windows per factor, measured backward from the as-of time.
const (
	loginWindow   = 30 * 24 * time.Hour
	featureWindow = 30 * 24 * time.Hour
	ticketWindow  = 30 * 24 * time.Hour
	invoiceWindow = 90 * 24 * time.Hour
	trendWindow   = 7 * 24 * time.Hour

	// maxLookback covers every factor window with a single event fetch.
	maxLookback = invoiceWindow
)

// Weights for the five factors. Must sum to 1.0.
type Weights struct {
	LoginFrequency      float64
	FeatureAdoption     float64
	SupportTicketVolume float64
	InvoiceTimeliness   float64
	APIUsageTrend       float64
}

// DefaultWeights is the canonical production weight vector.
var DefaultWeights = Weights{
	LoginFrequency:      0.25,
	FeatureAdoption:     0.25,
	SupportTicketVolume: 0.20,
	InvoiceTimeliness:   0.15,
	APIUsageTrend:       0.15,
}

// Validate checks each weight is within [0,1] and the vector sums to 1.0
// (within float tolerance). A negative weight would invert a factor's
// contribution, so components are checked individually, not just the sum.
// Called at startup; a bad weight vector is fatal, not a per-request error.
func (w Weights) Validate() error {
	components := []struct {
		name  string
		value float64
	}{
		{FactorLoginFrequency, w.LoginFrequency},
		{FactorFeatureAdoption, w.FeatureAdoption},
		{FactorSupportTicketVolume, w.SupportTicketVolume},
		{FactorInvoiceTimeliness, w.InvoiceTimeliness},
		{FactorAPIUsageTrend, w.APIUsageTrend},
	}

	sum := 0.0
	for _, c := range components {
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("factor weight %s must be within [0,1], got %.6f", c.name, c.value)
		}
		sum += c.value
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("factor weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// Risk buckets derived from the total score.
type Risk string

const (
	RiskHealthy Risk = "healthy"
	RiskWatch   Risk = "watch"
	RiskAtRisk  Risk = "at_risk"
)

// Thresholds are the risk bucket boundaries: healthy at or above Healthy,
// watch at or above Watch, at_risk below Watch.
type Thresholds struct {
	Healthy float64
	Watch   float64
}

// DefaultThresholds is the production classification.
var DefaultThresholds = Thresholds{Healthy: 80, Watch: 40}

// Validate checks threshold ordering.
func (t Thresholds) Validate() error {
	if t.Watch < 0 || t.Healthy > 100 || t.Watch >= t.Healthy {
		return fmt.Errorf("risk thresholds must satisfy 0 <= watch < healthy <= 100, got watch=%.1f healthy=%.1f", t.Watch, t.Healthy)
	}
	return nil
}

// Classify maps a total score to its risk bucket.
func (t Thresholds) Classify(total float64) Risk {
	switch {
	case total >= t.Healthy:
		return RiskHealthy
	case total >= t.Watch:
		return RiskWatch
	default:
		return RiskAtRisk
	}
}

// Breakdown is the result of scoring one customer at one point in time.
// Ephemeral: produced fresh on each request, never persisted as-is
// (snapshots are a separate, optional projection).
type Breakdown struct {
	CustomerID int64              `json:"customerId"`
	Total      float64            `json:"total"`
	Risk       Risk               `json:"risk"`
	Factors    map[string]float64 `json:"factors"`
	ComputedAt time.Time          `json:"computedAt"`
}

// EventSource supplies a customer's ordered event history for a window.
// The engine's only read dependency; implementations must return events
// with timestamps in [from, to], ascending, insertion-order ties.
type EventSource interface {
	ListByCustomer(ctx context.Context, customerID int64, from, to time.Time) ([]*event.Event, error)
}

// ErrMalformedEvent wraps validation failures on events handed to the
// engine. Malformed history is rejected loudly rather than skipped —
// silently dropping events would corrupt score accuracy.
var ErrMalformedEvent = errors.New("malformed event")

// clamp bounds x to [0, 100].
func clamp(x float64) float64 {
	return math.Max(0, math.Min(100, x))
}

// round1 rounds to one decimal place, half away from zero.
// The canonical rounding rule for totals (82.25 -> 82.3).
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
