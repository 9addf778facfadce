package scoring

import (
	"context"
	"time"
)

// Snapshot is a point-in-time record of a customer's health score,
// written periodically by the Worker. Snapshots are an optional
// projection for history queries — the engine never reads them back
// to compute scores.
type Snapshot struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customerId"`
	Score      float64   `json:"score"`
	Risk       Risk      `json:"risk"`

	LoginFrequency      float64 `json:"loginFrequency"`
	FeatureAdoption     float64 `json:"featureAdoption"`
	SupportTicketVolume float64 `json:"supportTicketVolume"`
	InvoiceTimeliness   float64 `json:"invoiceTimeliness"`
	APIUsageTrend       float64 `json:"apiUsageTrend"`

	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotFromBreakdown flattens a breakdown into a snapshot row.
func SnapshotFromBreakdown(bd *Breakdown) *Snapshot {
	return &Snapshot{
		CustomerID:          bd.CustomerID,
		Score:               bd.Total,
		Risk:                bd.Risk,
		LoginFrequency:      bd.Factors[FactorLoginFrequency],
		FeatureAdoption:     bd.Factors[FactorFeatureAdoption],
		SupportTicketVolume: bd.Factors[FactorSupportTicketVolume],
		InvoiceTimeliness:   bd.Factors[FactorInvoiceTimeliness],
		APIUsageTrend:       bd.Factors[FactorAPIUsageTrend],
	}
}

// HistoryQuery filters snapshot history for one customer.
type HistoryQuery struct {
	CustomerID int64
	From       time.Time // zero = unbounded
	To         time.Time // zero = unbounded
	Limit      int       // <= 0 defaults to 100
}

// SnapshotStore persists score snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	SaveBatch(ctx context.Context, snaps []*Snapshot) error

	// Query returns snapshots matching q, newest first.
	Query(ctx context.Context, q HistoryQuery) ([]*Snapshot, error)

	// Latest returns the most recent snapshot for a customer, or nil.
	Latest(ctx context.Context, customerID int64) (*Snapshot, error)
}
