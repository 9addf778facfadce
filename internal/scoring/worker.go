package scoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/metrics"
)

// CustomerSource is the slice of the customer store the worker needs:
// enumerate customers and refresh the cached score.
type CustomerSource interface {
	List(ctx context.Context, segment customer.Segment) ([]*customer.Customer, error)
	UpdateHealthScore(ctx context.Context, id int64, score float64) error
}

// Broadcaster receives score updates for live streaming. Optional.
type Broadcaster interface {
	ScoreUpdated(c *customer.Customer, bd *Breakdown)
}

// Worker periodically recomputes every customer's score, persists a
// snapshot, and refreshes the cached health_score. The cache write is
// idempotent last-writer-wins; correctness never depends on it.
type Worker struct {
	engine      *Engine
	customers   CustomerSource
	store       SnapshotStore
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger
	stop        chan struct{}
}

// NewWorker creates a snapshot worker.
// interval is typically 1 hour in production, a few seconds in demo mode.
func NewWorker(engine *Engine, customers CustomerSource, store SnapshotStore, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		engine:    engine,
		customers: customers,
		store:     store,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// WithBroadcaster attaches a live score-update sink.
func (w *Worker) WithBroadcaster(b Broadcaster) *Worker {
	w.broadcaster = b
	return w
}

// Start begins the snapshot loop. Call in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on start
	w.snapshot(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.snapshot(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *Worker) Stop() {
	select {
	case w.stop <- struct{}{}:
	default:
	}
}

func (w *Worker) snapshot(ctx context.Context) {
	customers, err := w.customers.List(ctx, "")
	if err != nil {
		w.logger.Warn("score snapshot failed to list customers", "error", err)
		return
	}
	if len(customers) == 0 {
		return
	}

	var snaps []*Snapshot
	for _, c := range customers {
		bd, err := w.engine.Score(ctx, c)
		if err != nil {
			w.logger.Warn("score snapshot failed to score customer",
				"customer_id", c.ID, "error", err)
			continue
		}
		metrics.ScoresComputedTotal.WithLabelValues(string(bd.Risk)).Inc()

		snaps = append(snaps, SnapshotFromBreakdown(bd))

		if err := w.customers.UpdateHealthScore(ctx, c.ID, bd.Total); err != nil {
			w.logger.Warn("score cache refresh failed",
				"customer_id", c.ID, "error", err)
		}
		if w.broadcaster != nil {
			w.broadcaster.ScoreUpdated(c, bd)
		}
	}

	if len(snaps) == 0 {
		return
	}
	if err := w.store.SaveBatch(ctx, snaps); err != nil {
		metrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
		w.logger.Warn("score snapshot failed to save", "error", err, "count", len(snaps))
		return
	}

	metrics.SnapshotRunsTotal.WithLabelValues("ok").Inc()
	w.logger.Info("score snapshot completed", "customers", len(snaps))
}
