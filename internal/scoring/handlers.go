package scoring

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/traces"
)

// CustomerDirectory is the slice of the customer store the handler needs.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customer.Customer, error)
	UpdateHealthScore(ctx context.Context, id int64, score float64) error
}

// Handler provides HTTP endpoints for health scores
type Handler struct {
	engine        *Engine
	customers     CustomerDirectory
	snapshotStore SnapshotStore
}

// NewHandler creates a new health score handler
func NewHandler(engine *Engine, customers CustomerDirectory) *Handler {
	return &Handler{engine: engine, customers: customers}
}

// WithSnapshotStore enables the history endpoint.
func (h *Handler) WithSnapshotStore(store SnapshotStore) *Handler {
	h.snapshotStore = store
	return h
}

// RegisterRoutes sets up health score endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/customers/:id/health", h.GetHealth)
	r.GET("/customers/:id/health/history", h.GetHealthHistory)
}

// GetHealth returns the full score breakdown for a single customer,
// computed fresh from event history.
// GET /v1/customers/:id/health
func (h *Handler) GetHealth(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "id must be a positive integer",
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "scoring.GetHealth", traces.CustomerID(id))
	defer span.End()

	cust, err := h.customers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "customer_not_found",
				"message": "Customer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "lookup_failed",
			"message": "Failed to load customer",
		})
		return
	}

	bd, err := h.engine.Score(ctx, cust)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "scoring_failed",
			"message": "Failed to compute health score",
		})
		return
	}
	span.SetAttributes(traces.Score(bd.Total), traces.Risk(string(bd.Risk)))

	// Refresh the cached score. Best effort; the response is already correct.
	if err := h.customers.UpdateHealthScore(ctx, cust.ID, bd.Total); err != nil {
		logging.L(ctx).Warn("score cache refresh failed", "customer_id", cust.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"health": bd})
}

// GetHealthHistory returns persisted score snapshots, newest first.
// GET /v1/customers/:id/health/history?from=&to=&limit=
func (h *Handler) GetHealthHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "id must be a positive integer",
		})
		return
	}

	if h.snapshotStore == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   "not_available",
			"message": "Historical score data is not available",
		})
		return
	}

	q := HistoryQuery{
		CustomerID: id,
		Limit:      100,
	}

	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			q.From = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			q.To = t
		}
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			q.Limit = parsed
			if q.Limit > 1000 {
				q.Limit = 1000
			}
		}
	}

	snapshots, err := h.snapshotStore.Query(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to query score history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customerId": id,
		"snapshots":  snapshots,
		"count":      len(snapshots),
	})
}
