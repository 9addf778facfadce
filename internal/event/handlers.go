package event

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/traces"
	"github.com/pulseboard/pulseboard/internal/validation"
)

// CustomerChecker verifies the customer an event is recorded against exists.
type CustomerChecker interface {
	Get(ctx context.Context, id int64) (*customer.Customer, error)
}

// Notifier receives ingested events for live streaming. Optional.
type Notifier interface {
	UsageRecorded(ev *Event)
}

// Handler provides HTTP endpoints for event ingestion and listing
type Handler struct {
	store     Store
	customers CustomerChecker
	notifier  Notifier
}

// NewHandler creates a new event handler
func NewHandler(store Store, customers CustomerChecker) *Handler {
	return &Handler{store: store, customers: customers}
}

// WithNotifier attaches an ingestion event sink.
func (h *Handler) WithNotifier(n Notifier) *Handler {
	h.notifier = n
	return h
}

// RegisterRoutes sets up event endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/customers/:id/events", h.RecordEvent)
	r.GET("/customers/:id/events", h.ListEvents)
}

type recordEventRequest struct {
	Type       string    `json:"type"`
	FeatureKey string    `json:"featureKey"`
	Value      *float64  `json:"value"`
	Timestamp  time.Time `json:"ts"`
}

// RecordEvent ingests a single usage event for a customer.
// POST /v1/customers/:id/events
func (h *Handler) RecordEvent(c *gin.Context) {
	id, ok := validation.IDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "id must be a positive integer",
		})
		return
	}

	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.EventsRejectedTotal.Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be valid JSON with type and ts",
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "event.RecordEvent",
		traces.CustomerID(id), traces.EventType(req.Type))
	defer span.End()

	if _, err := h.customers.Get(ctx, id); err != nil {
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

	ev := &Event{
		CustomerID: id,
		Type:       Type(req.Type),
		FeatureKey: validation.SanitizeString(req.FeatureKey, 100),
		Value:      req.Value,
		Timestamp:  req.Timestamp,
	}
	if ev.Timestamp.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "ts is required",
		})
		metrics.EventsRejectedTotal.Inc()
		return
	}
	if err := ev.Validate(); err != nil {
		metrics.EventsRejectedTotal.Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": err.Error(),
		})
		return
	}

	if err := h.store.Insert(ctx, ev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "insert_failed",
			"message": "Failed to record event",
		})
		return
	}

	metrics.EventsIngestedTotal.WithLabelValues(string(ev.Type)).Inc()
	if h.notifier != nil {
		h.notifier.UsageRecorded(ev)
	}

	c.JSON(http.StatusCreated, gin.H{"event": ev})
}

// ListEvents returns a customer's events within an optional time range,
// oldest first.
// GET /v1/customers/:id/events?from=&to=&limit=
func (h *Handler) ListEvents(c *gin.Context) {
	id, ok := validation.IDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "id must be a positive integer",
		})
		return
	}

	if _, err := h.customers.Get(c.Request.Context(), id); err != nil {
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

	// Default window: everything up to now.
	from := time.Time{}
	to := time.Now().UTC()
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_from",
				"message": "from must be RFC3339",
			})
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_to",
				"message": "to must be RFC3339",
			})
			return
		}
		to = t
	}

	events, err := h.store.ListByCustomer(c.Request.Context(), id, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to list events",
		})
		return
	}

	limit := 1000
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}
	if len(events) > limit {
		events = events[len(events)-limit:] // keep the most recent
	}

	c.JSON(http.StatusOK, gin.H{
		"customerId": id,
		"events":     events,
		"count":      len(events),
	})
}
