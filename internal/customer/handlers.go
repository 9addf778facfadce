package customer

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/validation"
)

// ScoreFunc recomputes a customer's current health score. Kept as a
// plain function so this package stays below the scoring engine.
type ScoreFunc func(ctx context.Context, c *Customer) (float64, error)

// Notifier receives customer lifecycle events for live streaming. Optional.
type Notifier interface {
	CustomerCreated(c *Customer)
}

// Handler provides HTTP endpoints for customer management
type Handler struct {
	store    Store
	score    ScoreFunc
	notifier Notifier
}

// NewHandler creates a new customer handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// WithScoreFunc enables fresh scores on reads instead of cached ones.
func (h *Handler) WithScoreFunc(f ScoreFunc) *Handler {
	h.score = f
	return h
}

// WithNotifier attaches a lifecycle event sink.
func (h *Handler) WithNotifier(n Notifier) *Handler {
	h.notifier = n
	return h
}

// RegisterRoutes sets up customer endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/customers", h.CreateCustomer)
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/:id", h.GetCustomer)
}

type createCustomerRequest struct {
	Name    string `json:"name"`
	Segment string `json:"segment"`
	Seats   int    `json:"seats"`
}

// CreateCustomer registers a new customer.
// POST /v1/customers
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be valid JSON with name, segment, and seats",
		})
		return
	}

	req.Name = validation.SanitizeString(req.Name, validation.MaxNameLength)

	if errs := validation.Validate(
		validation.Required("name", req.Name),
		validation.Required("segment", req.Segment),
		validation.PositiveInt("seats", strconv.Itoa(req.Seats)),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"details": errs,
		})
		return
	}

	cust := &Customer{
		Name:    req.Name,
		Segment: Segment(req.Segment),
		Seats:   req.Seats,
		Active:  true,
	}
	if err := cust.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": err.Error(),
		})
		return
	}

	if err := h.store.Create(c.Request.Context(), cust); err != nil {
		if errors.Is(err, ErrExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "customer_exists",
				"message": "A customer with this name already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "create_failed",
			"message": "Failed to create customer",
		})
		return
	}

	if h.notifier != nil {
		h.notifier.CustomerCreated(cust)
	}

	c.JSON(http.StatusCreated, gin.H{"customer": cust})
}

// ListCustomers returns customers, optionally filtered by segment. When
// a score function is wired, each customer's health score is recomputed
// and the cache refreshed before responding.
// GET /v1/customers?segment=
func (h *Handler) ListCustomers(c *gin.Context) {
	segment := Segment(c.Query("segment"))
	if segment != "" && !segment.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_segment",
			"message": "segment must be one of startup, smb, enterprise",
		})
		return
	}

	customers, err := h.store.List(c.Request.Context(), segment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": "Failed to list customers",
		})
		return
	}

	if h.score != nil {
		ctx := c.Request.Context()
		for _, cust := range customers {
			total, err := h.score(ctx, cust)
			if err != nil {
				logging.L(ctx).Warn("score recompute failed", "customer_id", cust.ID, "error", err)
				continue
			}
			cust.HealthScore = total
			if err := h.store.UpdateHealthScore(ctx, cust.ID, total); err != nil {
				logging.L(ctx).Warn("score cache refresh failed", "customer_id", cust.ID, "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"count":     len(customers),
	})
}

// GetCustomer returns a single customer by ID.
// GET /v1/customers/:id
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := validation.IDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_id",
			"message": "id must be a positive integer",
		})
		return
	}

	cust, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
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

	c.JSON(http.StatusOK, gin.H{"customer": cust})
}
