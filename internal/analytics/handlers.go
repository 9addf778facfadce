package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulseboard/pulseboard/internal/customer"
)

// Handler provides HTTP endpoints for aggregate health analytics
type Handler struct {
	service *Service
	now     func() time.Time
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source (for tests).
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// RegisterRoutes sets up analytics endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health/summary", h.GetSummary)
	r.GET("/health/trend", h.GetTrend)
}

// GetSummary returns the population health report.
// GET /v1/health/summary?segment=
func (h *Handler) GetSummary(c *gin.Context) {
	segment := customer.Segment(c.Query("segment"))
	if segment != "" && !segment.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_segment",
			"message": "segment must be one of startup, smb, enterprise",
		})
		return
	}

	report, err := h.service.Summary(c.Request.Context(), segment, h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "summary_failed",
			"message": "Failed to compute health summary",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": report})
}

// GetTrend returns the daily score trend for the trailing window.
// GET /v1/health/trend?days=&segment=
func (h *Handler) GetTrend(c *gin.Context) {
	segment := customer.Segment(c.Query("segment"))
	if segment != "" && !segment.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_segment",
			"message": "segment must be one of startup, smb, enterprise",
		})
		return
	}

	days := DefaultTrendDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxTrendDays {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_days",
				"message": "days must be an integer between 1 and 90",
			})
			return
		}
		days = parsed
	}

	points, err := h.service.Trend(c.Request.Context(), segment, days, h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "trend_failed",
			"message": "Failed to compute health trend",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":   days,
		"points": points,
	})
}
