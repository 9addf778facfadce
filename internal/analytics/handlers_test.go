package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/customer"
	"github.com/pulseboard/pulseboard/internal/event"
	"github.com/pulseboard/pulseboard/internal/scoring"
)

func newTestRouter(t *testing.T) (*gin.Engine, *customer.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	customers := customer.NewMemoryStore()
	events := event.NewMemoryStore()
	svc := NewService(customers, scoring.NewEngine(events))
	h := NewHandler(svc).WithClock(func() time.Time { return asOf })

	r := gin.New()
	h.RegisterRoutes(r.Group("/v1"))
	return r, customers
}

func TestGetSummary(t *testing.T) {
	r, customers := newTestRouter(t)
	require.NoError(t, customers.Create(context.Background(),
		&customer.Customer{Name: "Acme", Segment: customer.SegmentSMB, Seats: 10, Active: true}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/health/summary", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary struct {
			TotalCustomers   int     `json:"totalCustomers"`
			AverageScore     float64 `json:"averageScore"`
			RiskDistribution struct {
				Watch int `json:"watch"`
			} `json:"riskDistribution"`
			Top5 []struct {
				CustomerID int64   `json:"customerId"`
				Score      float64 `json:"score"`
			} `json:"top5"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 1, body.Summary.TotalCustomers)
	assert.Equal(t, 42.5, body.Summary.AverageScore)
	assert.Equal(t, 1, body.Summary.RiskDistribution.Watch)
	require.Len(t, body.Summary.Top5, 1)
	assert.Equal(t, 42.5, body.Summary.Top5[0].Score)
}

func TestGetSummary_InvalidSegment(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/health/summary?segment=galactic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_segment")
}

func TestGetTrend(t *testing.T) {
	r, customers := newTestRouter(t)
	require.NoError(t, customers.Create(context.Background(),
		&customer.Customer{Name: "Acme", Segment: customer.SegmentSMB, Seats: 10, Active: true}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/health/trend?days=7", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Days   int `json:"days"`
		Points []struct {
			Date      string   `json:"date"`
			Avg       *float64 `json:"avg"`
			Customers int      `json:"customers"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 7, body.Days)
	require.Len(t, body.Points, 7)
	assert.Equal(t, "2026-03-01", body.Points[6].Date)
	require.NotNil(t, body.Points[0].Avg)
}

func TestGetTrend_DefaultDays(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/health/trend", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Days int `json:"days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, DefaultTrendDays, body.Days)
}

func TestGetTrend_DaysValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, raw := range []string{"0", "-5", "91", "abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/v1/health/trend?days="+raw, nil)
		r.ServeHTTP(w, req)

		assert.Equalf(t, http.StatusBadRequest, w.Code, "days=%s", raw)
	}
}
