package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/scoring"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:               "0",
		Env:                "development",
		LogLevel:           "error",
		LogFormat:          "text",
		Weights:            scoring.DefaultWeights,
		Thresholds:         scoring.DefaultThresholds,
		FeatureCatalogSize: scoring.DefaultFeatureCatalogSize,
		SnapshotInterval:   time.Minute,
		RateLimitRPS:       1000,
		AllowedOrigins:     "*",
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	// Unrouted paths get gin's plain-text 404, not JSON.
	var resp map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, resp := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])

	w, resp = doJSON(t, s, http.MethodGet, "/healthz/live", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", resp["status"])

	// Not ready until Run has started.
	w, _ = doJSON(t, s, http.MethodGet, "/healthz/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pulseboard_")
}

func TestCustomerScoringFlow(t *testing.T) {
	s := newTestServer(t)

	// Create a customer.
	w, resp := doJSON(t, s, http.MethodPost, "/v1/customers",
		`{"name": "Acme Robotics", "segment": "smb", "seats": 25}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cust := resp["customer"].(map[string]any)
	id := int64(cust["id"].(float64))
	require.Positive(t, id)

	// Record a login for it.
	ts := time.Now().UTC().Format(time.RFC3339)
	w, _ = doJSON(t, s, http.MethodPost, fmt.Sprintf("/v1/customers/%d/events", id),
		fmt.Sprintf(`{"type": "login", "ts": %q}`, ts))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Health endpoint returns a full breakdown.
	w, resp = doJSON(t, s, http.MethodGet, fmt.Sprintf("/v1/customers/%d/health", id), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	bd := resp["health"].(map[string]any)
	assert.EqualValues(t, id, bd["customerId"])
	assert.Contains(t, []string{"healthy", "watch", "at_risk"}, bd["risk"])
	factors := bd["factors"].(map[string]any)
	assert.Len(t, factors, 5)

	// Listing refreshes cached scores.
	w, resp = doJSON(t, s, http.MethodGet, "/v1/customers", "")
	require.Equal(t, http.StatusOK, w.Code)
	customers := resp["customers"].([]any)
	require.Len(t, customers, 1)
	assert.Greater(t, customers[0].(map[string]any)["healthScore"].(float64), 0.0)
}

func TestAnalyticsRoutes(t *testing.T) {
	s := newTestServer(t)

	w, resp := doJSON(t, s, http.MethodPost, "/v1/customers",
		`{"name": "Globex", "segment": "startup", "seats": 8}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	_ = resp

	w, resp = doJSON(t, s, http.MethodGet, "/v1/health/summary", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := resp["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["totalCustomers"])

	w, resp = doJSON(t, s, http.MethodGet, "/v1/health/trend?days=7", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 7, resp["days"])
	assert.Len(t, resp["points"].([]any), 7)

	w, _ = doJSON(t, s, http.MethodGet, "/v1/health/trend?days=500", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidIDRejectedEarly(t *testing.T) {
	s := newTestServer(t)

	w, resp := doJSON(t, s, http.MethodGet, "/v1/customers/banana/health", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", resp["error"])
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// Upstream-provided IDs pass through.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-12345")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "req-12345", w.Header().Get("X-Request-ID"))
}

func TestWebhookRouteOnlyWithSecret(t *testing.T) {
	s := newTestServer(t)

	w, _ := doJSON(t, s, http.MethodPost, "/webhooks/stripe", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cfg := &config.Config{
		Port:                "0",
		Env:                 "development",
		LogLevel:            "error",
		LogFormat:           "text",
		Weights:             scoring.DefaultWeights,
		Thresholds:          scoring.DefaultThresholds,
		FeatureCatalogSize:  scoring.DefaultFeatureCatalogSize,
		SnapshotInterval:    time.Minute,
		RateLimitRPS:        1000,
		AllowedOrigins:      "*",
		StripeWebhookSecret: "whsec_test",
	}
	withBilling, err := New(cfg)
	require.NoError(t, err)

	// Unsigned delivery is rejected, not unrouted.
	w, _ = doJSON(t, withBilling, http.MethodPost, "/webhooks/stripe", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
