package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the Pulseboard API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
	APIKey string // Optional bearer token for deployments behind a gateway
}

// PulseboardClient is a pure HTTP client for the Pulseboard API.
type PulseboardClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewPulseboardClient creates a new client for the Pulseboard API.
func NewPulseboardClient(cfg Config) *PulseboardClient {
	return &PulseboardClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *PulseboardClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// GetCustomerHealth returns the scored health breakdown for a customer.
func (c *PulseboardClient) GetCustomerHealth(ctx context.Context, customerID int64) (json.RawMessage, error) {
	path := "/v1/customers/" + strconv.FormatInt(customerID, 10) + "/health"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// ListCustomers lists customers, optionally filtered by segment.
func (c *PulseboardClient) ListCustomers(ctx context.Context, segment string) (json.RawMessage, error) {
	q := url.Values{}
	if segment != "" {
		q.Set("segment", segment)
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/customers", q, nil)
}

// GetHealthSummary returns the portfolio-wide health summary.
func (c *PulseboardClient) GetHealthSummary(ctx context.Context, segment string) (json.RawMessage, error) {
	q := url.Values{}
	if segment != "" {
		q.Set("segment", segment)
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/health/summary", q, nil)
}

// GetHealthTrend returns the daily average score trend.
func (c *PulseboardClient) GetHealthTrend(ctx context.Context, days int, segment string) (json.RawMessage, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if segment != "" {
		q.Set("segment", segment)
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/health/trend", q, nil)
}

// RecordEvent ingests a usage event for a customer.
func (c *PulseboardClient) RecordEvent(ctx context.Context, customerID int64, body map[string]any) (json.RawMessage, error) {
	path := "/v1/customers/" + strconv.FormatInt(customerID, 10) + "/events"
	return c.doRequest(ctx, http.MethodPost, path, nil, body)
}
