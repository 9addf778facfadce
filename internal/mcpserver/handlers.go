package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// factorOrder is the display order for factor breakdowns. Mirrors the
// reporting order used by the scoring API.
var factorOrder = []string{
	"login_frequency",
	"feature_adoption",
	"support_ticket_volume",
	"invoice_timeliness",
	"api_usage_trend",
}

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *PulseboardClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *PulseboardClient) *Handlers {
	return &Handlers{client: client}
}

// HandleGetCustomerHealth returns a customer's scored breakdown.
func (h *Handlers) HandleGetCustomerHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID := req.GetInt("customer_id", 0)
	if customerID <= 0 {
		return mcp.NewToolResultError("customer_id is required and must be positive"), nil
	}

	raw, err := h.client.GetCustomerHealth(ctx, int64(customerID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get health: %v", err)), nil
	}

	text, err := formatHealth(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse health: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleListCustomers lists customers with cached scores.
func (h *Handlers) HandleListCustomers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	segment := req.GetString("segment", "")

	raw, err := h.client.ListCustomers(ctx, segment)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list customers: %v", err)), nil
	}

	text, err := formatCustomerList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse customers: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetHealthSummary returns the portfolio summary.
func (h *Handlers) HandleGetHealthSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	segment := req.GetString("segment", "")

	raw, err := h.client.GetHealthSummary(ctx, segment)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get summary: %v", err)), nil
	}

	text, err := formatSummary(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse summary: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetHealthTrend returns the daily score trend.
func (h *Handlers) HandleGetHealthTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 0)
	segment := req.GetString("segment", "")

	raw, err := h.client.GetHealthTrend(ctx, days, segment)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get trend: %v", err)), nil
	}

	text, err := formatTrend(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse trend: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleRecordEvent ingests a usage event.
func (h *Handlers) HandleRecordEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID := req.GetInt("customer_id", 0)
	if customerID <= 0 {
		return mcp.NewToolResultError("customer_id is required and must be positive"), nil
	}
	eventType := req.GetString("type", "")
	if eventType == "" {
		return mcp.NewToolResultError("type is required"), nil
	}

	body := map[string]any{"type": eventType}
	if v := req.GetString("feature_key", ""); v != "" {
		body["featureKey"] = v
	}
	if args := req.GetArguments(); args["value"] != nil {
		body["value"] = args["value"]
	}
	if v := req.GetString("ts", ""); v != "" {
		body["ts"] = v
	}

	raw, err := h.client.RecordEvent(ctx, int64(customerID), body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to record event: %v", err)), nil
	}

	var resp struct {
		Event struct {
			ID        int64  `json:"id"`
			Type      string `json:"type"`
			Timestamp string `json:"ts"`
		} `json:"event"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Event.ID == 0 {
		return mcp.NewToolResultText("Event recorded."), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Event recorded.\n  ID: %d\n  Customer: %d\n  Type: %s\n  At: %s",
		resp.Event.ID, customerID, resp.Event.Type, resp.Event.Timestamp)), nil
}

// --- Formatting helpers ---

type healthBreakdown struct {
	CustomerID int64              `json:"customerId"`
	Total      float64            `json:"total"`
	Risk       string             `json:"risk"`
	Factors    map[string]float64 `json:"factors"`
	ComputedAt string             `json:"computedAt"`
}

func formatHealth(raw json.RawMessage) (string, error) {
	var resp struct {
		Health healthBreakdown `json:"health"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	bd := resp.Health

	var sb strings.Builder
	fmt.Fprintf(&sb, "Customer %d health: %.1f/100 (%s)\n\n", bd.CustomerID, bd.Total, bd.Risk)
	sb.WriteString("Factors:\n")
	for _, name := range factorOrder {
		if v, ok := bd.Factors[name]; ok {
			fmt.Fprintf(&sb, "  %-22s %.1f\n", name, v)
		}
	}
	if bd.ComputedAt != "" {
		fmt.Fprintf(&sb, "\nComputed at: %s", bd.ComputedAt)
	}
	return sb.String(), nil
}

type customerRow struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Segment     string  `json:"segment"`
	Seats       int     `json:"seats"`
	Active      bool    `json:"active"`
	HealthScore float64 `json:"healthScore"`
}

func formatCustomerList(raw json.RawMessage) (string, error) {
	var resp struct {
		Customers []customerRow `json:"customers"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if len(resp.Customers) == 0 {
		return "No customers found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d customer(s):\n\n", len(resp.Customers))
	for _, c := range resp.Customers {
		fmt.Fprintf(&sb, "%d. %s\n", c.ID, c.Name)
		fmt.Fprintf(&sb, "   Segment: %s | Seats: %d | Score: %.1f\n", c.Segment, c.Seats, c.HealthScore)
		if !c.Active {
			sb.WriteString("   (inactive)\n")
		}
	}
	return sb.String(), nil
}

type rankedRow struct {
	CustomerID int64   `json:"customerId"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Risk       string  `json:"risk"`
}

func formatSummary(raw json.RawMessage) (string, error) {
	var resp struct {
		Summary struct {
			TotalCustomers   int     `json:"totalCustomers"`
			AverageScore     float64 `json:"averageScore"`
			RiskDistribution struct {
				Healthy int `json:"healthy"`
				Watch   int `json:"watch"`
				AtRisk  int `json:"at_risk"`
			} `json:"riskDistribution"`
			AverageFactors map[string]float64 `json:"averageFactors"`
			Top5           []rankedRow        `json:"top5"`
			Bottom5        []rankedRow        `json:"bottom5"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	s := resp.Summary

	if s.TotalCustomers == 0 {
		return "No customers in the portfolio.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Portfolio health (%d customers):\n", s.TotalCustomers)
	fmt.Fprintf(&sb, "  Average score: %.1f\n", s.AverageScore)
	fmt.Fprintf(&sb, "  Healthy: %d | Watch: %d | At risk: %d\n\n",
		s.RiskDistribution.Healthy, s.RiskDistribution.Watch, s.RiskDistribution.AtRisk)

	sb.WriteString("Factor averages:\n")
	for _, name := range factorOrder {
		if v, ok := s.AverageFactors[name]; ok {
			fmt.Fprintf(&sb, "  %-22s %.1f\n", name, v)
		}
	}

	if len(s.Top5) > 0 {
		sb.WriteString("\nTop customers:\n")
		for _, r := range s.Top5 {
			fmt.Fprintf(&sb, "  %s (#%d): %.1f (%s)\n", r.Name, r.CustomerID, r.Score, r.Risk)
		}
	}
	if len(s.Bottom5) > 0 {
		sb.WriteString("\nBottom customers:\n")
		for _, r := range s.Bottom5 {
			fmt.Fprintf(&sb, "  %s (#%d): %.1f (%s)\n", r.Name, r.CustomerID, r.Score, r.Risk)
		}
	}
	return sb.String(), nil
}

func formatTrend(raw json.RawMessage) (string, error) {
	var resp struct {
		Days   int `json:"days"`
		Points []struct {
			Date      string   `json:"date"`
			Avg       *float64 `json:"avg"`
			P25       *float64 `json:"p25"`
			P75       *float64 `json:"p75"`
			Customers int      `json:"customers"`
		} `json:"points"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if len(resp.Points) == 0 {
		return "No trend data available.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily average health score, last %d day(s):\n\n", resp.Days)
	for _, p := range resp.Points {
		if p.Avg == nil {
			fmt.Fprintf(&sb, "  %s  (no customers)\n", p.Date)
			continue
		}
		fmt.Fprintf(&sb, "  %s  avg %.1f  p25 %.1f  p75 %.1f  (%d customers)\n",
			p.Date, *p.Avg, *p.P25, *p.P75, p.Customers)
	}
	return sb.String(), nil
}
