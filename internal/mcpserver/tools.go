package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Pulseboard MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolGetCustomerHealth = mcp.NewTool("get_customer_health",
	mcp.WithDescription(
		"Get the current health score for a single customer. "+
			"Returns the 0-100 total, the risk level (healthy/watch/at_risk), and the "+
			"per-factor breakdown (login frequency, feature adoption, support ticket "+
			"volume, invoice timeliness, API usage trend)."),
	mcp.WithNumber("customer_id",
		mcp.Required(),
		mcp.Description("The customer's numeric ID")),
)

var ToolListCustomers = mcp.NewTool("list_customers",
	mcp.WithDescription(
		"List customers with their cached health scores. "+
			"Optionally filter by segment to focus on one part of the portfolio."),
	mcp.WithString("segment",
		mcp.Description("Filter by customer segment"),
		mcp.Enum("startup", "smb", "enterprise")),
)

var ToolGetHealthSummary = mcp.NewTool("get_health_summary",
	mcp.WithDescription(
		"Get a portfolio-wide health summary: average score, how many customers are "+
			"healthy / watch / at risk, per-factor averages, and the five best and five "+
			"worst scoring customers. Use this for questions about overall account health."),
	mcp.WithString("segment",
		mcp.Description("Restrict the summary to one segment"),
		mcp.Enum("startup", "smb", "enterprise")),
)

var ToolGetHealthTrend = mcp.NewTool("get_health_trend",
	mcp.WithDescription(
		"Get the daily average health score over a trailing window, with 25th and "+
			"75th percentiles per day. Use this to see whether the portfolio is "+
			"improving or deteriorating."),
	mcp.WithNumber("days",
		mcp.Description("Trailing window in days, 1-90 (default 30)")),
	mcp.WithString("segment",
		mcp.Description("Restrict the trend to one segment"),
		mcp.Enum("startup", "smb", "enterprise")),
)

var ToolRecordEvent = mcp.NewTool("record_event",
	mcp.WithDescription(
		"Record a usage event for a customer. Events feed the health score: logins, "+
			"feature usage, API call counts, support tickets, and invoice outcomes."),
	mcp.WithNumber("customer_id",
		mcp.Required(),
		mcp.Description("The customer's numeric ID")),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("Event type"),
		mcp.Enum("login", "feature_use", "api_call", "support_ticket_opened", "invoice_paid", "invoice_late")),
	mcp.WithString("feature_key",
		mcp.Description("Feature identifier; required for feature_use events, not allowed otherwise")),
	mcp.WithNumber("value",
		mcp.Description("Call count; required for api_call events, not allowed otherwise")),
	mcp.WithString("ts",
		mcp.Description("Event timestamp in RFC3339 (e.g. '2026-03-01T12:00:00Z'). Defaults to now.")),
)
