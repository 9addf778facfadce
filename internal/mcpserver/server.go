package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all Pulseboard tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("pulseboard", "1.0.0")
	client := NewPulseboardClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolGetCustomerHealth, h.HandleGetCustomerHealth)
	s.AddTool(ToolListCustomers, h.HandleListCustomers)
	s.AddTool(ToolGetHealthSummary, h.HandleGetHealthSummary)
	s.AddTool(ToolGetHealthTrend, h.HandleGetHealthTrend)
	s.AddTool(ToolRecordEvent, h.HandleRecordEvent)

	return s
}
