package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all console tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("panopticon", "1.0.0")
	client := NewClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolGetRiskAssessment, h.HandleGetRiskAssessment)
	s.AddTool(ToolExecuteAction, h.HandleExecuteAction)
	s.AddTool(ToolSubmitNoAction, h.HandleSubmitNoAction)
	s.AddTool(ToolGetStanding, h.HandleGetStanding)
	s.AddTool(ToolCheckExposure, h.HandleCheckExposure)
	s.AddTool(ToolListProtests, h.HandleListProtests)
	s.AddTool(ToolListNews, h.HandleListNews)
	s.AddTool(ToolActionHistory, h.HandleActionHistory)

	return s
}
