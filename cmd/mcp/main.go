// Panopticon MCP Server - Exposes the operator console as MCP tools for LLMs
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/danverh/panopticon/internal/mcpserver"
)

func main() {
	cfg := mcpserver.Config{
		APIURL:     envOrDefault("PANOPTICON_API_URL", "http://localhost:8080"),
		OperatorID: os.Getenv("PANOPTICON_OPERATOR_ID"),
	}

	if cfg.OperatorID == "" {
		fmt.Fprintln(os.Stderr, "PANOPTICON_OPERATOR_ID is required")
		os.Exit(1)
	}

	s := mcpserver.NewMCPServer(cfg)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
