// Package tools provides shared types and helpers for registering MCP tools
// on an MCP server instance.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration pairs an MCP tool definition with its handler function.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll adds every registration to s and returns the number added.
// Later registrations with a duplicate tool name replace earlier ones.
func RegisterAll(s *server.MCPServer, groups ...[]Registration) int {
	n := 0
	for _, regs := range groups {
		for _, r := range regs {
			s.AddTool(r.Tool, r.Handler)
			n++
		}
	}
	return n
}
