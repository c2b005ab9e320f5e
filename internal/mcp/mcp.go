// Package mcp exposes the officer data tools over the Model Context Protocol,
// so MCP clients can query the same data the /api/prompt agent sees.
package mcp

import (
	"context"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/blueline/internal/model"
	"github.com/ashita-ai/blueline/internal/tools"
)

// StatusSource reports cache readiness.
type StatusSource interface {
	Status() model.CacheStatus
}

// ToolRunner is the subset of *tools.Registry the server needs.
type ToolRunner interface {
	Definitions() []tools.Definition
	CallText(ctx context.Context, name string, args map[string]any) (string, bool, error)
}

// Server wraps the mcp-go server.
type Server struct {
	mcpServer *mcpserver.MCPServer
	tools     ToolRunner
	status    StatusSource
	logger    *slog.Logger
}

// New creates an MCP server with every registry tool, the data resources and
// the briefing prompts registered.
func New(runner ToolRunner, status StatusSource, version string, logger *slog.Logger) *Server {
	s := &Server{
		tools:  runner,
		status: status,
		logger: logger,
	}
	s.mcpServer = mcpserver.NewMCPServer(
		"blueline",
		version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithInstructions("Read-only access to Boston Police Department officer, pay and internal-affairs data. Employee ids are integers."),
	)
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.TextContent{Type: "text", Text: text}},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.TextContent{Type: "text", Text: msg}},
		IsError: true,
	}
}
