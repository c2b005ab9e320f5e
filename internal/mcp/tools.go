package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/blueline/internal/tools"
)

func (s *Server) registerTools() {
	for _, def := range s.tools.Definitions() {
		s.mcpServer.AddTool(toMCPTool(def), s.toolHandler(def.Name))
	}
}

// toMCPTool renders a registry definition. Integer arguments are declared as
// JSON numbers; the registry truncates them.
func toMCPTool(def tools.Definition) mcplib.Tool {
	opts := []mcplib.ToolOption{
		mcplib.WithDescription(def.Description),
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithIdempotentHintAnnotation(true),
		mcplib.WithOpenWorldHintAnnotation(false),
	}
	for _, p := range def.Params {
		propOpts := []mcplib.PropertyOption{mcplib.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcplib.Required())
		}
		switch p.Type {
		case tools.TypeInteger:
			if p.Minimum != nil {
				propOpts = append(propOpts, mcplib.Min(float64(*p.Minimum)))
			}
			if d, ok := p.Default.(int); ok {
				propOpts = append(propOpts, mcplib.DefaultNumber(float64(d)))
			}
			opts = append(opts, mcplib.WithNumber(p.Name, propOpts...))
		default:
			if d, ok := p.Default.(string); ok {
				propOpts = append(propOpts, mcplib.DefaultString(d))
			}
			opts = append(opts, mcplib.WithString(p.Name, propOpts...))
		}
	}
	return mcplib.NewTool(def.Name, opts...)
}

func (s *Server) toolHandler(name string) func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		text, isErr, err := s.tools.CallText(ctx, name, request.GetArguments())
		if err != nil {
			s.logger.Error("mcp: tool failed", "tool", name, "error", err)
			return errorResult(fmt.Sprintf("%s failed: %v", name, err)), nil
		}
		if isErr {
			return errorResult(text), nil
		}
		return textResult(text), nil
	}
}
