package agent

import (
	"context"

	"github.com/ashita-ai/blueline/internal/tools"
)

// RegistryClient exposes a tools.Registry as a ToolClient.
type RegistryClient struct {
	Registry *tools.Registry
}

// ListTools converts the registry definitions.
func (c RegistryClient) ListTools(context.Context) ([]Tool, error) {
	defs := c.Registry.Definitions()
	out := make([]Tool, len(defs))
	for i, d := range defs {
		out[i] = Tool{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema()}
	}
	return out, nil
}

// CallToolText runs one tool.
func (c RegistryClient) CallToolText(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	return c.Registry.CallText(ctx, name, args)
}
