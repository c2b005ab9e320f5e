package mcp

import (
	"context"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/blueline/internal/cache"
	"github.com/ashita-ai/blueline/internal/testutil"
	"github.com/ashita-ai/blueline/internal/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c := cache.New(cache.Config{Gateway: testutil.ThreeOfficers(), Logger: testutil.TestLogger()})
	require.NoError(t, c.Build(context.Background()))
	return New(tools.New(c, nil, testutil.TestLogger()), c, "test", testutil.TestLogger())
}

func toolRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	}
}

func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no TextContent found in tool result")
	return ""
}

func TestToMCPTool(t *testing.T) {
	def := tools.Definition{
		Name:        "list_officers",
		Description: "List officers",
		Params: []tools.Param{
			{Name: "limit", Type: tools.TypeInteger, Description: "Max rows", Minimum: new(int), Default: 50},
			{Name: "first_name", Type: tools.TypeString, Description: "First name", Required: true},
		},
	}
	tool := toMCPTool(def)
	assert.Equal(t, "list_officers", tool.Name)
	assert.Equal(t, "List officers", tool.Description)
	assert.Equal(t, []string{"first_name"}, tool.InputSchema.Required)

	limit, ok := tool.InputSchema.Properties["limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", limit["type"])
	assert.Equal(t, float64(50), limit["default"])
	assert.Equal(t, float64(0), limit["minimum"])

	require.NotNil(t, tool.Annotations.ReadOnlyHint)
	assert.True(t, *tool.Annotations.ReadOnlyHint)
}

func TestToolHandler(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.toolHandler("get_officer_by_employee_id")(ctx, toolRequest("get_officer_by_employee_id", map[string]any{"employee_id": float64(1)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, parseToolText(t, res), "Rivera")

	res, err = s.toolHandler("get_officer_by_employee_id")(ctx, toolRequest("get_officer_by_employee_id", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, parseToolText(t, res), "employee_id")

	res, err = s.toolHandler("list_departments")(ctx, toolRequest("list_departments", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, parseToolText(t, res), "a-1")
}

func TestAllRegistryToolsRegistered(t *testing.T) {
	s := newTestServer(t)
	registered := s.MCPServer().ListTools()
	for _, def := range s.tools.Definitions() {
		assert.Contains(t, registered, def.Name)
	}
}

func TestParseOfficerURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    int64
		wantErr string
	}{
		{uri: "blueline://officer/100001/profile", want: 100001},
		{uri: "blueline://officer//profile", wantErr: "empty employee_id"},
		{uri: "blueline://officer/abc/profile", wantErr: "not an integer"},
		{uri: "blueline://officer/12", wantErr: "invalid officer URI"},
		{uri: "other://officer/12/profile", wantErr: "invalid officer URI"},
		{uri: "", wantErr: "invalid officer URI"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := parseOfficerURI(tt.uri)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	read := func(uri string) mcplib.ReadResourceRequest {
		return mcplib.ReadResourceRequest{Params: mcplib.ReadResourceParams{URI: uri}}
	}

	contents, err := s.handleCacheStatus(ctx, read(uriCacheStatus))
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcplib.TextResourceContents).Text, `"ready": true`)

	contents, err = s.handleDepartments(ctx, read(uriDepartments))
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcplib.TextResourceContents).Text, "b-2")

	contents, err = s.handleOfficerProfile(ctx, read("blueline://officer/3/profile"))
	require.NoError(t, err)
	text := contents[0].(mcplib.TextResourceContents)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"employee_id":3`)

	_, err = s.handleOfficerProfile(ctx, read("blueline://officer/999/profile"))
	require.ErrorContains(t, err, "not found")
}

func TestPrompts(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleOfficerBriefingPrompt(ctx, mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{Name: "officer-briefing", Arguments: map[string]string{"employee_id": "100001"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcplib.RoleUser, res.Messages[0].Role)
	assert.Contains(t, res.Messages[0].Content.(mcplib.TextContent).Text, "get_officer_profile")

	_, err = s.handleOfficerBriefingPrompt(ctx, mcplib.GetPromptRequest{})
	require.Error(t, err)

	res, err = s.handleDistrictOverviewPrompt(ctx, mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{Name: "district-overview", Arguments: map[string]string{"district": "A-1"}},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Description, "A-1")

	_, err = s.handleDistrictOverviewPrompt(ctx, mcplib.GetPromptRequest{})
	require.Error(t, err)
}
