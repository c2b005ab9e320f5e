package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	uriCacheStatus     = "blueline://cache/status"
	uriDepartments     = "blueline://departments"
	officerURIPrefix   = "blueline://officer/"
	officerURISuffix   = "/profile"
	officerURITemplate = officerURIPrefix + "{employee_id}" + officerURISuffix
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(uriCacheStatus, "Cache Status",
			mcplib.WithResourceDescription("Readiness and row counts of the derived-metrics cache"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCacheStatus,
	)
	s.mcpServer.AddResource(
		mcplib.NewResource(uriDepartments, "Departments",
			mcplib.WithResourceDescription("Every district with its officers, map position and mapping score"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleDepartments,
	)
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(officerURITemplate, "Officer Profile",
			mcplib.WithTemplateDescription("Full profile of one officer: roster entry, district, pay history, incidents and percentiles"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleOfficerProfile,
	)
}

func (s *Server) handleCacheStatus(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(s.status.Status(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal cache status: %w", err)
	}
	return jsonContents(request.Params.URI, string(data)), nil
}

func (s *Server) handleDepartments(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	text, isErr, err := s.tools.CallText(ctx, "list_departments", map[string]any{"limit": 500})
	if err != nil {
		return nil, fmt.Errorf("mcp: departments: %w", err)
	}
	if isErr {
		return nil, fmt.Errorf("mcp: departments: %s", text)
	}
	return jsonContents(request.Params.URI, text), nil
}

func (s *Server) handleOfficerProfile(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id, err := parseOfficerURI(uri)
	if err != nil {
		return nil, err
	}
	text, isErr, err := s.tools.CallText(ctx, "get_officer_profile", map[string]any{"employee_id": id})
	if err != nil {
		return nil, fmt.Errorf("mcp: officer profile: %w", err)
	}
	if isErr {
		return nil, fmt.Errorf("mcp: officer profile: %s", text)
	}
	if text == "null" {
		return nil, fmt.Errorf("mcp: officer %d not found", id)
	}
	return jsonContents(uri, text), nil
}

// parseOfficerURI extracts the employee id from blueline://officer/{id}/profile.
func parseOfficerURI(uri string) (int64, error) {
	if !strings.HasPrefix(uri, officerURIPrefix) || !strings.HasSuffix(uri, officerURISuffix) {
		return 0, fmt.Errorf("mcp: invalid officer URI: %s", uri)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(uri, officerURIPrefix), officerURISuffix)
	if raw == "" {
		return 0, fmt.Errorf("mcp: invalid officer URI: empty employee_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("mcp: invalid officer URI: employee_id %q is not an integer", raw)
	}
	return id, nil
}

func jsonContents(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{URI: uri, MIMEType: "application/json", Text: text},
	}
}
