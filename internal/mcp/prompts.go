package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("officer-briefing",
			mcplib.WithPromptDescription("Summarize one officer's record: district, pay trend, overtime and complaints"),
			mcplib.WithArgument("employee_id",
				mcplib.ArgumentDescription("Integer employee id of the officer"),
				mcplib.RequiredArgument(),
			),
		),
		s.handleOfficerBriefingPrompt,
	)
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("district-overview",
			mcplib.WithPromptDescription("Compare the officers assigned to one police district"),
			mcplib.WithArgument("district",
				mcplib.ArgumentDescription("District name or code, e.g. A-1 or Boston Police District B-2"),
				mcplib.RequiredArgument(),
			),
		),
		s.handleDistrictOverviewPrompt,
	)
}

func (s *Server) handleOfficerBriefingPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	id := request.Params.Arguments["employee_id"]
	if id == "" {
		return nil, fmt.Errorf("employee_id argument is required")
	}
	return userPrompt(
		fmt.Sprintf("Briefing for officer %s", id),
		fmt.Sprintf(`Prepare a short briefing on officer %s.

1. CALL get_officer_profile with employee_id=%s.
2. If the result is null, say the officer is not in the data and stop.
3. Report name, rank, district and the latest year of pay.
4. Describe the pay trend across years and the overtime ratio percentile.
5. List internal-affairs incidents with allegation, finding and action taken.

Use only figures returned by the tools.`, id, id),
	), nil
}

func (s *Server) handleDistrictOverviewPrompt(_ context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	district := request.Params.Arguments["district"]
	if district == "" {
		return nil, fmt.Errorf("district argument is required")
	}
	return userPrompt(
		fmt.Sprintf("Overview of district %s", district),
		fmt.Sprintf(`Give an overview of police district %q.

1. CALL list_departments and find the entry matching %q.
2. Report how many officers are assigned and the mapping score.
3. Name the officers with the highest overtime ratio and complaint percentiles.

Use only figures returned by the tools.`, district, district),
	), nil
}

func userPrompt(description, text string) *mcplib.GetPromptResult {
	return &mcplib.GetPromptResult{
		Description: description,
		Messages: []mcplib.PromptMessage{{
			Role:    mcplib.RoleUser,
			Content: mcplib.TextContent{Type: "text", Text: text},
		}},
	}
}
