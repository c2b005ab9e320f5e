// Package agent runs the natural-language query loop behind /api/prompt: the
// model is offered the data tools, every tool call it makes is executed and
// fed back, and the loop ends when the model answers in plain text or the
// round limit is reached.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/blueline/internal/telemetry"
)

const defaultMaxRounds = 6

// DefaultFinalizationPrompt is injected on the last round.
const DefaultFinalizationPrompt = "You have reached the tool call limit. Answer the question now using only the data you already retrieved. Do not call any more tools."

// ErrMaxRounds is returned when the model keeps calling tools past the limit
// and never produces text.
var ErrMaxRounds = errors.New("agent: exceeded maximum rounds")

// Message is one provider-specific conversation turn.
type Message interface {
	ToParam() any
}

// Response is one model reply.
type Response interface {
	Content() []ContentBlock
	ToMessage() Message
}

// ContentBlock is one piece of a model reply: text or a tool call.
type ContentBlock interface {
	AsText() (string, bool)
	AsToolUse() (id, name string, input []byte, ok bool)
}

// Tool is a tool offered to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolUse is one tool call requested by the model.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult is the outcome of one ToolUse.
type ToolResult struct {
	ID      string
	Content string
	IsError bool
}

// LLMClient adapts one model provider to the loop.
type LLMClient interface {
	Call(ctx context.Context, messages []Message, tools []Tool) (Response, error)
	ConvertToolResults(toolUses []ToolUse, results []ToolResult) ([]Message, error)
	CreateUserMessage(content string) Message
}

// ToolClient lists and executes tools.
type ToolClient interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallToolText(ctx context.Context, name string, args map[string]any) (string, bool, error)
}

// RunResult is the outcome of one Run.
type RunResult struct {
	FinalText   string
	ToolsCalled []string
	Rounds      int
}

// Config is the configuration for an Agent.
type Config struct {
	Logger             *slog.Logger
	LLM                LLMClient
	ToolClient         ToolClient
	MaxRounds          int
	FinalizationPrompt string
}

// Validate checks required fields and fills defaults.
func (cfg *Config) Validate() error {
	if cfg.LLM == nil {
		return errors.New("agent: LLM is required")
	}
	if cfg.ToolClient == nil {
		return errors.New("agent: tool client is required")
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.MaxRounds < 0 {
		return errors.New("agent: max rounds must be greater than 0")
	}
	if cfg.FinalizationPrompt == "" {
		cfg.FinalizationPrompt = DefaultFinalizationPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return nil
}

// Agent is a tool-calling loop over one LLMClient.
type Agent struct {
	log    *slog.Logger
	cfg    Config
	tracer trace.Tracer
}

// New creates an Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Agent{log: cfg.Logger, cfg: cfg, tracer: telemetry.Tracer("blueline/agent")}, nil
}

// Run answers prompt, calling tools as the model requests.
func (a *Agent) Run(ctx context.Context, prompt string) (*RunResult, error) {
	ctx, span := a.tracer.Start(ctx, "agent.run")
	defer span.End()

	tools, err := a.cfg.ToolClient.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: list tools: %w", err)
	}

	msgs := []Message{a.cfg.LLM.CreateUserMessage(prompt)}
	result := &RunResult{}

	for round := range a.cfg.MaxRounds {
		roundNum := round + 1
		result.Rounds = roundNum
		isLastRound := roundNum == a.cfg.MaxRounds
		a.log.Debug("agent: starting round", "round", roundNum, "max_rounds", a.cfg.MaxRounds)

		// Tool definitions stay on the final round: the history already holds
		// tool_use blocks, which providers reject without them. Any further
		// calls are ignored below.
		if isLastRound && round > 0 {
			msgs = append(msgs, a.cfg.LLM.CreateUserMessage(a.cfg.FinalizationPrompt))
		}

		resp, err := a.cfg.LLM.Call(ctx, msgs, tools)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("agent: model call: %w", err)
		}
		msgs = append(msgs, resp.ToMessage())

		toolUses := extractToolUses(resp.Content())
		if len(toolUses) == 0 || isLastRound {
			result.FinalText = collectText(resp.Content())
			if result.FinalText == "" && len(toolUses) > 0 {
				return nil, fmt.Errorf("%w (%d)", ErrMaxRounds, a.cfg.MaxRounds)
			}
			span.SetAttributes(
				attribute.Int("agent.rounds", roundNum),
				attribute.Int("agent.tool_calls", len(result.ToolsCalled)),
			)
			a.log.Info("agent: run complete", "rounds", roundNum, "tool_calls", len(result.ToolsCalled))
			return result, nil
		}

		for _, tu := range toolUses {
			result.ToolsCalled = append(result.ToolsCalled, tu.Name)
		}
		a.log.Info("agent: executing tool calls", "round", roundNum, "count", len(toolUses))

		toolResults := a.executeTools(ctx, toolUses)
		resultMsgs, err := a.cfg.LLM.ConvertToolResults(toolUses, toolResults)
		if err != nil {
			return nil, fmt.Errorf("agent: convert tool results: %w", err)
		}
		msgs = append(msgs, resultMsgs...)
	}

	return nil, fmt.Errorf("%w (%d)", ErrMaxRounds, a.cfg.MaxRounds)
}

func collectText(content []ContentBlock) string {
	var b strings.Builder
	for _, blk := range content {
		if text, ok := blk.AsText(); ok && text != "" {
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}

// extractToolUses skips tool calls whose input is not a JSON object.
func extractToolUses(content []ContentBlock) []ToolUse {
	var toolUses []ToolUse
	for _, blk := range content {
		id, name, inputBytes, ok := blk.AsToolUse()
		if !ok || id == "" || name == "" {
			continue
		}
		var input map[string]any
		if len(inputBytes) > 0 {
			if err := json.Unmarshal(inputBytes, &input); err != nil {
				continue
			}
		}
		toolUses = append(toolUses, ToolUse{ID: id, Name: name, Input: input})
	}
	return toolUses
}

// executeTools runs tool calls in parallel; results keep the call order.
func (a *Agent) executeTools(ctx context.Context, toolUses []ToolUse) []ToolResult {
	results := make([]ToolResult, len(toolUses))
	var wg sync.WaitGroup
	for i, tu := range toolUses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, isErr, err := a.cfg.ToolClient.CallToolText(ctx, tu.Name, tu.Input)
			switch {
			case err != nil:
				a.log.Error("agent: tool execution error", "tool", tu.Name, "error", err)
				results[i] = ToolResult{ID: tu.ID, Content: fmt.Sprintf("Error: %v", err), IsError: true}
			case isErr:
				results[i] = ToolResult{ID: tu.ID, Content: "Error: " + out, IsError: true}
			default:
				results[i] = ToolResult{ID: tu.ID, Content: out}
			}
		}()
	}
	wg.Wait()
	return results
}
