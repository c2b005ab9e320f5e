// Package tools implements the data-access tools offered to language models.
// The same registry backs the agent loop behind /api/prompt and the MCP
// server, so both surfaces expose identical names, schemas and results.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/blueline/internal/coerce"
	"github.com/ashita-ai/blueline/internal/model"
	"github.com/ashita-ai/blueline/internal/telemetry"
)

var (
	// ErrUnknownTool is returned for a tool name outside the registry.
	ErrUnknownTool = errors.New("tools: unknown tool")
	// ErrInvalidArgument is returned when an argument is missing or malformed.
	ErrInvalidArgument = errors.New("tools: invalid argument")
)

// maxLimit caps every limit argument.
const maxLimit = 500

// ParamType is the JSON schema type of a tool argument.
type ParamType string

const (
	TypeInteger ParamType = "integer"
	TypeString  ParamType = "string"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Minimum     *int
	Default     any
}

// Definition describes one tool.
type Definition struct {
	Name        string
	Description string
	Params      []Param
}

// InputSchema renders the arguments as a JSON schema object.
func (d Definition) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Params))
	required := []string{}
	for _, p := range d.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Source is the read surface of the derived-metrics cache.
type Source interface {
	EnsureReady(ctx context.Context) bool
	Officer(ctx context.Context, id int64) (model.Officer, bool)
	Officers(ctx context.Context) []model.Officer
	District(ctx context.Context, id int64) (model.DistrictAssignment, bool)
	Compensation(ctx context.Context, id int64) []model.Compensation
	AllCompensation(ctx context.Context) []model.Compensation
	Incidents(ctx context.Context, id int64) []model.Incident
	AllIncidents(ctx context.Context) []model.Incident
	Departments(ctx context.Context) []model.Department
	DepartmentForDistrict(ctx context.Context, district string) (model.Department, bool)
	Profile(ctx context.Context, id int64) (model.OfficerProfile, bool)
}

// Querier runs filtered queries against the database. When a Registry has
// no Querier, or a query fails, the same filter runs over the cache.
type Querier interface {
	FindOfficersByName(ctx context.Context, firstName, lastName string, limit int) ([]model.Officer, error)
	ListOfficers(ctx context.Context, limit, offset int) ([]model.Officer, error)
	CompensationByYear(ctx context.Context, year, limit int) ([]model.Compensation, error)
	IncidentsByYear(ctx context.Context, year, limit int) ([]model.Incident, error)
}

type handler func(ctx context.Context, args map[string]any) (any, error)

type tool struct {
	def Definition
	fn  handler
}

// Registry holds the tool set.
type Registry struct {
	source  Source
	querier Querier
	logger  *slog.Logger
	tools   []tool
	byName  map[string]int

	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates the registry. querier may be nil.
func New(source Source, querier Querier, logger *slog.Logger) *Registry {
	meter := telemetry.Meter("blueline/tools")
	calls, _ := meter.Int64Counter("blueline.tool.calls",
		metric.WithDescription("Data tool invocations by tool and outcome"),
	)
	duration, _ := meter.Float64Histogram("blueline.tool.duration",
		metric.WithDescription("Data tool latency (ms)"),
		metric.WithUnit("ms"),
	)

	r := &Registry{
		source:   source,
		querier:  querier,
		logger:   logger,
		byName:   make(map[string]int),
		calls:    calls,
		duration: duration,
	}
	r.register()
	return r
}

func (r *Registry) add(def Definition, fn handler) {
	r.byName[def.Name] = len(r.tools)
	r.tools = append(r.tools, tool{def: def, fn: fn})
}

// Definitions returns every tool definition in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.def
	}
	return out
}

// Call runs the named tool. Results are plain values ready for JSON encoding;
// a lookup that finds nothing returns nil.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	result, err := r.tools[idx].fn(ctx, args)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("tool", name), attribute.String("outcome", outcome))
	r.calls.Add(ctx, 1, attrs)
	r.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)

	if err != nil {
		r.logger.Warn("tools: call failed", "tool", name, "error", err)
		return nil, err
	}
	r.logger.Debug("tools: call complete", "tool", name, "duration_ms", elapsed.Milliseconds())
	return result, nil
}

// CallText runs the named tool and renders the result as JSON text. Tool
// failures are reported through isError with the message as text, so the
// caller can hand them back to the model.
func (r *Registry) CallText(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	result, err := r.Call(ctx, name, args)
	if err != nil {
		return err.Error(), true, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", false, fmt.Errorf("tools: encode %s result: %w", name, err)
	}
	return string(data), false, nil
}

func intArg(args map[string]any, name string, def int, required bool) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		if required {
			return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
		}
		return def, nil
	}
	n, ok := coerce.ID(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, name)
	}
	return int(n), nil
}

func limitArg(args map[string]any, def int) (int, error) {
	limit, err := intArg(args, "limit", def, false)
	if err != nil {
		return 0, err
	}
	if limit < 1 {
		return 0, fmt.Errorf("%w: limit must be at least 1", ErrInvalidArgument)
	}
	return min(limit, maxLimit), nil
}

func stringArg(args map[string]any, name string) string {
	return coerce.String(args[name])
}

func intPtr(v int) *int { return &v }
