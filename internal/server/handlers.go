package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ashita-ai/blueline/internal/agent"
	"github.com/ashita-ai/blueline/internal/model"
)

const (
	defaultOfficerLimit = 50
	maxListLimit        = 500
	maxPromptLength     = 4000
)

// DataSource is the read surface of the derived-metrics cache.
type DataSource interface {
	EnsureReady(ctx context.Context) bool
	Ready() bool
	Status() model.CacheStatus
	Refresh(ctx context.Context) error
	Officers(ctx context.Context) []model.Officer
	Departments(ctx context.Context) []model.Department
	Department(ctx context.Context, slug string) (model.Department, bool)
	Profile(ctx context.Context, id int64) (model.OfficerProfile, bool)
}

// PromptRunner answers natural-language prompts.
type PromptRunner interface {
	Prompt(ctx context.Context, model, prompt string) (*agent.RunResult, string, error)
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	data                DataSource
	prompts             PromptRunner
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	maxDelay            time.Duration
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Prompts may be nil, which disables /api/prompt.
type HandlersDeps struct {
	Data                DataSource
	Prompts             PromptRunner
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	MaxDelay            time.Duration
}

// NewHandlers creates Handlers.
func NewHandlers(d HandlersDeps) *Handlers {
	if d.MaxRequestBodyBytes <= 0 {
		d.MaxRequestBodyBytes = 64 * 1024
	}
	return &Handlers{
		data:                d.Data,
		prompts:             d.Prompts,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		maxDelay:            d.MaxDelay,
	}
}

// HandleRoot handles GET /. It is a plain-text liveness probe.
func (h *Handlers) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("alive"))
}

// HandleHealth handles GET /health. The process is alive whether or not the
// cache has been built; cache_ready tells the two apart.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:     "alive",
		Version:    h.version,
		CacheReady: h.data.Ready(),
		Uptime:     int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleCacheStatus handles GET /api/cache/status.
func (h *Handlers) HandleCacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.data.Status())
}

// HandleCacheRefresh handles POST /api/cache/refresh. A failed refresh keeps
// serving the previous snapshot.
func (h *Handlers) HandleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.data.Refresh(r.Context()); err != nil {
		h.logger.Error("cache refresh failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusBadGateway, model.ErrCodeUpstream, "cache refresh failed: "+err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, h.data.Status())
}

// HandlePrompt handles POST /api/prompt.
func (h *Handlers) HandlePrompt(w http.ResponseWriter, r *http.Request) {
	if h.prompts == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "no model provider is configured")
		return
	}

	var req model.PromptRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "prompt is required")
		return
	}
	if len(req.Prompt) > maxPromptLength {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "prompt must be at most "+strconv.Itoa(maxPromptLength)+" bytes")
		return
	}
	if !h.data.EnsureReady(r.Context()) {
		writeUnavailable(w, r)
		return
	}

	res, provider, err := h.prompts.Prompt(r.Context(), req.Model, req.Prompt)
	switch {
	case err == nil:
	case errors.Is(err, agent.ErrUnknownProvider), errors.Is(err, agent.ErrProviderUnavailable):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, model.ErrCodeUpstream, "model request timed out")
		return
	default:
		h.logger.Error("prompt failed", "provider", provider, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, r, http.StatusBadGateway, model.ErrCodeUpstream, "model provider error")
		return
	}

	writeJSON(w, r, http.StatusOK, model.PromptResponse{
		Output: res.FinalText,
		Model:  provider,
		Tools:  res.ToolsCalled,
	})
}

// queryInt parses an integer query parameter. Absent yields def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

// queryLimit parses limit: absent yields def, otherwise 1..maxListLimit.
func queryLimit(r *http.Request, def int) (int, error) {
	limit, err := queryInt(r, "limit", def)
	if err != nil {
		return 0, err
	}
	if limit < 0 || (limit == 0 && r.URL.Query().Has("limit")) {
		return 0, errors.New("limit must be at least 1")
	}
	return min(limit, maxListLimit), nil
}

func queryOffset(r *http.Request) (int, error) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, errors.New("offset must not be negative")
	}
	return offset, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
