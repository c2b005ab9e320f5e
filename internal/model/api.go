package model

import "time"

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// ListResponse is the standard envelope for paginated list endpoints.
type ListResponse struct {
	Data    any          `json:"data"`
	Total   int          `json:"total"`
	HasMore bool         `json:"has_more"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
	Meta    ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
)

// PromptRequest is the body of POST /api/prompt.
type PromptRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// PromptResponse is returned by POST /api/prompt.
type PromptResponse struct {
	Output string   `json:"output"`
	Model  string   `json:"model"`
	Tools  []string `json:"tools_called,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	CacheReady bool   `json:"cache_ready"`
	Uptime     int64  `json:"uptime_seconds"`
}

// CacheStatus reports the state of the derived-metrics cache.
type CacheStatus struct {
	Ready       bool       `json:"ready"`
	LastError   string     `json:"last_error,omitempty"`
	BuiltAt     *time.Time `json:"built_at,omitempty"`
	Builds      int64      `json:"builds"`
	Officers    int        `json:"officers"`
	Departments int        `json:"departments"`
	Incidents   int        `json:"incidents"`
}
