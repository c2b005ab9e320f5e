package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/blueline/internal/model"
	"github.com/ashita-ai/blueline/internal/ratelimit"
)

// Server is the blueline HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Prompts, Limiter, MCPServer.
type ServerConfig struct {
	// Required dependencies.
	Data   DataSource
	Logger *slog.Logger

	// Optional dependencies (nil = disabled).
	Prompts   PromptRunner
	Limiter   ratelimit.Limiter
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
	MaxDelay            time.Duration
	CORSAllowedOrigins  []string
	AdminToken          string
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Data:                cfg.Data,
		Prompts:             cfg.Prompts,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MaxDelay:            cfg.MaxDelay,
	})

	promptRL := ratelimit.Middleware(cfg.Limiter, "prompt", ratelimit.IPKeyFunc, writeRateLimited, cfg.Logger)

	mux := http.NewServeMux()

	// Liveness.
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Data endpoints.
	mux.HandleFunc("GET /api/departments", h.HandleListDepartments)
	mux.HandleFunc("GET /api/departments/{id}", h.HandleGetDepartment)
	mux.HandleFunc("GET /api/officers", h.HandleListOfficers)
	mux.HandleFunc("GET /api/officers/{employee_id}", h.HandleGetOfficer)

	// Natural-language queries (rate limited per client IP).
	mux.Handle("POST /api/prompt", promptRL(http.HandlerFunc(h.HandlePrompt)))

	// Cache administration.
	mux.HandleFunc("GET /api/cache/status", h.HandleCacheStatus)
	mux.Handle("POST /api/cache/refresh", requireAdminToken(cfg.AdminToken, http.HandlerFunc(h.HandleCacheRefresh)))

	// MCP StreamableHTTP transport.
	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	// Middleware chain (outermost executes first):
	// request ID → security headers → CORS → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = corsMiddleware(cfg.CORSAllowedOrigins, handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve serves on an existing listener. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server starting", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited, "too many requests")
}
