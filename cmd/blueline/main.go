package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/blueline/internal/agent"
	"github.com/ashita-ai/blueline/internal/cache"
	"github.com/ashita-ai/blueline/internal/config"
	"github.com/ashita-ai/blueline/internal/fixture"
	"github.com/ashita-ai/blueline/internal/mcp"
	"github.com/ashita-ai/blueline/internal/ratelimit"
	"github.com/ashita-ai/blueline/internal/server"
	"github.com/ashita-ai/blueline/internal/storage"
	"github.com/ashita-ai/blueline/internal/telemetry"
	"github.com/ashita-ai/blueline/internal/tools"
	"github.com/ashita-ai/blueline/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("BLUELINE_LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("blueline starting", "version", version, "port", cfg.Port, "fixture_mode", cfg.FixtureMode())

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Data source: Postgres when configured, the built-in fixture otherwise.
	var (
		gateway cache.Gateway
		querier tools.Querier
	)
	if cfg.FixtureMode() {
		slog.Warn("DATABASE_URL not set, serving built-in fixture data")
		gateway = fixture.New()
	} else {
		db, err := storage.New(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns), logger)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		defer db.Close()

		if err := db.RegisterPoolMetrics(); err != nil {
			slog.Warn("pool metrics unavailable", "error", err)
		}

		if cfg.RunMigrations {
			if err := db.RunMigrations(ctx, migrations.FS); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
		}
		gateway = db
		if err := db.CheckQueryColumns(ctx); err != nil {
			slog.Warn("filtered queries disabled, tools will filter the cache", "error", err)
		} else {
			querier = db
		}
	}

	c := cache.New(cache.Config{
		Gateway:      gateway,
		Logger:       logger,
		BuildTimeout: cfg.CacheBuildTimeout,
	})
	if cfg.CacheEager {
		// A failed eager build is not fatal: the first request retries it.
		if err := c.Refresh(ctx); err != nil {
			slog.Warn("initial cache build failed, will retry on demand", "error", err)
		}
	}

	registry := tools.New(c, querier, logger)

	prompts := agent.NewService(agent.ServiceConfig{
		DefaultProvider: cfg.DefaultModel,
		MaxRounds:       cfg.AgentMaxRounds,
		MaxOutputTokens: cfg.MaxOutputTokens,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		OllamaURL:       cfg.OllamaURL,
		OllamaModel:     cfg.OllamaModel,
	}, agent.RegistryClient{Registry: registry}, logger)
	if providers := prompts.Providers(); len(providers) > 0 {
		slog.Info("model providers configured", "providers", strings.Join(providers, ","), "default", cfg.DefaultModel)
	} else {
		slog.Warn("no model provider configured, /api/prompt will reject requests")
	}

	var limiter ratelimit.Limiter = ratelimit.NoopLimiter{}
	if cfg.RateLimitEnabled() {
		memLimiter := ratelimit.NewMemoryLimiter(cfg.PromptRateLimitRPS, cfg.PromptRateLimitBurst)
		defer func() { _ = memLimiter.Close() }()
		limiter = memLimiter
	}

	mcpSrv := mcp.New(registry, c, version, logger)

	srv := server.New(server.ServerConfig{
		Data:                c,
		Logger:              logger,
		Prompts:             prompts,
		Limiter:             limiter,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MaxDelay:            cfg.MaxDelay,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AdminToken:          cfg.AdminToken,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	slog.Info("blueline shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("blueline stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
