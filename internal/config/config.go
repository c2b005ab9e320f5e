// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64
	MaxDelay            time.Duration // Upper bound for the delay_ms query parameter.
	CORSAllowedOrigins  []string
	AdminToken          string // Bearer token for POST /api/cache/refresh; empty disables it.

	// Data source. Empty DatabaseURL serves the built-in fixture.
	DatabaseURL      string
	DatabaseMaxConns int
	RunMigrations    bool

	// Cache settings.
	CacheBuildTimeout time.Duration
	CacheEager        bool

	// Agent and model providers.
	DefaultModel    string
	AgentMaxRounds  int
	MaxOutputTokens int
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	OllamaURL       string
	OllamaModel     string

	// Prompt rate limit per client IP.
	PromptRateLimitRPS   float64
	PromptRateLimitBurst int

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	LogLevel string
}

// Load reads configuration from environment variables with defaults.
// Malformed values are reported together rather than silently replaced.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := Config{
		DatabaseURL:     envStr("DATABASE_URL", ""),
		AdminToken:      envStr("BLUELINE_ADMIN_TOKEN", ""),
		DefaultModel:    envStr("BLUELINE_DEFAULT_MODEL", "anthropic"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIModel:     envStr("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:    envStr("GEMINI_API_KEY", ""),
		GeminiModel:     envStr("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		OllamaURL:       envStr("OLLAMA_URL", ""),
		OllamaModel:     envStr("OLLAMA_MODEL", "qwen2.5"),
		OTELEndpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:     envStr("OTEL_SERVICE_NAME", "blueline"),
		LogLevel:        envStr("BLUELINE_LOG_LEVEL", "info"),
	}
	cfg.CORSAllowedOrigins = envList("BLUELINE_CORS_ALLOWED_ORIGINS", []string{"*"})

	var err error
	cfg.Port, err = envInt("BLUELINE_PORT", 8080)
	collect(err)
	cfg.ReadTimeout, err = envDuration("BLUELINE_READ_TIMEOUT", 30*time.Second)
	collect(err)
	cfg.WriteTimeout, err = envDuration("BLUELINE_WRITE_TIMEOUT", 120*time.Second)
	collect(err)
	maxBody, err := envInt("BLUELINE_MAX_REQUEST_BODY_BYTES", 64*1024)
	collect(err)
	cfg.MaxRequestBodyBytes = int64(maxBody)
	cfg.MaxDelay, err = envDuration("BLUELINE_MAX_DELAY", 10*time.Second)
	collect(err)
	cfg.DatabaseMaxConns, err = envInt("BLUELINE_DATABASE_MAX_CONNS", 10)
	collect(err)
	cfg.RunMigrations, err = envBool("BLUELINE_RUN_MIGRATIONS", false)
	collect(err)
	cfg.CacheBuildTimeout, err = envDuration("BLUELINE_CACHE_BUILD_TIMEOUT", 60*time.Second)
	collect(err)
	cfg.CacheEager, err = envBool("BLUELINE_CACHE_EAGER", true)
	collect(err)
	cfg.AgentMaxRounds, err = envInt("BLUELINE_AGENT_MAX_ROUNDS", 6)
	collect(err)
	cfg.MaxOutputTokens, err = envInt("BLUELINE_MAX_OUTPUT_TOKENS", 1024)
	collect(err)
	cfg.PromptRateLimitRPS, err = envFloat("BLUELINE_PROMPT_RATE_LIMIT_RPS", 0.5)
	collect(err)
	cfg.PromptRateLimitBurst, err = envInt("BLUELINE_PROMPT_RATE_LIMIT_BURST", 5)
	collect(err)
	cfg.OTELInsecure, err = envBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	collect(err)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and combinations.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("BLUELINE_PORT must be between 1 and 65535"))
	}
	if c.MaxRequestBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_MAX_REQUEST_BODY_BYTES must be positive"))
	}
	if c.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_MAX_DELAY must not be negative"))
	}
	if c.DatabaseMaxConns <= 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_DATABASE_MAX_CONNS must be positive"))
	}
	if c.CacheBuildTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_CACHE_BUILD_TIMEOUT must be positive"))
	}
	if c.AgentMaxRounds <= 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_AGENT_MAX_ROUNDS must be positive"))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_MAX_OUTPUT_TOKENS must be positive"))
	}
	if c.PromptRateLimitRPS < 0 || c.PromptRateLimitBurst < 0 {
		errs = append(errs, fmt.Errorf("BLUELINE_PROMPT_RATE_LIMIT_RPS and _BURST must not be negative"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("BLUELINE_LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// FixtureMode reports whether no database is configured.
func (c Config) FixtureMode() bool { return c.DatabaseURL == "" }

// RateLimitEnabled reports whether /api/prompt is rate limited.
func (c Config) RateLimitEnabled() bool {
	return c.PromptRateLimitRPS > 0 && c.PromptRateLimitBurst > 0
}

func envStr(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	return f, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, defaultVal []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
