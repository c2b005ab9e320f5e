package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Provider names accepted in PromptRequest.Model.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

var (
	// ErrUnknownProvider is returned for a model name no provider answers to.
	ErrUnknownProvider = errors.New("agent: unknown model provider")
	// ErrProviderUnavailable is returned for a known provider without credentials.
	ErrProviderUnavailable = errors.New("agent: model provider not configured")
)

// SystemPrompt frames every conversation.
const SystemPrompt = `You answer questions about Boston Police Department officers using public transparency data: officer roster (name, rank, zip code), district assignments, yearly compensation (regular, overtime, detail, Quinn and total pay) and internal-affairs incidents (allegation, finding, action taken).

Use the tools to look data up; never invent officers, figures or incidents. Employee ids are integers. Percentiles compare an officer with every other officer in the data: 100 means highest. Overtime ratio is overtime pay as a percentage of regular pay.

Answer concisely in plain prose. If the data does not contain the answer, say so.`

// ServiceConfig configures which providers are available.
type ServiceConfig struct {
	DefaultProvider string
	MaxRounds       int
	MaxOutputTokens int

	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	OllamaURL       string
	OllamaModel     string
}

// Service routes prompts to a provider-specific agent.
type Service struct {
	providers       map[string]LLMClient
	defaultProvider string
	tools           ToolClient
	maxRounds       int
	logger          *slog.Logger
}

// NewService creates a Service with every provider that has credentials.
func NewService(cfg ServiceConfig, tools ToolClient, logger *slog.Logger) *Service {
	providers := make(map[string]LLMClient)
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if cfg.AnthropicAPIKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
		providers[ProviderAnthropic] = NewAnthropicClient(client, cfg.AnthropicModel, int64(maxTokens), SystemPrompt)
	}
	if cfg.OpenAIAPIKey != "" {
		providers[ProviderOpenAI] = NewOpenAIClient(cfg.OpenAIAPIKey, "", cfg.OpenAIModel, maxTokens, SystemPrompt)
	}
	if cfg.GeminiAPIKey != "" {
		providers[ProviderGemini] = NewOpenAIClient(cfg.GeminiAPIKey, GeminiBaseURL, cfg.GeminiModel, maxTokens, SystemPrompt)
	}
	if cfg.OllamaURL != "" {
		base := strings.TrimSuffix(cfg.OllamaURL, "/") + OllamaPath
		providers[ProviderOllama] = NewOpenAIClient("ollama", base, cfg.OllamaModel, maxTokens, SystemPrompt)
	}
	return NewServiceWith(providers, cfg.DefaultProvider, tools, cfg.MaxRounds, logger)
}

// NewServiceWith creates a Service over explicit providers.
func NewServiceWith(providers map[string]LLMClient, defaultProvider string, tools ToolClient, maxRounds int, logger *slog.Logger) *Service {
	return &Service{
		providers:       providers,
		defaultProvider: defaultProvider,
		tools:           tools,
		maxRounds:       maxRounds,
		logger:          logger,
	}
}

// Providers returns the configured provider names, sorted.
func (s *Service) Providers() []string {
	out := make([]string, 0, len(s.providers))
	for name := range s.providers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// ResolveProvider maps a requested model name to a provider name. Empty
// selects the default; "claude" is an alias for anthropic.
func (s *Service) ResolveProvider(model string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(model))
	if name == "" {
		name = s.defaultProvider
	}
	switch {
	case name == "claude" || strings.HasPrefix(name, "claude-"):
		name = ProviderAnthropic
	case strings.HasPrefix(name, "gpt-"):
		name = ProviderOpenAI
	case strings.HasPrefix(name, "gemini-"):
		name = ProviderGemini
	}
	switch name {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOllama:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, model)
	}
	if _, ok := s.providers[name]; !ok {
		return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, name)
	}
	return name, nil
}

// Prompt answers prompt with the provider selected by model.
func (s *Service) Prompt(ctx context.Context, model, prompt string) (*RunResult, string, error) {
	provider, err := s.ResolveProvider(model)
	if err != nil {
		return nil, "", err
	}
	a, err := New(Config{
		Logger:     s.logger.With("provider", provider),
		LLM:        s.providers[provider],
		ToolClient: s.tools,
		MaxRounds:  s.maxRounds,
	})
	if err != nil {
		return nil, provider, err
	}
	res, err := a.Run(ctx, prompt)
	return res, provider, err
}
