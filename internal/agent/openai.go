package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Base URLs of OpenAI-compatible chat completion endpoints.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	OllamaPath    = "/v1"
)

// ChatCompleter is the subset of *openai.Client used by OpenAIClient.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements LLMClient for any OpenAI-compatible chat completion
// API: OpenAI itself, Gemini's compatibility endpoint and Ollama.
type OpenAIClient struct {
	client          ChatCompleter
	model           string
	maxOutputTokens int
	system          string
}

// NewOpenAIClient creates an OpenAI-compatible LLM client. An empty baseURL
// targets api.openai.com.
func NewOpenAIClient(apiKey, baseURL, model string, maxOutputTokens int, system string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewOpenAIClientWith(openai.NewClientWithConfig(cfg), model, maxOutputTokens, system)
}

// NewOpenAIClientWith wraps an existing completer.
func NewOpenAIClientWith(client ChatCompleter, model string, maxOutputTokens int, system string) *OpenAIClient {
	return &OpenAIClient{
		client:          client,
		model:           model,
		maxOutputTokens: maxOutputTokens,
		system:          system,
	}
}

// Call sends the conversation as a chat completion request.
func (o *OpenAIClient) Call(ctx context.Context, messages []Message, tools []Tool) (Response, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if o.system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.system})
	}
	for _, m := range messages {
		p, ok := m.ToParam().(openai.ChatCompletionMessage)
		if !ok {
			return nil, fmt.Errorf("agent: expected openai.ChatCompletionMessage, got %T", m.ToParam())
		}
		msgs = append(msgs, p)
	}

	req := openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  msgs,
		MaxTokens: o.maxOutputTokens,
		Tools:     toOpenAITools(tools),
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("agent: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("agent: chat completion returned no choices")
	}
	return openAIResponse{msg: resp.Choices[0].Message}, nil
}

// ConvertToolResults creates one tool turn per result.
func (o *OpenAIClient) ConvertToolResults(_ []ToolUse, results []ToolResult) ([]Message, error) {
	out := make([]Message, 0, len(results))
	for _, r := range results {
		out = append(out, openAIMessage{msg: openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    r.Content,
			ToolCallID: r.ID,
		}})
	}
	return out, nil
}

// CreateUserMessage creates a user text turn.
func (o *OpenAIClient) CreateUserMessage(content string) Message {
	return openAIMessage{msg: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content}}
}

type openAIMessage struct {
	msg openai.ChatCompletionMessage
}

func (m openAIMessage) ToParam() any { return m.msg }

type openAIResponse struct {
	msg openai.ChatCompletionMessage
}

func (r openAIResponse) Content() []ContentBlock {
	blocks := make([]ContentBlock, 0, len(r.msg.ToolCalls)+1)
	if r.msg.Content != "" {
		blocks = append(blocks, openAITextBlock(r.msg.Content))
	}
	for _, tc := range r.msg.ToolCalls {
		blocks = append(blocks, openAIToolCallBlock{call: tc})
	}
	return blocks
}

func (r openAIResponse) ToMessage() Message {
	return openAIMessage{msg: r.msg}
}

type openAITextBlock string

func (b openAITextBlock) AsText() (string, bool) { return string(b), true }

func (b openAITextBlock) AsToolUse() (string, string, []byte, bool) { return "", "", nil, false }

type openAIToolCallBlock struct {
	call openai.ToolCall
}

func (b openAIToolCallBlock) AsText() (string, bool) { return "", false }

func (b openAIToolCallBlock) AsToolUse() (string, string, []byte, bool) {
	args := b.call.Function.Arguments
	if args == "" {
		args = "{}"
	}
	return b.call.ID, b.call.Function.Name, []byte(args), true
}

func toOpenAITools(tools []Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}
