package agent

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// AnthropicClient implements LLMClient for the Anthropic Messages API.
type AnthropicClient struct {
	client          anthropic.Client
	model           anthropic.Model
	maxOutputTokens int64
	system          string
}

// NewAnthropicClient creates an Anthropic LLM client.
func NewAnthropicClient(client anthropic.Client, model string, maxOutputTokens int64, system string) *AnthropicClient {
	return &AnthropicClient{
		client:          client,
		model:           anthropic.Model(model),
		maxOutputTokens: maxOutputTokens,
		system:          system,
	}
}

// Call sends the conversation to Anthropic.
func (a *AnthropicClient) Call(ctx context.Context, messages []Message, tools []Tool) (Response, error) {
	params := make([]anthropic.MessageParam, len(messages))
	for i, msg := range messages {
		p, ok := msg.ToParam().(anthropic.MessageParam)
		if !ok {
			return nil, fmt.Errorf("agent: expected anthropic.MessageParam, got %T", msg.ToParam())
		}
		params[i] = p
	}

	req := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxOutputTokens,
		Messages:  params,
		Tools:     toAnthropicTools(tools),
	}
	if a.system != "" {
		req.System = []anthropic.TextBlockParam{{Text: a.system}}
	}

	resp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("agent: anthropic: %w", err)
	}
	return anthropicResponse{resp: resp}, nil
}

// ConvertToolResults packs every result into one user turn.
func (a *AnthropicClient) ConvertToolResults(_ []ToolUse, results []ToolResult) ([]Message, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, anthropic.NewToolResultBlock(r.ID, r.Content, r.IsError))
	}
	return []Message{anthropicMessage{msg: anthropic.NewUserMessage(blocks...)}}, nil
}

// CreateUserMessage creates a user text turn.
func (a *AnthropicClient) CreateUserMessage(content string) Message {
	return anthropicMessage{msg: anthropic.NewUserMessage(anthropic.NewTextBlock(content))}
}

type anthropicMessage struct {
	msg anthropic.MessageParam
}

func (m anthropicMessage) ToParam() any { return m.msg }

type anthropicResponse struct {
	resp *anthropic.Message
}

func (r anthropicResponse) Content() []ContentBlock {
	blocks := make([]ContentBlock, len(r.resp.Content))
	for i, blk := range r.resp.Content {
		blocks[i] = anthropicContentBlock{blk: blk}
	}
	return blocks
}

func (r anthropicResponse) ToMessage() Message {
	return anthropicMessage{msg: r.resp.ToParam()}
}

type anthropicContentBlock struct {
	blk anthropic.ContentBlockUnion
}

func (b anthropicContentBlock) AsText() (string, bool) {
	if b.blk.Type != "text" || b.blk.Text == "" {
		return "", false
	}
	return b.blk.Text, true
}

func (b anthropicContentBlock) AsToolUse() (string, string, []byte, bool) {
	if b.blk.Type != "tool_use" {
		return "", "", nil, false
	}
	tu := b.blk.AsToolUse()
	return tu.ID, tu.Name, tu.Input, true
}

func toAnthropicTools(tools []Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		props, _ := t.InputSchema["properties"].(map[string]any)
		required, _ := t.InputSchema["required"].([]string)
		tp := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.Opt(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tp})
	}
	return out
}
