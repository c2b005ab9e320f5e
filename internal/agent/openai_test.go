package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	replies []openai.ChatCompletionMessage
	reqs    []openai.ChatCompletionRequest
	err     error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if len(f.replies) == 0 {
		return openai.ChatCompletionResponse{}, nil
	}
	msg := f.replies[0]
	f.replies = f.replies[1:]
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: msg}}}, nil
}

func TestOpenAIClient_RoundTrip(t *testing.T) {
	fc := &fakeCompleter{replies: []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "call_1",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "list_officers", Arguments: `{"limit":2}`},
			}},
		},
		{Role: openai.ChatMessageRoleAssistant, Content: "Two officers: Ana and Sean."},
	}}
	llm := NewOpenAIClientWith(fc, "gpt-test", 256, "be brief")
	tc := &mockToolClient{
		tools:   []Tool{{Name: "list_officers", Description: "List officers", InputSchema: map[string]any{"type": "object"}}},
		results: map[string]mockToolResult{"list_officers": {content: `[{"employee_id":1},{"employee_id":2}]`}},
	}
	a := newTestAgent(t, llm, tc, 3)

	res, err := a.Run(context.Background(), "List two officers")
	require.NoError(t, err)
	assert.Equal(t, "Two officers: Ana and Sean.", res.FinalText)
	assert.Equal(t, []string{"list_officers"}, res.ToolsCalled)

	require.Len(t, fc.reqs, 2)
	first := fc.reqs[0]
	assert.Equal(t, "gpt-test", first.Model)
	assert.Equal(t, 256, first.MaxTokens)
	require.Len(t, first.Tools, 1)
	assert.Equal(t, "list_officers", first.Tools[0].Function.Name)
	assert.Equal(t, openai.ChatMessageRoleSystem, first.Messages[0].Role)
	assert.Equal(t, "be brief", first.Messages[0].Content)

	second := fc.reqs[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, `"employee_id":2`)
	assert.Equal(t, float64(2), tc.calls[0]["limit"])
}

func TestOpenAIClient_EmptyArgumentsBecomeObject(t *testing.T) {
	blk := openAIToolCallBlock{call: openai.ToolCall{ID: "x", Function: openai.FunctionCall{Name: "list_departments"}}}
	id, name, input, ok := blk.AsToolUse()
	require.True(t, ok)
	assert.Equal(t, "x", id)
	assert.Equal(t, "list_departments", name)
	assert.Equal(t, "{}", string(input))
}

func TestOpenAIClient_Errors(t *testing.T) {
	llm := NewOpenAIClientWith(&fakeCompleter{err: errors.New("401 unauthorized")}, "m", 10, "")
	_, err := llm.Call(context.Background(), []Message{llm.CreateUserMessage("hi")}, nil)
	require.ErrorContains(t, err, "401 unauthorized")

	llm = NewOpenAIClientWith(&fakeCompleter{}, "m", 10, "")
	_, err = llm.Call(context.Background(), []Message{llm.CreateUserMessage("hi")}, nil)
	require.ErrorContains(t, err, "no choices")

	_, err = llm.Call(context.Background(), []Message{testMessage{role: "user"}}, nil)
	require.ErrorContains(t, err, "expected openai.ChatCompletionMessage")
}

func TestToOpenAITools_Empty(t *testing.T) {
	assert.Nil(t, toOpenAITools(nil))
}
