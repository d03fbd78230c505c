package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

func TestAnthropicProvider_ToolUse(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "Let me check."},
				{"type": "tool_use", "id": "toolu_1", "name": "alpha_echo", "input": {"text": "hi"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 20, "output_tokens": 7}
		}`)
	}))
	t.Cleanup(srv.Close)

	p := NewAnthropicProvider(Params{APIKey: "sk-ant-test", APIBase: srv.URL, DefaultModel: "anthropic/claude-sonnet-4-5"})
	msgs := schema.NewMessages()
	msgs.AddSystem("pick a tool")
	msgs.AddUser("say hi")

	resp, err := p.Chat(context.Background(), msgs, []map[string]any{echoTool}, schema.NewChatOptions("", 512, 0))
	require.NoError(t, err)

	assert.Equal(t, "Let me check.", resp.Text())
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].Id)
	assert.Equal(t, "alpha_echo", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"text": "hi"}, resp.ToolCalls[0].Arguments)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, 27, resp.Usage["total_tokens"])

	assert.Equal(t, "claude-sonnet-4-5", req["model"])
	assert.EqualValues(t, 512, req["max_tokens"])
	require.Len(t, req["system"], 1)
	require.Len(t, req["messages"], 1)
	tools, _ := req["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "alpha_echo", tool["name"])
	inputSchema := tool["input_schema"].(map[string]any)
	assert.Equal(t, "object", inputSchema["type"])
	assert.Equal(t, []any{"text"}, inputSchema["required"])
}

func TestToAnthropicMessages_SystemOnlyPrompt(t *testing.T) {
	msgs := schema.NewMessages()
	msgs.AddSystem("User asked: 'hi'. Respond with a friendly answer.")

	out := toAnthropicMessages(msgs)
	require.Len(t, out, 1)
	assert.EqualValues(t, "user", out[0].Role)
}

func TestAnthropicProvider_UndecodableToolInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "tool_use", "id": "toolu_1", "name": "alpha_echo", "input": "not an object"}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 20, "output_tokens": 7}
		}`)
	}))
	t.Cleanup(srv.Close)

	p := NewAnthropicProvider(Params{APIKey: "sk-ant-test", APIBase: srv.URL, DefaultModel: "claude-sonnet-4-5"})
	msgs := schema.NewMessages()
	msgs.AddUser("say hi")

	resp, err := p.Chat(context.Background(), msgs, []map[string]any{echoTool}, schema.ChatOptions{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Error(t, resp.ToolCalls[0].ArgumentsErr)
	assert.Empty(t, resp.ToolCalls[0].Arguments)
}
