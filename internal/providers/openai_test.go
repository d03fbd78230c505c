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

var echoTool = map[string]any{
	"type": "function",
	"function": map[string]any{
		"name":        "alpha_echo",
		"description": "Echo text",
		"parameters": map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []any{"text"},
		},
	},
}

func openAIServer(t *testing.T, reply string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_ToolCall(t *testing.T) {
	var req map[string]any
	srv := openAIServer(t, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"content": null,
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "alpha_echo", "arguments": "{\"text\": \"hi\"}"}
				}]
			},
			"finish_reason": "tool_calls"
		}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
	}`, &req)

	p := NewOpenAIProvider(Params{
		APIKey:       "sk-test",
		APIBase:      srv.URL,
		DefaultModel: "o4-mini",
		ProviderName: "openai",
		ExtraHeaders: map[string]string{"X-Extra": "yes"},
	})
	msgs := schema.NewMessages()
	msgs.AddSystem("pick a tool")
	msgs.AddUser("say hi")

	resp, err := p.Chat(context.Background(), msgs, []map[string]any{echoTool}, schema.NewChatOptions("", 256, 0.7))
	require.NoError(t, err)

	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "alpha_echo", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"text": "hi"}, resp.ToolCalls[0].Arguments)
	assert.Nil(t, resp.Content)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, 15, resp.Usage["total_tokens"])

	assert.Equal(t, "o4-mini", req["model"])
	assert.Equal(t, "auto", req["tool_choice"])
	assert.EqualValues(t, 256, req["max_completion_tokens"])
	assert.NotContains(t, req, "max_tokens")
	assert.NotContains(t, req, "temperature")
	assert.Len(t, req["tools"], 1)
	assert.Len(t, req["messages"], 2)
}

func TestOpenAIProvider_TextReplyWithoutTools(t *testing.T) {
	var req map[string]any
	srv := openAIServer(t, `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}]
	}`, &req)

	p := NewOpenAIProvider(Params{
		APIKey:       "sk-test",
		APIBase:      srv.URL,
		DefaultModel: "openai/gpt-4o",
		ProviderName: "openai",
		ExtraHeaders: map[string]string{"X-Extra": "yes"},
	})
	msgs := schema.NewMessages()
	msgs.AddUser("hello")

	resp, err := p.Chat(context.Background(), msgs, nil, schema.NewChatOptions("", 100, 0.5))
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Text())
	assert.False(t, resp.HasToolCalls())

	assert.Equal(t, "gpt-4o", req["model"])
	assert.EqualValues(t, 100, req["max_tokens"])
	assert.InDelta(t, 0.5, req["temperature"], 0.001)
	assert.NotContains(t, req, "tools")
	assert.NotContains(t, req, "tool_choice")
}

func TestOpenAIProvider_UndecodableArguments(t *testing.T) {
	var req map[string]any
	srv := openAIServer(t, `{
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "alpha_echo", "arguments": "not json at all"}
				}]
			},
			"finish_reason": "tool_calls"
		}]
	}`, &req)

	p := NewOpenAIProvider(Params{
		APIKey:       "sk-test",
		APIBase:      srv.URL,
		DefaultModel: "gpt-4o",
		ProviderName: "openai",
		ExtraHeaders: map[string]string{"X-Extra": "yes"},
	})
	msgs := schema.NewMessages()
	msgs.AddUser("say hi")

	resp, err := p.Chat(context.Background(), msgs, []map[string]any{echoTool}, schema.ChatOptions{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	call := resp.ToolCalls[0]
	assert.Equal(t, "alpha_echo", call.Name)
	assert.ErrorContains(t, call.ArgumentsErr, "not json at all")
	assert.Empty(t, call.Arguments)
}

func TestOpenAIProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "slow down", "type": "rate_limit"}}`)
	}))
	t.Cleanup(srv.Close)

	p := NewOpenAIProvider(Params{APIKey: "sk-test", APIBase: srv.URL, DefaultModel: "gpt-4o", ProviderName: "openai"})
	msgs := schema.NewMessages()
	msgs.AddUser("hello")

	_, err := p.Chat(context.Background(), msgs, nil, schema.ChatOptions{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "rate limit exceeded")
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o4-mini"))
	assert.True(t, isReasoningModel("openai/o3"))
	assert.False(t, isReasoningModel("gpt-4o"))
	assert.False(t, isReasoningModel("claude-opus-4"))
}
