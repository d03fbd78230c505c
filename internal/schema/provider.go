package schema

import "context"

// ChatOptions configures a single LLM chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

type ToolCallRequest struct {
	Id        string
	Name      string
	Arguments map[string]any
	// ArgumentsErr is set when the model's arguments could not be decoded.
	// Arguments is empty then and the call must not be dispatched.
	ArgumentsErr error
}

// LLMResponse is the normalised response from any LLM provider.
type LLMResponse struct {
	Content      *string // nil when the response contains only tool calls
	ToolCalls    []ToolCallRequest
	FinishReason string
	Usage        map[string]int // "prompt_tokens", "completion_tokens", "total_tokens"
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Text returns the response content, or "" when there is none.
func (r LLMResponse) Text() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

// LLMProvider is the interface every LLM backend must satisfy.
// tools are OpenAI function-calling definitions; nil means the model may
// only answer in text.
type LLMProvider interface {
	Chat(ctx context.Context, messages Messages, tools []map[string]any, opts ChatOptions) (LLMResponse, error)
	DefaultModel() string
}

func NewChatOptions(model string, maxTokens int, temperature float64) ChatOptions {
	return ChatOptions{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}
