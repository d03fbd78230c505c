package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint:
// OpenAI itself, gateways such as OpenRouter, and local servers.
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
	spec         *ProviderSpec
}

// NewOpenAIProvider constructs a provider from raw config values.
func NewOpenAIProvider(p Params) *OpenAIProvider {
	spec := FindGateway(p.ProviderName, p.APIKey)
	if spec == nil {
		spec = FindByName(p.ProviderName)
	}

	cfg := openai.DefaultConfig(p.APIKey)
	base := p.APIBase
	if base == "" && spec != nil {
		base = spec.DefaultAPIBase
	}
	if base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	cfg.HTTPClient = newHTTPClient(p.ExtraHeaders)

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: p.DefaultModel,
		spec:         spec,
	}
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}
	model = p.spec.ResolveModel(model)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
	}
	if isReasoningModel(model) {
		// Reasoning models reject max_tokens and any non-default temperature.
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = float32(opts.Temperature)
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("chat completion (%s): %w", model, friendlyOpenAIError(err))
	}
	return parseOpenAIResponse(resp)
}

func toOpenAIMessages(messages schema.Messages) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, messages.Len())
	for _, m := range messages.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case schema.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case schema.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func toOpenAITools(tools []map[string]any) []openai.Tool {
	fns := functionsOf(tools)
	out := make([]openai.Tool, 0, len(fns))
	for _, fn := range fns {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			},
		})
	}
	return out
}

func parseOpenAIResponse(resp openai.ChatCompletionResponse) (schema.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return schema.LLMResponse{}, errors.New("empty choices in response")
	}
	choice := resp.Choices[0]

	var toolCalls []schema.ToolCallRequest
	for _, tc := range choice.Message.ToolCalls {
		args, err := repairJSON(tc.Function.Arguments)
		if err != nil {
			slog.Warn("failed to parse tool arguments", "tool", tc.Function.Name, "err", err)
		}
		toolCalls = append(toolCalls, schema.ToolCallRequest{
			Id:           tc.ID,
			Name:         tc.Function.Name,
			Arguments:    args,
			ArgumentsErr: err,
		})
	}

	finish := string(choice.FinishReason)
	if finish == "" {
		finish = "stop"
	}

	return schema.LLMResponse{
		Content:      strPtr(choice.Message.Content),
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage: map[string]int{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}, nil
}

// isReasoningModel reports whether model belongs to the o-series, which
// takes max_completion_tokens and a fixed temperature.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	return false
}

func friendlyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}
	return err
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

func newHTTPClient(extraHeaders map[string]string) *http.Client {
	c := &http.Client{}
	if len(extraHeaders) > 0 {
		c.Transport = &headerTransport{headers: extraHeaders, base: http.DefaultTransport}
	}
	return c
}
