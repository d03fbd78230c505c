package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
	spec         *ProviderSpec
}

// NewAnthropicProvider constructs a provider from raw config values.
func NewAnthropicProvider(p Params) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(p.APIKey),
		option.WithHTTPClient(newHTTPClient(p.ExtraHeaders)),
	}
	if p.APIBase != "" {
		opts = append(opts, option.WithBaseURL(p.APIBase))
	}
	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		defaultModel: p.DefaultModel,
		spec:         FindByName("anthropic"),
	}
}

func (p *AnthropicProvider) DefaultModel() string { return p.defaultModel }

// Chat implements schema.LLMProvider.
func (p *AnthropicProvider) Chat(
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

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(messages),
	}
	if system := messages.System(); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("anthropic messages (%s): %w", model, err)
	}
	return parseAnthropicMessage(msg), nil
}

// toAnthropicMessages converts the non-system turns. The API requires the
// conversation to start with a user turn, so a prompt made only of system
// text is replayed as a single user message.
func toAnthropicMessages(messages schema.Messages) []anthropic.MessageParam {
	turns := messages.NonSystem()
	if len(turns) == 0 {
		return []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(messages.System())),
		}
	}
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == schema.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}

func toAnthropicTools(tools []map[string]any) []anthropic.ToolUnionParam {
	fns := functionsOf(tools)
	out := make([]anthropic.ToolUnionParam, 0, len(fns))
	for _, fn := range fns {
		inputSchema := anthropic.ToolInputSchemaParam{Properties: fn.Parameters["properties"]}
		if req, ok := fn.Parameters["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, s)
				}
			}
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        fn.Name,
				Description: anthropic.String(fn.Description),
				InputSchema: inputSchema,
			},
		})
	}
	return out
}

func parseAnthropicMessage(msg *anthropic.Message) schema.LLMResponse {
	var text strings.Builder
	var toolCalls []schema.ToolCallRequest

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args, err := repairJSON(string(block.Input))
			if err != nil {
				slog.Warn("failed to parse tool arguments", "tool", block.Name, "err", err)
			}
			toolCalls = append(toolCalls, schema.ToolCallRequest{
				Id:           block.ID,
				Name:         block.Name,
				Arguments:    args,
				ArgumentsErr: err,
			})
		}
	}

	finish := "stop"
	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		finish = "tool_calls"
	case anthropic.StopReasonEndTurn, "":
	default:
		finish = string(msg.StopReason)
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return schema.LLMResponse{
		Content:      strPtr(text.String()),
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage: map[string]int{
			"prompt_tokens":     in,
			"completion_tokens": out,
			"total_tokens":      in + out,
		},
	}
}
