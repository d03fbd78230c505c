package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// converser is the part of the Bedrock runtime client the provider uses.
type converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider calls models hosted on AWS Bedrock via the Converse API.
type BedrockProvider struct {
	client       converser
	defaultModel string
	spec         *ProviderSpec
}

// NewBedrockProvider loads AWS configuration and returns a provider.
// Static credentials are used when both APIKey and APISecret are set;
// otherwise the default AWS credential chain applies.
func NewBedrockProvider(ctx context.Context, p Params) (*BedrockProvider, error) {
	// Extra headers ride on the middleware stack. LoadDefaultConfig keeps its
	// own buildable HTTP client so AWS_CA_BUNDLE can still be applied.
	var opts []func(*awsconfig.LoadOptions) error
	if len(p.ExtraHeaders) > 0 {
		opts = append(opts, awsconfig.WithAPIOptions(headerOptions(p.ExtraHeaders)))
	}
	if p.Region != "" {
		opts = append(opts, awsconfig.WithRegion(p.Region))
	}
	if p.APIKey != "" && p.APISecret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.APIKey, p.APISecret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)
	if p.APIBase != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(p.APIBase)
		})
	}

	return &BedrockProvider{
		client:       bedrockruntime.NewFromConfig(awsCfg, clientOpts...),
		defaultModel: p.DefaultModel,
		spec:         FindByName("bedrock"),
	}, nil
}

func headerOptions(headers map[string]string) []func(*middleware.Stack) error {
	out := make([]func(*middleware.Stack) error, 0, len(headers))
	for k, v := range headers {
		out = append(out, smithyhttp.SetHeaderValue(k, v))
	}
	return out
}

func (p *BedrockProvider) DefaultModel() string { return p.defaultModel }

// Chat implements schema.LLMProvider.
func (p *BedrockProvider) Chat(
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

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: toBedrockMessages(messages),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(maxTokens)),
		},
	}
	if opts.Temperature > 0 {
		input.InferenceConfig.Temperature = aws.Float32(float32(opts.Temperature))
	}
	if system := messages.System(); system != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		}
	}
	if len(tools) > 0 {
		input.ToolConfig = &types.ToolConfiguration{
			Tools:      toBedrockTools(tools),
			ToolChoice: &types.ToolChoiceMemberAuto{Value: types.AutoToolChoice{}},
		}
	}

	out, err := p.client.Converse(ctx, input)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("bedrock converse (%s): %w", model, err)
	}
	return parseBedrockOutput(out)
}

// toBedrockMessages converts the non-system turns. Converse needs at least
// one message, so a prompt made only of system text is sent as a user turn.
func toBedrockMessages(messages schema.Messages) []types.Message {
	turns := messages.NonSystem()
	if len(turns) == 0 {
		turns = []schema.Message{schema.NewUserMessage(messages.System())}
	}
	out := make([]types.Message, 0, len(turns))
	for _, m := range turns {
		role := types.ConversationRoleUser
		if m.Role == schema.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}
	return out
}

func toBedrockTools(tools []map[string]any) []types.Tool {
	fns := functionsOf(tools)
	out := make([]types.Tool, 0, len(fns))
	for _, fn := range fns {
		out = append(out, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(fn.Name),
				Description: aws.String(fn.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(fn.Parameters)},
			},
		})
	}
	return out
}

func parseBedrockOutput(out *bedrockruntime.ConverseOutput) (schema.LLMResponse, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return schema.LLMResponse{}, fmt.Errorf("unexpected converse output %T", out.Output)
	}

	var text strings.Builder
	var toolCalls []schema.ToolCallRequest
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			text.WriteString(b.Value)
		case *types.ContentBlockMemberToolUse:
			name := aws.ToString(b.Value.Name)
			args, err := decodeToolInput(b.Value.Input)
			if err != nil {
				slog.Warn("failed to parse tool arguments", "tool", name, "err", err)
			}
			toolCalls = append(toolCalls, schema.ToolCallRequest{
				Id:           aws.ToString(b.Value.ToolUseId),
				Name:         name,
				Arguments:    args,
				ArgumentsErr: err,
			})
		}
	}

	finish := "stop"
	switch out.StopReason {
	case types.StopReasonToolUse:
		finish = "tool_calls"
	case types.StopReasonEndTurn, "":
	default:
		finish = string(out.StopReason)
	}

	usage := map[string]int{}
	if out.Usage != nil {
		usage["prompt_tokens"] = int(aws.ToInt32(out.Usage.InputTokens))
		usage["completion_tokens"] = int(aws.ToInt32(out.Usage.OutputTokens))
		usage["total_tokens"] = int(aws.ToInt32(out.Usage.TotalTokens))
	}

	return schema.LLMResponse{
		Content:      strPtr(text.String()),
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage:        usage,
	}, nil
}

// decodeToolInput re-encodes the tool input document as JSON so numbers come
// back as float64, the same shape the other providers produce.
func decodeToolInput(input document.Interface) (map[string]any, error) {
	if input == nil {
		return map[string]any{}, nil
	}
	raw, err := input.MarshalSmithyDocument()
	if err != nil {
		return map[string]any{}, fmt.Errorf("encode tool input: %w", err)
	}
	return repairJSON(string(raw))
}
