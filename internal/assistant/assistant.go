// Package assistant runs the select, dispatch and format pipeline for each
// line the user types.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crystaldolphin/mcpchat/internal/mcp"
	"github.com/crystaldolphin/mcpchat/internal/metrics"
	"github.com/crystaldolphin/mcpchat/internal/schema"
	"github.com/crystaldolphin/mcpchat/internal/shared/llmutils"
	"github.com/crystaldolphin/mcpchat/internal/tools"
)

// Settings are the per-request LLM options.
type Settings struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Turn is one user utterance and everything derived from it. Nothing is
// carried from one turn to the next.
type Turn struct {
	ID     string
	Input  string
	Tool   string         // registry name; empty when no tool was selected
	Args   map[string]any // arguments the LLM chose
	Result string         // raw tool result
	Failed bool           // the tool reported an error result
	Reply  string
}

// Assistant holds everything a turn needs: the LLM, the tool registry and
// the request settings. It keeps no conversation state.
type Assistant struct {
	provider schema.LLMProvider
	registry *tools.Registry
	settings Settings
	metrics  metrics.Metrics
}

// New returns an Assistant. m may be nil.
func New(provider schema.LLMProvider, registry *tools.Registry, settings Settings, m metrics.Metrics) *Assistant {
	if settings.Model == "" {
		settings.Model = provider.DefaultModel()
	}
	return &Assistant{provider: provider, registry: registry, settings: settings, metrics: m}
}

// Respond processes one user message. On error the returned Turn holds
// whatever was decided before the failure.
func (a *Assistant) Respond(ctx context.Context, input string) (*Turn, error) {
	turn := &Turn{ID: newTurnID(), Input: input}
	log := slog.With("turn", turn.ID)

	err := a.respond(ctx, log, turn)
	a.observeTurn(turn, err)
	return turn, err
}

func (a *Assistant) respond(ctx context.Context, log *slog.Logger, turn *Turn) error {
	call, err := a.selectTool(ctx, turn.Input)
	if err != nil {
		return &LLMCallError{Stage: metrics.StageSelect, Err: err}
	}

	prompt := schema.NewMessages()
	if call == nil {
		log.Info("No specific tool selected, using general LLM response")
		prompt.AddUser(turn.Input)
	} else {
		turn.Tool, turn.Args = call.Name, call.Arguments
		if err := a.dispatch(ctx, log, turn, call.ArgumentsErr); err != nil {
			return err
		}
		prompt.AddSystem(formatPrompt(turn.Input, turn.Tool, turn.Result, turn.Failed))
	}

	resp, err := a.provider.Chat(ctx, prompt, nil, a.chatOptions())
	if err != nil {
		a.observeLLM(metrics.StageFormat, metrics.OutcomeError)
		return &LLMCallError{Stage: metrics.StageFormat, Err: err}
	}
	a.observeLLM(metrics.StageFormat, metrics.OutcomeOK)
	turn.Reply = llmutils.StripThink(resp.Text())
	return nil
}

// selectTool asks the LLM to pick one tool. It returns nil when the model
// answered without a tool call or there are no tools to pick from. When
// several calls come back only the first is used.
func (a *Assistant) selectTool(ctx context.Context, input string) (*schema.ToolCallRequest, error) {
	if a.registry.Len() == 0 {
		return nil, nil
	}

	prompt := schema.NewMessages()
	prompt.AddSystem(selectionPrompt)
	prompt.AddUser(input)

	resp, err := a.provider.Chat(ctx, prompt, a.registry.Definitions(), a.chatOptions())
	if err != nil {
		a.observeLLM(metrics.StageSelect, metrics.OutcomeError)
		return nil, err
	}
	a.observeLLM(metrics.StageSelect, metrics.OutcomeOK)

	if !resp.HasToolCalls() {
		return nil, nil
	}
	if n := len(resp.ToolCalls); n > 1 {
		slog.Debug("LLM returned several tool calls, using the first", "count", n)
	}
	call := resp.ToolCalls[0]
	return &call, nil
}

// dispatch resolves the selected tool, validates the arguments and calls it.
// argsErr is the provider's failure to decode the arguments, if any.
func (a *Assistant) dispatch(ctx context.Context, log *slog.Logger, turn *Turn, argsErr error) error {
	tool, ok := a.registry.Resolve(turn.Tool)
	if !ok {
		a.observeTool(turn.Tool, metrics.OutcomeRoutingError)
		return &RoutingError{Tool: turn.Tool, Err: ErrUnknownTool}
	}
	if argsErr != nil {
		a.observeTool(turn.Tool, metrics.OutcomeRoutingError)
		return &RoutingError{Tool: turn.Tool, Err: fmt.Errorf("%w: %v", ErrMalformedArguments, argsErr)}
	}
	if err := a.registry.Validate(turn.Tool, turn.Args); err != nil {
		a.observeTool(turn.Tool, metrics.OutcomeRoutingError)
		return &RoutingError{Tool: turn.Tool, Err: err}
	}

	attrs := []any{"tool", llmutils.ToolHint(schema.ToolCallRequest{Name: turn.Tool, Arguments: turn.Args})}
	if owned, ok := tool.(interface{ Server() string }); ok {
		attrs = append(attrs, "server", owned.Server())
	}
	log.Info("Selected tool", attrs...)
	log.Debug("Tool arguments", "tool", turn.Tool, "args", llmutils.ArgsForLog(turn.Args))

	result, err := tool.Execute(ctx, turn.Args)
	var reported *mcp.ResultError
	switch {
	case errors.As(err, &reported):
		log.Warn("Tool reported an error", "tool", turn.Tool, "result", llmutils.Truncate(result, 200))
		turn.Result, turn.Failed = result, true
		a.observeTool(turn.Tool, metrics.OutcomeToolError)
	case err != nil:
		a.observeTool(turn.Tool, metrics.OutcomeError)
		return &ToolCallError{Tool: turn.Tool, Err: err}
	default:
		turn.Result = result
		a.observeTool(turn.Tool, metrics.OutcomeOK)
	}
	return nil
}

func (a *Assistant) chatOptions() schema.ChatOptions {
	return schema.NewChatOptions(a.settings.Model, a.settings.MaxTokens, a.settings.Temperature)
}

func (a *Assistant) observeTurn(turn *Turn, err error) {
	if a.metrics == nil {
		return
	}
	var routing *RoutingError
	var toolErr *ToolCallError
	switch {
	case errors.As(err, &routing):
		a.metrics.ObserveTurn(metrics.OutcomeRoutingError)
	case errors.As(err, &toolErr):
		a.metrics.ObserveTurn(metrics.OutcomeToolError)
	case err != nil:
		a.metrics.ObserveTurn(metrics.OutcomeError)
	case turn.Tool == "":
		a.metrics.ObserveTurn(metrics.OutcomeNoTool)
	default:
		a.metrics.ObserveTurn(metrics.OutcomeOK)
	}
}

func (a *Assistant) observeLLM(stage, outcome string) {
	if a.metrics != nil {
		a.metrics.ObserveLLMCall(stage, outcome)
	}
}

func (a *Assistant) observeTool(tool, outcome string) {
	if a.metrics != nil {
		a.metrics.ObserveToolCall(tool, outcome)
	}
}

func newTurnID() string {
	return uuid.NewString()[:8]
}
