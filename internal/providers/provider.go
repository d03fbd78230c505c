// Package providers adapts LLM vendor SDKs to schema.LLMProvider.
// OpenAI-compatible endpoints go through go-openai, Anthropic through its
// own SDK, and AWS Bedrock through the Converse API.
package providers

import "github.com/crystaldolphin/mcpchat/internal/schema"

// ChatOptions configures a single LLM chat request.
type ChatOptions = schema.ChatOptions

// ToolCallRequest represents one tool invocation requested by the LLM.
type ToolCallRequest = schema.ToolCallRequest

// LLMResponse is the normalised response from any LLM provider.
type LLMResponse = schema.LLMResponse

// LLMProvider is the interface every LLM backend must satisfy.
type LLMProvider = schema.LLMProvider

const defaultMaxTokens = 4096

// toolFunction is the function part of an OpenAI-format tool definition.
type toolFunction struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// functionsOf unpacks OpenAI-format tool definitions, skipping malformed ones.
func functionsOf(tools []map[string]any) []toolFunction {
	out := make([]toolFunction, 0, len(tools))
	for _, t := range tools {
		fn, _ := t["function"].(map[string]any)
		if fn == nil {
			continue
		}
		name, _ := fn["name"].(string)
		if name == "" {
			continue
		}
		desc, _ := fn["description"].(string)
		params, _ := fn["parameters"].(map[string]any)
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, toolFunction{Name: name, Description: desc, Parameters: params})
	}
	return out
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
