// Package schema contains the core contracts shared across mcpchat packages.
package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface every LLM-callable tool must satisfy.
// MCP-backed tools implement it; tests substitute fakes.
type Tool interface {
	// Name is the registry name the LLM calls the tool by.
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}
