package assistant

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is wrapped by RoutingError when the LLM names a tool that
// is not in the registry.
var ErrUnknownTool = errors.New("unknown tool")

// ErrMalformedArguments is wrapped by RoutingError when the LLM's tool
// arguments could not be decoded.
var ErrMalformedArguments = errors.New("malformed arguments")

// RoutingError reports a selection that cannot be dispatched: the tool is
// unknown or the arguments are unreadable or do not satisfy its schema.
type RoutingError struct {
	Tool string
	Err  error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("cannot route to tool %q: %v", e.Tool, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// ToolCallError reports a tool call that never produced a result, such as
// a broken connection to the server.
type ToolCallError struct {
	Tool string
	Err  error
}

func (e *ToolCallError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolCallError) Unwrap() error { return e.Err }

// LLMCallError reports a failed LLM request. Stage is "select" or "format".
type LLMCallError struct {
	Stage string
	Err   error
}

func (e *LLMCallError) Error() string {
	return fmt.Sprintf("LLM %s call failed: %v", e.Stage, e.Err)
}

func (e *LLMCallError) Unwrap() error { return e.Err }
