package mcp

import "fmt"

// Connection stages reported by ConnectionError.
const (
	StageStart      = "start"
	StageInitialize = "initialize"
	StageListTools  = "list tools"
)

// ConnectionError reports a server that could not be brought up. It is
// never fatal on its own; the server is left out of the registry.
type ConnectionError struct {
	Server string
	Stage  string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("MCP server %q: %s: %v", e.Server, e.Stage, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ResultError is returned by Tool.Execute when the server answered but
// flagged the result as an error. The text is still the tool's output.
type ResultError struct {
	Tool string
	Text string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("tool %s reported an error: %s", e.Tool, e.Text)
}
