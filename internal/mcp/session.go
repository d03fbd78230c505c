package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Session is one live connection to one MCP server. Its tool list is
// fetched once, right after the handshake, and never refreshed.
type Session struct {
	name    string
	session *mcp.ClientSession
	tools   []*mcp.Tool
}

// Name returns the configured server name.
func (s *Session) Name() string { return s.name }

// ToolCount returns the number of tools the server advertised.
func (s *Session) ToolCount() int { return len(s.tools) }

// Tools wraps every advertised tool as a registry entry bound to s.
func (s *Session) Tools() []*Tool {
	out := make([]*Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, newTool(s, t))
	}
	return out
}

// CallTool invokes the server-side tool name with args.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	return s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
}

// Close ends the session and terminates the server subprocess.
func (s *Session) Close() error {
	return s.session.Close()
}
