// Package demoserver is a tiny MCP server used to try mcpchat end to end.
// It is started by the demo-server command and talks MCP over stdio.
package demoserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	Name    = "mcp-arroyave"
	Version = "1.0.0"

	TodaySentence   = "Arroyave feels smart today"
	greetingScheme  = "greeting://"
	greetingPattern = greetingScheme + "{name}"
)

// New builds the demo server with its one tool and one resource template.
func New() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_today_sentence",
		Description: "Get today sentence",
	}, func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: TodaySentence}},
		}, nil, nil
	})

	srv.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "greeting",
		Description: "Get a personalized greeting",
		URITemplate: greetingPattern,
		MIMEType:    "text/plain",
	}, readGreeting)

	return srv
}

func readGreeting(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name, ok := strings.CutPrefix(uri, greetingScheme)
	if !ok || name == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     Greeting(name),
		}},
	}, nil
}

// Greeting is the text served for greeting://{name}.
func Greeting(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

// Run serves the demo server on stdin/stdout until ctx is done or the
// client disconnects.
func Run(ctx context.Context) error {
	slog.Debug("demo server starting", "name", Name)
	if err := New().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("demo server: %w", err)
	}
	return nil
}
