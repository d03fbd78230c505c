package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// maxToolNameLen is the longest function name the OpenAI API accepts.
const maxToolNameLen = 64

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ToolName returns the registry name for tool on server: "<server>_<tool>"
// with characters outside [a-zA-Z0-9_-] replaced and the result truncated
// to 64 characters.
func ToolName(server, tool string) string {
	name := invalidNameChars.ReplaceAllString(server+"_"+tool, "_")
	if len(name) > maxToolNameLen {
		name = name[:maxToolNameLen]
	}
	return name
}

// Tool wraps a single tool discovered from an MCP server and implements schema.Tool.
type Tool struct {
	session     *Session
	name        string
	origName    string
	description string
	parameters  json.RawMessage
}

func newTool(s *Session, t *mcp.Tool) *Tool {
	return &Tool{
		session:     s,
		name:        ToolName(s.name, t.Name),
		origName:    t.Name,
		description: t.Description,
		parameters:  inputSchema(s.name, t),
	}
}

func (t *Tool) Name() string                { return t.name }
func (t *Tool) Description() string         { return t.description }
func (t *Tool) Parameters() json.RawMessage { return t.parameters }

// Server returns the name of the owning server.
func (t *Tool) Server() string { return t.session.name }

// OriginalName returns the tool name as the server knows it.
func (t *Tool) OriginalName() string { return t.origName }

// Execute calls the tool on its owning session and returns the result text.
// A transport failure is returned as is. A result the server marked as an
// error comes back as its text together with a *ResultError.
func (t *Tool) Execute(ctx context.Context, params map[string]any) (string, error) {
	res, err := t.session.CallTool(ctx, t.origName, params)
	if err != nil {
		return "", fmt.Errorf("call %s on %s: %w", t.origName, t.session.name, err)
	}
	text := ResultText(res)
	if res.IsError {
		return text, &ResultError{Tool: t.name, Text: text}
	}
	return text, nil
}

// Ensure Tool implements schema.Tool at compile time.
var _ schema.Tool = (*Tool)(nil)

// ResultText flattens a tool result into the text handed to the LLM.
// Text blocks are joined with newlines; other block kinds are summarised.
func ResultText(res *mcp.CallToolResult) string {
	if res == nil {
		return "(no output)"
	}
	var parts []string
	for _, c := range res.Content {
		switch block := c.(type) {
		case *mcp.TextContent:
			if block.Text != "" {
				parts = append(parts, block.Text)
			}
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s]", block.MIMEType))
		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[audio %s]", block.MIMEType))
		case *mcp.ResourceLink:
			parts = append(parts, fmt.Sprintf("[resource %s]", block.URI))
		case *mcp.EmbeddedResource:
			if block.Resource == nil {
				continue
			}
			if block.Resource.Text != "" {
				parts = append(parts, block.Resource.Text)
			} else {
				parts = append(parts, fmt.Sprintf("[resource %s]", block.Resource.URI))
			}
		}
	}
	if len(parts) == 0 && res.StructuredContent != nil {
		if b, err := json.Marshal(res.StructuredContent); err == nil {
			parts = append(parts, string(b))
		}
	}

	out := strings.Join(parts, "\n")
	if out == "" {
		out = "(no output)"
	}
	return out
}

// fallbackInput is advertised for tools that publish no usable schema.
type fallbackInput struct {
	Query string `json:"query" jsonschema:"description=Input for tool"`
}

var fallbackSchema = func() json.RawMessage {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&fallbackInput{})
	s.Version = ""
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}()

// FallbackSchema returns the single-required-"query" schema used when a
// tool's own input schema is missing or not an object schema.
func FallbackSchema() json.RawMessage {
	out := make(json.RawMessage, len(fallbackSchema))
	copy(out, fallbackSchema)
	return out
}

func inputSchema(server string, t *mcp.Tool) json.RawMessage {
	if t.InputSchema == nil {
		return FallbackSchema()
	}
	raw, err := json.Marshal(t.InputSchema)
	if err != nil {
		slog.Warn("MCP tool schema unusable", "server", server, "tool", t.Name, "err", err)
		return FallbackSchema()
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return FallbackSchema()
	}
	typ, hasType := obj["type"]
	if hasType && typ != "object" {
		slog.Warn("MCP tool schema is not an object", "server", server, "tool", t.Name, "type", typ)
		return FallbackSchema()
	}
	if !hasType {
		obj["type"] = "object"
	}
	if _, ok := obj["properties"]; !ok {
		obj["properties"] = map[string]any{}
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return FallbackSchema()
	}
	return out
}
