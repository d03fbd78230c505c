package tools

import (
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	tools    map[string]schema.Tool
	rejected []string
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]schema.Tool)}
}

// WithTool adds a tool and returns the builder, enabling chaining.
// A tool whose name is already taken is dropped; the first one wins.
func (b *RegistryBuilder) WithTool(tool schema.Tool) *RegistryBuilder {
	name := tool.Name()
	if _, taken := b.tools[name]; taken {
		slog.Warn("duplicate tool name, keeping the first", "tool", name)
		b.rejected = append(b.rejected, name)
		return b
	}
	b.tools[name] = tool
	return b
}

// WithTools adds every tool in order.
func (b *RegistryBuilder) WithTools(tools ...schema.Tool) *RegistryBuilder {
	for _, t := range tools {
		b.WithTool(t)
	}
	return b
}

// Rejected returns the names dropped as duplicates, in the order seen.
func (b *RegistryBuilder) Rejected() []string {
	out := make([]string, len(b.rejected))
	copy(out, b.rejected)
	return out
}

// Build produces an immutable Registry from the accumulated tools.
// Each tool's input schema is compiled for argument validation; a schema
// that does not compile disables validation for that tool only.
func (b *RegistryBuilder) Build() *Registry {
	r := &Registry{
		tools:      make(map[string]schema.Tool, len(b.tools)),
		validators: make(map[string]*gojsonschema.Schema, len(b.tools)),
	}
	for k, v := range b.tools {
		r.tools[k] = v
		s, err := compileSchema(v.Parameters())
		if err != nil {
			slog.Warn("tool schema does not compile, arguments will not be validated", "tool", k, "err", err)
			continue
		}
		r.validators[k] = s
	}
	r.sortNames()
	return r
}
