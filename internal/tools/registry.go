package tools

import (
	"encoding/json"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// Registry is the flat lookup from registry name to tool. It is built once
// by RegistryBuilder and never mutated afterwards.
type Registry struct {
	tools      map[string]schema.Tool
	names      []string
	validators map[string]*gojsonschema.Schema
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.names) }

// Resolve returns the tool registered under name.
func (r *Registry) Resolve(name string) (schema.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Describe returns every tool sorted by name, for prompt construction.
func (r *Registry) Describe() []schema.Tool {
	out := make([]schema.Tool, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.tools[n])
	}
	return out
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Definitions returns all tool definitions in OpenAI function-calling
// format, sorted by name. It returns nil for an empty registry so callers
// can pass the result straight to a provider.
func (r *Registry) Definitions() []map[string]any {
	if len(r.names) == 0 {
		return nil
	}
	list := make([]map[string]any, 0, len(r.names))
	for _, t := range r.Describe() {
		var params any
		if err := json.Unmarshal(t.Parameters(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  params,
			},
		})
	}
	return list
}

func (r *Registry) sortNames() {
	r.names = r.names[:0]
	for n := range r.tools {
		r.names = append(r.names, n)
	}
	sort.Strings(r.names)
}
