package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists why a set of arguments does not satisfy a tool's
// input schema.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// Validate checks args against the input schema of the named tool.
// Tools without a compiled schema accept any arguments.
func (r *Registry) Validate(name string, args map[string]any) error {
	s, ok := r.validators[name]
	if !ok {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("validate arguments for %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &ValidationError{Tool: name, Problems: problems}
}

// compileSchema loads a raw JSON schema. The "$schema" keyword is dropped
// since servers often declare drafts newer than the validator knows, and
// the keywords tools use in practice are common to all of them.
func compileSchema(raw json.RawMessage) (*gojsonschema.Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "$schema")
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
}
