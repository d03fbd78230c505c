package tool

import (
	"errors"
	"os"
	"strings"
)

// MCPServerConfig describes how to launch one stdio MCP server.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Validate reports whether the entry has the fields needed to launch it.
func (c MCPServerConfig) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return errors.New("missing command")
	}
	return nil
}

// Environ returns the environment for the server subprocess: the parent
// environment with the configured overrides applied on top. Override values
// may reference other variables as ${NAME}; they are expanded against the
// current process environment, which already includes loaded secrets.
func (c MCPServerConfig) Environ() []string {
	merged := map[string]string{}
	order := make([]string, 0, len(c.Env))
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := merged[k]; !seen {
			order = append(order, k)
		}
		merged[k] = v
	}
	for k, v := range c.Env {
		if _, seen := merged[k]; !seen {
			order = append(order, k)
		}
		merged[k] = os.ExpandEnv(v)
	}

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+merged[k])
	}
	return env
}
