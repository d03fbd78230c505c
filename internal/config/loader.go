package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/mcpchat/internal/config/tool"
)

// DefaultConfigPath is the config file read when --config is not given.
const DefaultConfigPath = "mcp_config.json"

// ConfigPath returns the config path to use; an empty path resolves to
// DefaultConfigPath in the working directory.
func ConfigPath(path string) string {
	if path == "" {
		return DefaultConfigPath
	}
	return path
}

// Load reads and parses the config file at path.
// If path is empty, DefaultConfigPath is used.
//
// Files ending in .yaml or .yml are parsed as YAML; everything else as JSON.
// The document may either wrap servers in an "mcpServers" object or be a
// bare map of server name to server spec. Entries without a command are
// dropped and recorded in Config.Rejected.
func Load(path string) (*Config, error) {
	path = ConfigPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	raw, err := decodeDocument(path, data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	cfg := DefaultConfig()
	if isWrapped(raw) {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("parse: %w", err)}
		}
	} else {
		servers := map[string]tool.MCPServerConfig{}
		if err := json.Unmarshal(raw, &servers); err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("parse: %w", err)}
		}
		cfg.MCPServers = servers
	}

	cfg.validateServers()
	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
// If path is empty, DefaultConfigPath is used.
func Save(cfg *Config, path string) error {
	path = ConfigPath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// decodeDocument normalises the file to JSON so both formats share one
// decoding path and one set of struct tags.
func decodeDocument(path string, data []byte) (json.RawMessage, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		if !json.Valid(data) {
			var v any
			err := json.Unmarshal(data, &v)
			return nil, fmt.Errorf("parse: %w", err)
		}
		return data, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if doc == nil {
		return nil, errors.New("parse: empty document")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return out, nil
}

// isWrapped reports whether the document uses the top-level section layout
// rather than a bare server map.
func isWrapped(raw json.RawMessage) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		// Not an object; let the caller's decode produce the error.
		return true
	}
	for _, key := range []string{"mcpServers", "assistant", "providers"} {
		if _, ok := top[key]; ok {
			return true
		}
	}
	return false
}

func (c *Config) validateServers() {
	if c.MCPServers == nil {
		c.MCPServers = map[string]tool.MCPServerConfig{}
	}
	for _, name := range c.ServerNames() {
		reason := ""
		if strings.TrimSpace(name) == "" {
			reason = "empty server name"
		} else if err := c.MCPServers[name].Validate(); err != nil {
			reason = err.Error()
		}
		if reason == "" {
			continue
		}
		slog.Warn("skipping MCP server entry", "server", name, "reason", reason)
		c.Rejected = append(c.Rejected, RejectedServer{Name: name, Reason: reason})
		delete(c.MCPServers, name)
	}
}
