// Package config defines the configuration schema for mcpchat.
//
// The file format is the de-facto "mcpServers" layout shared by most MCP
// hosts, with optional "assistant" and "providers" sections alongside it.
// JSON keys use camelCase.
package config

import (
	"sort"

	"github.com/crystaldolphin/mcpchat/internal/config/assistant"
	"github.com/crystaldolphin/mcpchat/internal/config/provider"
	"github.com/crystaldolphin/mcpchat/internal/config/tool"
)

// Config is the root configuration object.
type Config struct {
	Assistant  assistant.AssistantConfig       `json:"assistant"`
	Providers  provider.ProvidersConfig        `json:"providers,omitempty"`
	MCPServers map[string]tool.MCPServerConfig `json:"mcpServers"`

	// Rejected lists server entries dropped at load time, with the reason.
	Rejected []RejectedServer `json:"-"`
}

// RejectedServer is a config entry that could not be used.
type RejectedServer struct {
	Name   string
	Reason string
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Assistant:  assistant.DefaultAssistantConfig(),
		Providers:  provider.ProvidersConfig{},
		MCPServers: map[string]tool.MCPServerConfig{},
	}
}

// ServerNames returns the configured server names in sorted order.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderByName returns the ProviderConfig for the given registry name
// (e.g. "openrouter", "anthropic"), or nil if none is configured.
func (c *Config) ProviderByName(name string) *provider.ProviderConfig {
	return c.Providers.ByName(name)
}
