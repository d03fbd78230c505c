package config

import (
	"os"
	"strings"

	"github.com/crystaldolphin/mcpchat/internal/config/provider"
	"github.com/crystaldolphin/mcpchat/internal/providers"
)

// MatchResult is the resolved LLM provider config and registry entry for a model.
// Provider is already ${VAR}-expanded.
type MatchResult struct {
	Provider provider.ProviderConfig
	Spec     *providers.ProviderSpec
	Name     string // e.g. "openrouter", "anthropic"
}

// MatchProvider resolves which provider to use for model.
// If model is empty, assistant.model is used.
//
// Priority order:
//  1. assistant.provider, when set
//  2. Explicit provider prefix in the model string ("deepseek/deepseek-chat")
//  3. Keyword match in the model name (registry order)
//  4. First provider with usable credentials (registry order)
//  5. openai
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Assistant.Model
	}

	if c.Assistant.Provider != "" {
		if spec := providers.FindByName(c.Assistant.Provider); spec != nil {
			return c.result(spec)
		}
	}

	modelLower := strings.ToLower(model)
	if prefix, _, ok := strings.Cut(modelLower, "/"); ok {
		if spec := providers.FindByName(prefix); spec != nil {
			return c.result(spec)
		}
	}

	if spec := providers.FindByModel(model); spec != nil {
		return c.result(spec)
	}

	for i := range providers.PROVIDERS {
		spec := &providers.PROVIDERS[i]
		if c.hasCredentials(spec) {
			return c.result(spec)
		}
	}

	return c.result(providers.FindByName(provider.ProviderOpenAI))
}

func (c *Config) result(spec *providers.ProviderSpec) MatchResult {
	var p provider.ProviderConfig
	if cfg := c.ProviderByName(spec.Name); cfg != nil {
		p = cfg.Expanded()
	}
	return MatchResult{Provider: p, Spec: spec, Name: spec.Name}
}

// hasCredentials reports whether spec could be used without further setup.
// Bedrock only counts when it is configured explicitly, since the AWS
// credential chain cannot be probed cheaply.
func (c *Config) hasCredentials(spec *providers.ProviderSpec) bool {
	cfg := c.ProviderByName(spec.Name)
	switch {
	case spec.Backend == providers.BackendBedrock:
		return cfg != nil
	case cfg != nil && cfg.Expanded().APIKey != "":
		return true
	case spec.EnvKey != "" && os.Getenv(spec.EnvKey) != "":
		return true
	}
	return false
}

// APIKey returns the effective API key: the configured key, else the
// provider's environment variable.
func (m MatchResult) APIKey() string {
	if m.Provider.APIKey != "" {
		return m.Provider.APIKey
	}
	if m.Spec != nil && m.Spec.EnvKey != "" {
		return os.Getenv(m.Spec.EnvKey)
	}
	return ""
}

// APIBase returns the effective API base URL.
// Precedence: configured apiBase > the registry default.
func (m MatchResult) APIBase() string {
	if m.Provider.APIBase != "" {
		return m.Provider.APIBase
	}
	if m.Spec != nil {
		return m.Spec.DefaultAPIBase
	}
	return ""
}
