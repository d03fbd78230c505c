package providers

import (
	"context"
	"fmt"

	"github.com/crystaldolphin/mcpchat/internal/schema"
)

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	APISecret    string // Bedrock only
	Region       string // Bedrock only
	ExtraHeaders map[string]string
	DefaultModel string
	ProviderName string // registry name, e.g. "openrouter", "anthropic"
}

// New creates the appropriate schema.LLMProvider for the given params,
// chosen by the registry entry's backend. Unknown names fall back to the
// OpenAI-compatible backend.
func New(ctx context.Context, p Params) (schema.LLMProvider, error) {
	spec := FindByName(p.ProviderName)
	backend := BackendOpenAI
	if spec != nil {
		backend = spec.Backend
	}

	switch backend {
	case BackendAnthropic:
		if p.APIKey == "" {
			return nil, missingKeyError(spec)
		}
		return NewAnthropicProvider(p), nil
	case BackendBedrock:
		return NewBedrockProvider(ctx, p)
	default:
		if p.APIKey == "" && !allowsKeyless(spec, p.APIBase) {
			return nil, missingKeyError(spec)
		}
		return NewOpenAIProvider(p), nil
	}
}

// allowsKeyless reports whether an OpenAI-compatible endpoint may be used
// without an API key: local servers, and custom endpoints with a base URL.
func allowsKeyless(spec *ProviderSpec, apiBase string) bool {
	if spec == nil || spec.Name == "custom" {
		return apiBase != ""
	}
	return spec.IsLocal
}

func missingKeyError(spec *ProviderSpec) error {
	if spec == nil || spec.EnvKey == "" {
		return fmt.Errorf("no API key configured")
	}
	return fmt.Errorf("no API key for %s: set %s in the environment or .env file, or providers.%s.apiKey in the config",
		spec.Label(), spec.EnvKey, spec.Name)
}
