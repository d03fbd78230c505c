package provider

import "os"

const (
	ProviderCustom     = "custom"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderBedrock    = "bedrock"
	ProviderOpenRouter = "openrouter"
	ProviderDeepSeek   = "deepseek"
	ProviderGroq       = "groq"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderVLLM       = "vllm"
)

// ProviderConfig holds credentials for one LLM provider.
// APISecret and Region are only read by the Bedrock backend.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey,omitempty"`
	APIBase      string            `json:"apiBase,omitempty"`
	APISecret    string            `json:"apiSecret,omitempty"`
	Region       string            `json:"region,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// Expanded returns a copy with ${VAR} references resolved against the
// process environment.
func (p ProviderConfig) Expanded() ProviderConfig {
	out := ProviderConfig{
		APIKey:    os.ExpandEnv(p.APIKey),
		APIBase:   os.ExpandEnv(p.APIBase),
		APISecret: os.ExpandEnv(p.APISecret),
		Region:    os.ExpandEnv(p.Region),
	}
	if len(p.ExtraHeaders) > 0 {
		out.ExtraHeaders = make(map[string]string, len(p.ExtraHeaders))
		for k, v := range p.ExtraHeaders {
			out.ExtraHeaders[k] = os.ExpandEnv(v)
		}
	}
	return out
}

// ProvidersConfig maps a registry provider name to its credentials.
type ProvidersConfig map[string]ProviderConfig

// ByName returns the config for name, or nil if none is configured.
func (p ProvidersConfig) ByName(name string) *ProviderConfig {
	c, ok := p[name]
	if !ok {
		return nil
	}
	return &c
}
