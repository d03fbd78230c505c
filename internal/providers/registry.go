package providers

import "strings"

// Backend names the SDK that talks to a provider.
type Backend string

const (
	BackendOpenAI    Backend = "openai" // go-openai, any OpenAI-compatible endpoint
	BackendAnthropic Backend = "anthropic"
	BackendBedrock   Backend = "bedrock"
)

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	// Identity
	Name        string   // config key, e.g. "deepseek"
	Keywords    []string // model-name substrings for matching (lowercase)
	Prefixes    []string // model-name prefixes for matching (lowercase)
	EnvKey      string   // env var holding the API key
	DisplayName string   // shown in `mcpchat status`
	Backend     Backend

	// Gateway / local detection
	IsGateway         bool   // routes any model (OpenRouter)
	IsLocal           bool   // local deployment (vLLM, Ollama); key optional
	DetectByKeyPrefix string // match api_key prefix to identify gateway
	DefaultAPIBase    string // fallback base URL when none is configured
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// ---------------------------------------------------------------------------
// PROVIDERS is the registry. Order = match priority.
// ---------------------------------------------------------------------------

var PROVIDERS = []ProviderSpec{
	{
		Name:        "custom",
		DisplayName: "Custom",
		Backend:     BackendOpenAI,
	},
	{
		Name:              "openrouter",
		Keywords:          []string{"openrouter"},
		EnvKey:            "OPENROUTER_API_KEY",
		DisplayName:       "OpenRouter",
		Backend:           BackendOpenAI,
		IsGateway:         true,
		DetectByKeyPrefix: "sk-or-",
		DefaultAPIBase:    "https://openrouter.ai/api/v1",
	},
	{
		Name:        "bedrock",
		Keywords:    []string{"bedrock", "amazon.", "anthropic.claude", "meta.llama", "mistral."},
		DisplayName: "AWS Bedrock",
		Backend:     BackendBedrock,
	},
	{
		Name:        "anthropic",
		Keywords:    []string{"anthropic", "claude"},
		EnvKey:      "ANTHROPIC_API_KEY",
		DisplayName: "Anthropic",
		Backend:     BackendAnthropic,
	},
	{
		Name:        "openai",
		Keywords:    []string{"openai", "gpt"},
		Prefixes:    []string{"o1", "o3", "o4", "chatgpt"},
		EnvKey:      "OPENAI_API_KEY",
		DisplayName: "OpenAI",
		Backend:     BackendOpenAI,
	},
	{
		Name:           "deepseek",
		Keywords:       []string{"deepseek"},
		EnvKey:         "DEEPSEEK_API_KEY",
		DisplayName:    "DeepSeek",
		Backend:        BackendOpenAI,
		DefaultAPIBase: "https://api.deepseek.com/v1",
	},
	{
		Name:           "gemini",
		Keywords:       []string{"gemini"},
		EnvKey:         "GEMINI_API_KEY",
		DisplayName:    "Gemini",
		Backend:        BackendOpenAI,
		DefaultAPIBase: "https://generativelanguage.googleapis.com/v1beta/openai",
	},
	{
		Name:           "groq",
		Keywords:       []string{"groq"},
		EnvKey:         "GROQ_API_KEY",
		DisplayName:    "Groq",
		Backend:        BackendOpenAI,
		DefaultAPIBase: "https://api.groq.com/openai/v1",
	},
	{
		Name:           "vllm",
		Keywords:       []string{"vllm"},
		EnvKey:         "HOSTED_VLLM_API_KEY",
		DisplayName:    "vLLM/Local",
		Backend:        BackendOpenAI,
		IsLocal:        true,
		DefaultAPIBase: "http://localhost:8000/v1",
	},
	{
		Name:           "ollama",
		Keywords:       []string{"ollama"},
		DisplayName:    "Ollama",
		Backend:        BackendOpenAI,
		IsLocal:        true,
		DefaultAPIBase: "http://localhost:11434/v1",
	},
}

// FindByModel matches a standard provider by explicit "provider/" prefix or
// model-name keyword (case-insensitive). Gateways and local providers are
// skipped; those are chosen by name or api key.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	modelNorm := strings.ReplaceAll(modelLower, "-", "_")
	modelPrefix, _, hasSlash := strings.Cut(modelLower, "/")
	normalizedPrefix := strings.ReplaceAll(modelPrefix, "-", "_")

	var std []int
	for i := range PROVIDERS {
		if !PROVIDERS[i].IsGateway && !PROVIDERS[i].IsLocal {
			std = append(std, i)
		}
	}

	// Prefer explicit provider prefix.
	if hasSlash {
		for _, i := range std {
			if normalizedPrefix == PROVIDERS[i].Name {
				return &PROVIDERS[i]
			}
		}
	}

	for _, i := range std {
		spec := &PROVIDERS[i]
		if spec.matchesModel(modelLower, modelNorm) {
			return spec
		}
	}
	return nil
}

func (s *ProviderSpec) matchesModel(modelLower, modelNorm string) bool {
	for _, kw := range s.Keywords {
		kw = strings.ToLower(kw)
		kwNorm := strings.ReplaceAll(kw, "-", "_")
		if strings.Contains(modelLower, kw) || strings.Contains(modelNorm, kwNorm) {
			return true
		}
	}
	for _, p := range s.Prefixes {
		if strings.HasPrefix(modelLower, p) {
			return true
		}
	}
	return false
}

// FindGateway detects a gateway or local provider.
// Priority: (1) explicit provider name, (2) api_key prefix.
func FindGateway(providerName, apiKey string) *ProviderSpec {
	if providerName != "" {
		if s := FindByName(providerName); s != nil && (s.IsGateway || s.IsLocal) {
			return s
		}
	}
	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		if spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// ResolveModel strips a leading "provider/" segment that names spec itself
// so the bare model id reaches the API. Gateways keep any other prefix,
// since they route on it.
func (s *ProviderSpec) ResolveModel(model string) string {
	if s == nil {
		return model
	}
	full := s.Name + "/"
	if strings.HasPrefix(strings.ToLower(model), full) {
		return model[len(full):]
	}
	return model
}
