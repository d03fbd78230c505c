package assistant

import "time"

const DefaultModel = "o4-mini"

type AssistantConfig struct {
	Model                 string  `json:"model"`
	Provider              string  `json:"provider,omitempty"`
	MaxTokens             int     `json:"maxTokens"`
	Temperature           float64 `json:"temperature"`
	AllowNoTools          bool    `json:"allowNoTools"`
	ConnectTimeoutSeconds int     `json:"connectTimeoutSeconds"`
	MaxParallelConnects   int     `json:"maxParallelConnects"`
}

func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		Model:                 DefaultModel,
		MaxTokens:             4096,
		ConnectTimeoutSeconds: 30,
		MaxParallelConnects:   4,
	}
}

// ConnectTimeout bounds the handshake and tool listing of a single server.
func (a AssistantConfig) ConnectTimeout() time.Duration {
	if a.ConnectTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.ConnectTimeoutSeconds) * time.Second
}
