package provider

import (
	"context"
	"fmt"
	"strings"
)

// FactoryConfig holds the settings concrete clients are built from.
type FactoryConfig struct {
	GeminiAPIKey  string
	OllamaBaseURL string
}

// ClientFactory creates generation clients keyed by provider tag.
type ClientFactory struct {
	cfg FactoryConfig
}

// NewFactory creates a client factory.
func NewFactory(cfg FactoryConfig) *ClientFactory {
	return &ClientFactory{cfg: cfg}
}

// Create builds a client for the given provider and model.
func (f *ClientFactory) Create(provider, model string) (Client, error) {
	switch strings.ToLower(provider) {
	case "gemini":
		if f.cfg.GeminiAPIKey == "" {
			return nil, &GenerationError{Provider: "gemini", Message: "API key not configured"}
		}
		return NewGeminiClient(context.Background(), f.cfg.GeminiAPIKey, model)
	case "ollama":
		return NewOllamaClient(f.cfg.OllamaBaseURL, model), nil
	case "mock":
		return NewMockClient(model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s (use gemini, ollama, or mock)", provider)
	}
}
