package llm

import (
	"context"

	"github.com/avellar/chat-service/internal/config"
	"github.com/avellar/chat-service/internal/domain"
)

// Registry maps model identifiers to provider clients. The chat service
// selects a provider with a plain lookup instead of branching on strings.
type Registry map[domain.ModelID]domain.ProviderClient

// NewRegistry wires one client per supported model from the configured
// credentials. The Gemini client needs a context because its SDK dials
// on construction.
func NewRegistry(ctx context.Context, cfg *config.Config) (Registry, error) {
	gemini, err := NewGeminiClient(ctx, cfg.GeminiKey)
	if err != nil {
		return nil, err
	}

	return Registry{
		domain.ModelGPT4oMini:   NewOpenAIClient(cfg.OpenAIKey),
		domain.ModelLlama33:     NewGroqClient(cfg.GroqKey),
		domain.ModelGeminiFlash: gemini,
	}, nil
}

// NewMockRegistry returns a registry where every supported model is
// served by the same mock. Used in tests and local development.
func NewMockRegistry(mock domain.ProviderClient) Registry {
	return Registry{
		domain.ModelGPT4oMini:   mock,
		domain.ModelLlama33:     mock,
		domain.ModelGeminiFlash: mock,
	}
}

// Lookup returns the client serving the given model.
func (r Registry) Lookup(model domain.ModelID) (domain.ProviderClient, bool) {
	c, ok := r[model]
	return c, ok
}
