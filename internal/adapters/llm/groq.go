package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avellar/chat-service/internal/domain"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient implements domain.ProviderClient against Groq's
// OpenAI-compatible chat-completions endpoint.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGroqClient(apiKey string) *GroqClient {
	return &GroqClient{
		apiKey:     apiKey,
		baseURL:    groqBaseURL,
		model:      string(domain.ModelLlama33),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *GroqClient) GenerateReply(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	reply, err := completeChat(ctx, c.httpClient, c.baseURL, c.apiKey, c.model, 0, messages)
	if err != nil {
		return "", fmt.Errorf("groq: %w", err)
	}
	return reply, nil
}
