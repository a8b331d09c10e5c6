package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avellar/chat-service/internal/domain"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

// chatRequest / chatResponse follow the chat-completions wire format
// shared by OpenAI and Groq.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	// MaxTokens caps the reply length; zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAIClient implements domain.ProviderClient against the OpenAI
// chat-completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    openAIBaseURL,
		model:      string(domain.ModelGPT4oMini),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *OpenAIClient) GenerateReply(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	reply, err := completeChat(ctx, c.httpClient, c.baseURL, c.apiKey, c.model, c.maxTokens, messages)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	return reply, nil
}

// completeChat posts a chat-completions request and extracts the first
// choice's content. Used by both the OpenAI and Groq clients.
func completeChat(
	ctx context.Context,
	client *http.Client,
	baseURL, apiKey, model string,
	maxTokens int,
	messages []domain.ChatMessage,
) (string, error) {
	body := chatRequest{
		Model:     model,
		MaxTokens: maxTokens,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("status %d: %s", res.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}

	return parsed.Choices[0].Message.Content, nil
}
