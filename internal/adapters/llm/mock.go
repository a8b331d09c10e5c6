package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/avellar/chat-service/internal/domain"
)

// MockProvider is a canned ProviderClient for tests and local development.
// It records every call so tests can assert whether a provider was hit.
type MockProvider struct {
	Reply string
	Err   error

	mu    sync.Mutex
	calls [][]domain.ChatMessage
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) GenerateReply(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("mock: no messages")
	}
	last := messages[len(messages)-1]
	return fmt.Sprintf("You said %q. Tell me more.", last.Content), nil
}

// CallCount returns how many times GenerateReply was invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the message list of the most recent invocation.
func (m *MockProvider) LastCall() []domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
