package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avellar/chat-service/internal/domain"
)

func stubCompletion(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerateReply(t *testing.T) {
	var got chatRequest
	srv := stubCompletion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello back"}},
			},
		})
	})

	client := NewOpenAIClient("test-key")
	client.baseURL = srv.URL

	reply, err := client.GenerateReply(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("GenerateReply failed: %v", err)
	}
	if reply != "hello back" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if got.Model != string(domain.ModelGPT4oMini) {
		t.Fatalf("unexpected model %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("message list not forwarded verbatim: %+v", got.Messages)
	}
}

func TestOpenAIUpstreamError(t *testing.T) {
	srv := stubCompletion(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	client := NewOpenAIClient("test-key")
	client.baseURL = srv.URL

	_, err := client.GenerateReply(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "openai") {
		t.Fatalf("error must name the provider: %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error must carry the raw body: %v", err)
	}
}

func TestOpenAIEmptyCompletion(t *testing.T) {
	srv := stubCompletion(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	client := NewOpenAIClient("test-key")
	client.baseURL = srv.URL

	_, err := client.GenerateReply(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err == nil || !strings.Contains(err.Error(), "empty completion") {
		t.Fatalf("expected empty completion error, got %v", err)
	}
}

func TestGroqUsesItsOwnModelAndName(t *testing.T) {
	var got chatRequest
	srv := stubCompletion(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := NewGroqClient("groq-key")
	client.baseURL = srv.URL

	_, err := client.GenerateReply(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err == nil || !strings.Contains(err.Error(), "groq") {
		t.Fatalf("error must name the provider: %v", err)
	}
	if got.Model != string(domain.ModelLlama33) {
		t.Fatalf("unexpected model %q", got.Model)
	}
}

func TestMockRegistryCoversSupportedModels(t *testing.T) {
	reg := NewMockRegistry(NewMockProvider())

	for _, m := range []domain.ModelID{domain.ModelGPT4oMini, domain.ModelLlama33, domain.ModelGeminiFlash} {
		if _, ok := reg.Lookup(m); !ok {
			t.Fatalf("model %s not registered", m)
		}
	}
	if _, ok := reg.Lookup("gpt-9000"); ok {
		t.Fatal("unknown model must not resolve")
	}
}
