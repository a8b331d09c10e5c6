package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/avellar/chat-service/internal/adapters/llm"
	"github.com/avellar/chat-service/internal/adapters/storage/memory"
	"github.com/avellar/chat-service/internal/app/chat"
	"github.com/avellar/chat-service/internal/domain"
)

func newTestService() (*chat.Service, *llm.MockProvider, *memory.Store) {
	mock := llm.NewMockProvider()
	store := memory.NewStore()
	svc := chat.NewService(llm.NewMockRegistry(mock), store, memory.NewGuestStore())
	return svc, mock, store
}

func TestSendMessageEmptyText(t *testing.T) {
	svc, mock, _ := newTestService()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(context.Background(), chat.SendMessageInput{Text: text})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("text %q: expected ErrInvalidInput, got %v", text, err)
		}
	}

	if mock.CallCount() != 0 {
		t.Fatalf("expected no provider calls, got %d", mock.CallCount())
	}
}

func TestSendMessageUnsupportedModel(t *testing.T) {
	svc, mock, _ := newTestService()

	_, err := svc.SendMessage(context.Background(), chat.SendMessageInput{
		Text:  "Hello",
		Model: "gpt-9000",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("expected no provider calls, got %d", mock.CallCount())
	}
}

func TestGuestTurnAccumulatesHistory(t *testing.T) {
	svc, mock, _ := newTestService()
	mock.Reply = "hi there"

	out, err := svc.SendMessage(context.Background(), chat.SendMessageInput{Text: "Hello"})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if !out.IsGuest {
		t.Fatal("expected guest turn")
	}
	if out.ConversationID != nil {
		t.Fatal("guest turn must not return a conversation id")
	}
	if out.Model != domain.DefaultModel {
		t.Fatalf("expected default model, got %s", out.Model)
	}
	if out.Reply != "hi there" {
		t.Fatalf("unexpected reply %q", out.Reply)
	}

	// Second turn should carry system prompt + first exchange + new text.
	if _, err := svc.SendMessage(context.Background(), chat.SendMessageInput{Text: "Again"}); err != nil {
		t.Fatalf("second SendMessage failed: %v", err)
	}

	last := mock.LastCall()
	if len(last) != 4 {
		t.Fatalf("expected 4 messages on second turn, got %d", len(last))
	}
	if last[0].Role != domain.RoleSystem {
		t.Fatalf("expected system message first, got %s", last[0].Role)
	}
	if last[1].Content != "Hello" || last[2].Content != "hi there" {
		t.Fatalf("history not carried: %+v", last)
	}
}

func TestGuestModelLockedOnFirstTurn(t *testing.T) {
	svc, _, _ := newTestService()

	out, err := svc.SendMessage(context.Background(), chat.SendMessageInput{
		Text:  "Hello",
		Model: string(domain.ModelLlama33),
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if out.Model != domain.ModelLlama33 {
		t.Fatalf("expected locked model %s, got %s", domain.ModelLlama33, out.Model)
	}

	// A differing model on a later guest call is ignored.
	out, err = svc.SendMessage(context.Background(), chat.SendMessageInput{
		Text:  "Another",
		Model: string(domain.ModelGeminiFlash),
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if out.Model != domain.ModelLlama33 {
		t.Fatalf("expected model to stay %s, got %s", domain.ModelLlama33, out.Model)
	}
}

func TestAuthenticatedNewConversation(t *testing.T) {
	svc, _, store := newTestService()

	out, err := svc.SendMessage(context.Background(), chat.SendMessageInput{
		UserID:        1,
		Authenticated: true,
		Text:          "What is Go?",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if out.IsGuest {
		t.Fatal("expected authenticated turn")
	}
	if out.ConversationID == nil {
		t.Fatal("expected a fresh conversation id")
	}

	conv, err := store.GetConversation(*out.ConversationID, 1)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if conv.Model != domain.DefaultModel {
		t.Fatalf("expected locked default model, got %s", conv.Model)
	}
	if conv.Title == "" {
		t.Fatal("expected a generated title")
	}

	msgs, err := store.GetMessages(conv.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user+assistant rows, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestConversationModelStaysLocked(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	out, err := svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:        1,
		Authenticated: true,
		Text:          "first",
		Model:         string(domain.ModelGeminiFlash),
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	// Supplying a different model on a follow-up turn is ignored.
	out2, err := svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:         1,
		Authenticated:  true,
		ConversationID: out.ConversationID,
		Text:           "second",
		Model:          string(domain.ModelGPT4oMini),
	})
	if err != nil {
		t.Fatalf("second SendMessage failed: %v", err)
	}
	if out2.Model != domain.ModelGeminiFlash {
		t.Fatalf("expected locked model %s, got %s", domain.ModelGeminiFlash, out2.Model)
	}
	if *out2.ConversationID != *out.ConversationID {
		t.Fatal("expected the same conversation to be reused")
	}
}

func TestUnownedConversationIsNotFound(t *testing.T) {
	svc, mock, _ := newTestService()
	ctx := context.Background()

	out, err := svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:        1,
		Authenticated: true,
		Text:          "mine",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	calls := mock.CallCount()

	_, err = svc.SendMessage(ctx, chat.SendMessageInput{
		UserID:         2,
		Authenticated:  true,
		ConversationID: out.ConversationID,
		Text:           "not mine",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mock.CallCount() != calls {
		t.Fatal("provider must not be called for an unowned conversation")
	}
}

func TestProviderFailureSurfaces(t *testing.T) {
	svc, mock, _ := newTestService()
	mock.Err = errors.New("openai: status 500: boom")

	_, err := svc.SendMessage(context.Background(), chat.SendMessageInput{Text: "Hello"})
	if err == nil {
		t.Fatal("expected provider failure to surface")
	}
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("provider failure mapped to the wrong class: %v", err)
	}
}

func TestGenerateTitleFallsBack(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Err = errors.New("down")
	svc := chat.NewService(llm.NewMockRegistry(mock), memory.NewStore(), memory.NewGuestStore())

	title := svc.GenerateTitle(context.Background(), "Hello there")
	if title != chat.FallbackTitle {
		t.Fatalf("expected fallback title, got %q", title)
	}
}

func TestGenerateTitleTrimsQuotes(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Reply = "\"Go Basics\"\n"
	svc := chat.NewService(llm.NewMockRegistry(mock), memory.NewStore(), memory.NewGuestStore())

	title := svc.GenerateTitle(context.Background(), "What is Go?")
	if title != "Go Basics" {
		t.Fatalf("expected trimmed title, got %q", title)
	}
}
