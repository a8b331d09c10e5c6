package gormstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/avellar/chat-service/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestCreateUserAndDuplicates(t *testing.T) {
	s := newTestStore(t)

	u := &domain.User{Email: "a@b.c", Username: "alice", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected an assigned id")
	}

	if err := s.CreateUser(&domain.User{Email: "a@b.c"}); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	got, err := s.GetUserByEmail("a@b.c")
	if err != nil || got.Username != "alice" {
		t.Fatalf("GetUserByEmail: got %v, %v", got, err)
	}
}

func TestConversationRoundTrip(t *testing.T) {
	s := newTestStore(t)

	user := &domain.User{Email: "a@b.c", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateUser(user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	now := time.Now()
	conv := &domain.Conversation{
		UserID:    user.ID,
		Title:     "Go Basics",
		Model:     domain.DefaultModel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateConversation(conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	exchange := []*domain.Message{
		{Role: domain.RoleUser, Content: "hi", CreatedAt: now},
		{Role: domain.RoleAssistant, Content: "hello", CreatedAt: now.Add(time.Millisecond)},
	}
	if err := s.AppendMessages(conv.ID, exchange); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	msgs, err := s.GetMessages(conv.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	// Scoped lookup: a different user sees nothing.
	if _, err := s.GetConversation(conv.ID, user.ID+1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListConversationsByUser(user.ID)
	if err != nil {
		t.Fatalf("ListConversationsByUser failed: %v", err)
	}
	if len(list) != 1 || list[0].First == nil || list[0].First.Content != "hi" {
		t.Fatalf("unexpected preview: %+v", list)
	}
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)

	user := &domain.User{Email: "a@b.c", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateUser(user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	conv := &domain.Conversation{UserID: user.ID, Title: "t", Model: domain.DefaultModel, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateConversation(conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if err := s.AppendMessages(conv.ID, []*domain.Message{{Role: domain.RoleUser, Content: "hi", CreatedAt: time.Now()}}); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	if err := s.DeleteConversation(conv.ID, user.ID+1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	if err := s.DeleteConversation(conv.ID, user.ID); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if _, err := s.GetConversation(conv.ID, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected conversation to be gone, got %v", err)
	}
	msgs, err := s.GetMessages(conv.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatal("expected messages to be cascade-deleted")
	}
}

func TestTouchConversation(t *testing.T) {
	s := newTestStore(t)

	user := &domain.User{Email: "a@b.c", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateUser(user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	conv := &domain.Conversation{UserID: user.ID, Title: "t", Model: domain.DefaultModel, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateConversation(conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	later := time.Now().Add(time.Hour)
	if err := s.TouchConversation(conv.ID, later); err != nil {
		t.Fatalf("TouchConversation failed: %v", err)
	}

	got, err := s.GetConversation(conv.ID, user.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if !got.UpdatedAt.After(conv.CreatedAt.Add(30 * time.Minute)) {
		t.Fatal("expected updated_at to move forward")
	}
}
