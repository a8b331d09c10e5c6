package domain

import (
	"context"
	"time"
)

// ProviderClient defines how the core application talks to an LLM provider.
type ProviderClient interface {
	GenerateReply(ctx context.Context, messages []ChatMessage) (string, error)
}

// UserStore defines user persistence.
type UserStore interface {
	CreateUser(user *User) error
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id UserID) (*User, error)
	GetUserByGoogleID(googleID string) (*User, error)
}

// ConversationStore defines conversation and message persistence.
// All lookups are scoped to the owning user: a conversation that exists
// but belongs to someone else behaves exactly like a missing one.
type ConversationStore interface {
	CreateConversation(conv *Conversation) error
	GetConversation(id ConversationID, userID UserID) (*Conversation, error)
	ListConversationsByUser(userID UserID) ([]*ConversationPreview, error)
	DeleteConversation(id ConversationID, userID UserID) error

	AppendMessages(convID ConversationID, msgs []*Message) error
	GetMessages(convID ConversationID) ([]*Message, error)
	TouchConversation(id ConversationID, at time.Time) error
}

// GuestStore keeps unpersisted guest sessions keyed by an opaque string.
type GuestStore interface {
	Get(key string) (*GuestSession, bool)
	Put(key string, session *GuestSession)
}
