package domain

// User is an identity record. PasswordHash is empty for federated accounts,
// GoogleID is empty for local accounts.
type User struct {
	ID           UserID
	Email        string
	Username     string
	PasswordHash string
	GoogleID     string
	CreatedAt    Timestamp
	UpdatedAt    Timestamp
}

// Conversation is a persisted thread owned by exactly one user.
// Model is locked when the conversation is created and never changes.
type Conversation struct {
	ID        ConversationID
	UserID    UserID
	Title     string
	Model     ModelID
	CreatedAt Timestamp
	UpdatedAt Timestamp
}

// Message is one utterance within a conversation. Append-only.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Role           Role
	Content        string
	CreatedAt      Timestamp
}

// ConversationPreview pairs a conversation with its first message,
// used by the conversation list endpoint.
type ConversationPreview struct {
	Conversation *Conversation
	First        *Message
}

// ChatMessage is the normalized wire form sent to a provider.
type ChatMessage struct {
	Role    Role
	Content string
}

// GuestSession holds the transient history for unauthenticated callers.
// It lives only in process memory and is lost on restart.
type GuestSession struct {
	Model ModelID
	Turns []ChatMessage
}
