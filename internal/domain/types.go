package domain

import "time"

type UserID int64
type ConversationID int64
type MessageID int64

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ModelID identifies one of the supported provider models.
type ModelID string

const (
	ModelGPT4oMini   ModelID = "gpt-4o-mini"
	ModelLlama33     ModelID = "llama-3.3-70b-versatile"
	ModelGeminiFlash ModelID = "gemini-2.0-flash"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = ModelGPT4oMini

type Timestamp = time.Time
