package gormstore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avellar/chat-service/internal/domain"
)

// userRecord is the persisted auth user row.
type userRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;size:320;not null"`
	Username     string `gorm:"size:120"`
	PasswordHash string `gorm:"size:255"`
	GoogleID     string `gorm:"index;size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type conversationRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"index;not null"`
	Title     string `gorm:"size:255;not null"`
	Model     string `gorm:"size:64;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Conversations are cascade-deleted when their owner is removed.
	User userRecord `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (conversationRecord) TableName() string { return "conversations" }

type messageRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ConversationID int64     `gorm:"index;not null"`
	Role           string    `gorm:"size:16;not null;check:role IN ('user','assistant')"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"index"`

	// Messages are cascade-deleted when their conversation is removed.
	Conversation conversationRecord `gorm:"foreignKey:ConversationID;references:ID;constraint:OnDelete:CASCADE"`
}

func (messageRecord) TableName() string { return "messages" }

// Store implements domain.UserStore and domain.ConversationStore on a
// SQLite database through GORM.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&userRecord{}, &conversationRecord{}, &messageRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// ─────────────────────────────────────────────
// UserStore
// ─────────────────────────────────────────────

func (s *Store) CreateUser(user *domain.User) error {
	rec := userRecord{
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.GoogleID,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	var existing userRecord
	err := s.db.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return domain.ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking existing user: %w", err)
	}

	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	user.ID = domain.UserID(rec.ID)
	return nil
}

func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var rec userRecord
	if err := s.db.Where("email = ?", email).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return toUser(&rec), nil
}

func (s *Store) GetUserByID(id domain.UserID) (*domain.User, error) {
	var rec userRecord
	if err := s.db.First(&rec, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return toUser(&rec), nil
}

func (s *Store) GetUserByGoogleID(googleID string) (*domain.User, error) {
	var rec userRecord
	if err := s.db.Where("google_id = ?", googleID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user by google id: %w", err)
	}
	return toUser(&rec), nil
}

// ─────────────────────────────────────────────
// ConversationStore
// ─────────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	rec := conversationRecord{
		UserID:    int64(conv.UserID),
		Title:     conv.Title,
		Model:     string(conv.Model),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}

	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}

	conv.ID = domain.ConversationID(rec.ID)
	return nil
}

func (s *Store) GetConversation(id domain.ConversationID, userID domain.UserID) (*domain.Conversation, error) {
	var rec conversationRecord
	err := s.db.Where("id = ? AND user_id = ?", int64(id), int64(userID)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching conversation: %w", err)
	}
	return toConversation(&rec), nil
}

func (s *Store) ListConversationsByUser(userID domain.UserID) ([]*domain.ConversationPreview, error) {
	var recs []conversationRecord
	err := s.db.
		Where("user_id = ?", int64(userID)).
		Order("updated_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	out := make([]*domain.ConversationPreview, 0, len(recs))
	for i := range recs {
		preview := &domain.ConversationPreview{Conversation: toConversation(&recs[i])}

		var first messageRecord
		err := s.db.
			Where("conversation_id = ?", recs[i].ID).
			Order("created_at ASC").
			First(&first).Error
		if err == nil {
			preview.First = toMessage(&first)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fetching preview message: %w", err)
		}

		out = append(out, preview)
	}
	return out, nil
}

func (s *Store) DeleteConversation(id domain.ConversationID, userID domain.UserID) error {
	var rec conversationRecord
	err := s.db.Where("id = ? AND user_id = ?", int64(id), int64(userID)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("fetching conversation: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", rec.ID).Delete(&messageRecord{}).Error; err != nil {
			return fmt.Errorf("deleting messages: %w", err)
		}
		if err := tx.Delete(&conversationRecord{}, rec.ID).Error; err != nil {
			return fmt.Errorf("deleting conversation: %w", err)
		}
		return nil
	})
}

func (s *Store) AppendMessages(convID domain.ConversationID, msgs []*domain.Message) error {
	recs := make([]messageRecord, 0, len(msgs))
	for _, m := range msgs {
		recs = append(recs, messageRecord{
			ConversationID: int64(convID),
			Role:           string(m.Role),
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		})
	}

	if err := s.db.Create(&recs).Error; err != nil {
		return fmt.Errorf("appending messages: %w", err)
	}

	for i := range msgs {
		msgs[i].ID = domain.MessageID(recs[i].ID)
		msgs[i].ConversationID = convID
	}
	return nil
}

func (s *Store) GetMessages(convID domain.ConversationID) ([]*domain.Message, error) {
	var recs []messageRecord
	err := s.db.
		Where("conversation_id = ?", int64(convID)).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	out := make([]*domain.Message, 0, len(recs))
	for i := range recs {
		out = append(out, toMessage(&recs[i]))
	}
	return out, nil
}

func (s *Store) TouchConversation(id domain.ConversationID, at time.Time) error {
	err := s.db.Model(&conversationRecord{}).
		Where("id = ?", int64(id)).
		Update("updated_at", at).Error
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────────

func toUser(r *userRecord) *domain.User {
	return &domain.User{
		ID:           domain.UserID(r.ID),
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		GoogleID:     r.GoogleID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toConversation(r *conversationRecord) *domain.Conversation {
	return &domain.Conversation{
		ID:        domain.ConversationID(r.ID),
		UserID:    domain.UserID(r.UserID),
		Title:     r.Title,
		Model:     domain.ModelID(r.Model),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMessage(r *messageRecord) *domain.Message {
	return &domain.Message{
		ID:             domain.MessageID(r.ID),
		ConversationID: domain.ConversationID(r.ConversationID),
		Role:           domain.Role(r.Role),
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
	}
}
