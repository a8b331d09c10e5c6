package firestore

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/avellar/chat-service/internal/domain"
)

// Store implements domain.UserStore and domain.ConversationStore on
// Firestore. Numeric ids are generated from the clock; good enough for
// a single-process deployment, matching the rest of the system.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

var lastID int64

// nextID returns a strictly increasing id even when two documents are
// created within the same nanosecond.
func nextID() int64 {
	for {
		id := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastID)
		if id <= last {
			id = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastID, last, id) {
			return id
		}
	}
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) usersCol() *firestore.CollectionRef {
	return s.client.Collection("users")
}

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *Store) conversationDoc(id domain.ConversationID) *firestore.DocumentRef {
	return s.conversationsCol().Doc(strconv.FormatInt(int64(id), 10))
}

func (s *Store) messagesCol(id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationDoc(id).Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type userDoc struct {
	Email        string    `firestore:"email"`
	Username     string    `firestore:"username"`
	PasswordHash string    `firestore:"password_hash"`
	GoogleID     string    `firestore:"google_id"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

type conversationDoc struct {
	UserID    int64     `firestore:"user_id"`
	Title     string    `firestore:"title"`
	Model     string    `firestore:"model"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// UserStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateUser(user *domain.User) error {
	ctx := context.Background()

	existing, err := s.GetUserByEmail(user.Email)
	if err == nil && existing != nil {
		return domain.ErrDuplicateEmail
	}

	id := nextID()
	doc := userDoc{
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.GoogleID,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	if _, err := s.usersCol().Doc(strconv.FormatInt(id, 10)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateUser: %w", err)
	}

	user.ID = domain.UserID(id)
	return nil
}

func (s *Store) getUserWhere(field, value string) (*domain.User, error) {
	ctx := context.Background()

	iter := s.usersCol().Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore user query: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode userDoc: %w", err)
	}

	id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", snap.Ref.ID, err)
	}

	return &domain.User{
		ID:           domain.UserID(id),
		Email:        doc.Email,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		GoogleID:     doc.GoogleID,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	return s.getUserWhere("email", email)
}

func (s *Store) GetUserByGoogleID(googleID string) (*domain.User, error) {
	return s.getUserWhere("google_id", googleID)
}

func (s *Store) GetUserByID(id domain.UserID) (*domain.User, error) {
	ctx := context.Background()

	snap, err := s.usersCol().Doc(strconv.FormatInt(int64(id), 10)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetUserByID: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode userDoc: %w", err)
	}

	return &domain.User{
		ID:           id,
		Email:        doc.Email,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		GoogleID:     doc.GoogleID,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	ctx := context.Background()

	id := nextID()
	doc := conversationDoc{
		UserID:    int64(conv.UserID),
		Title:     conv.Title,
		Model:     string(conv.Model),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}

	if _, err := s.conversationsCol().Doc(strconv.FormatInt(id, 10)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateConversation: %w", err)
	}

	conv.ID = domain.ConversationID(id)
	return nil
}

func (s *Store) GetConversation(id domain.ConversationID, userID domain.UserID) (*domain.Conversation, error) {
	ctx := context.Background()

	snap, err := s.conversationDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetConversation: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode conversationDoc: %w", err)
	}

	if doc.UserID != int64(userID) {
		return nil, domain.ErrNotFound
	}

	return &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     doc.Title,
		Model:     domain.ModelID(doc.Model),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) ListConversationsByUser(userID domain.UserID) ([]*domain.ConversationPreview, error) {
	ctx := context.Background()

	q := s.conversationsCol().
		Where("user_id", "==", int64(userID)).
		OrderBy("updated_at", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.ConversationPreview
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListConversationsByUser: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}

		id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse conversation id %q: %w", snap.Ref.ID, err)
		}

		conv := &domain.Conversation{
			ID:        domain.ConversationID(id),
			UserID:    userID,
			Title:     doc.Title,
			Model:     domain.ModelID(doc.Model),
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		}

		preview := &domain.ConversationPreview{Conversation: conv}
		first, err := s.firstMessage(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		preview.First = first

		out = append(out, preview)
	}
	return out, nil
}

func (s *Store) firstMessage(ctx context.Context, convID domain.ConversationID) (*domain.Message, error) {
	iter := s.messagesCol(convID).OrderBy("created_at", firestore.Asc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore firstMessage: %w", err)
	}

	return decodeMessage(snap, convID)
}

func (s *Store) DeleteConversation(id domain.ConversationID, userID domain.UserID) error {
	ctx := context.Background()

	// Ownership check first; behaves like a miss for foreign conversations.
	if _, err := s.GetConversation(id, userID); err != nil {
		return err
	}

	iter := s.messagesCol(id).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("firestore DeleteConversation: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("firestore delete message: %w", err)
		}
	}

	if _, err := s.conversationDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete conversation: %w", err)
	}
	return nil
}

func (s *Store) AppendMessages(convID domain.ConversationID, msgs []*domain.Message) error {
	ctx := context.Background()

	for _, m := range msgs {
		id := nextID()
		doc := messageDoc{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}

		ref := s.messagesCol(convID).Doc(strconv.FormatInt(id, 10))
		if _, err := ref.Set(ctx, doc); err != nil {
			return fmt.Errorf("firestore AppendMessages: %w", err)
		}

		m.ID = domain.MessageID(id)
		m.ConversationID = convID
	}
	return nil
}

func (s *Store) GetMessages(convID domain.ConversationID) ([]*domain.Message, error) {
	ctx := context.Background()

	iter := s.messagesCol(convID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetMessages: %w", err)
		}

		msg, err := decodeMessage(snap, convID)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *Store) TouchConversation(id domain.ConversationID, at time.Time) error {
	ctx := context.Background()

	_, err := s.conversationDoc(id).Set(ctx, map[string]interface{}{
		"updated_at": at,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore TouchConversation: %w", err)
	}
	return nil
}

func decodeMessage(snap *firestore.DocumentSnapshot, convID domain.ConversationID) (*domain.Message, error) {
	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode messageDoc: %w", err)
	}

	id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse message id %q: %w", snap.Ref.ID, err)
	}

	return &domain.Message{
		ID:             domain.MessageID(id),
		ConversationID: convID,
		Role:           domain.Role(doc.Role),
		Content:        doc.Content,
		CreatedAt:      doc.CreatedAt,
	}, nil
}
