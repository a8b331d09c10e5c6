package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avellar/chat-service/internal/domain"
)

// Store is an in-memory implementation of domain.UserStore and
// domain.ConversationStore. It is NOT persistent and is only suitable
// for development and tests.
type Store struct {
	mu sync.RWMutex

	users         map[domain.UserID]*domain.User
	conversations map[domain.ConversationID]*domain.Conversation
	messages      map[domain.ConversationID][]*domain.Message

	nextUserID    int64
	nextConvID    int64
	nextMessageID int64
}

func NewStore() *Store {
	return &Store{
		users:         make(map[domain.UserID]*domain.User),
		conversations: make(map[domain.ConversationID]*domain.Conversation),
		messages:      make(map[domain.ConversationID][]*domain.Message),
	}
}

// ─────────────────────────────────────────────
// UserStore
// ─────────────────────────────────────────────

func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicateEmail
		}
	}

	s.nextUserID++
	user.ID = domain.UserID(s.nextUserID)
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) GetUserByID(id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByGoogleID(googleID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ─────────────────────────────────────────────
// ConversationStore
// ─────────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConvID++
	conv.ID = domain.ConversationID(s.nextConvID)
	s.conversations[conv.ID] = conv
	return nil
}

func (s *Store) GetConversation(id domain.ConversationID, userID domain.UserID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}

func (s *Store) ListConversationsByUser(userID domain.UserID) ([]*domain.ConversationPreview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ConversationPreview
	for _, conv := range s.conversations {
		if conv.UserID != userID {
			continue
		}
		preview := &domain.ConversationPreview{Conversation: conv}
		if msgs := s.messages[conv.ID]; len(msgs) > 0 {
			preview.First = msgs[0]
		}
		out = append(out, preview)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Conversation.UpdatedAt.After(out[j].Conversation.UpdatedAt)
	})
	return out, nil
}

func (s *Store) DeleteConversation(id domain.ConversationID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != userID {
		return domain.ErrNotFound
	}

	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) AppendMessages(convID domain.ConversationID, msgs []*domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		s.nextMessageID++
		m.ID = domain.MessageID(s.nextMessageID)
		m.ConversationID = convID
		s.messages[convID] = append(s.messages[convID], m)
	}
	return nil
}

func (s *Store) GetMessages(convID domain.ConversationID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.messages[convID], nil
}

func (s *Store) TouchConversation(id domain.ConversationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	conv.UpdatedAt = at
	return nil
}
