package memory

import (
	"sync"

	"github.com/avellar/chat-service/internal/domain"
)

// GuestStore holds transient guest sessions. Lifetime is process uptime;
// nothing is ever written to disk.
type GuestStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.GuestSession
}

func NewGuestStore() *GuestStore {
	return &GuestStore{
		sessions: make(map[string]*domain.GuestSession),
	}
}

func (s *GuestStore) Get(key string) (*domain.GuestSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	return sess, ok
}

func (s *GuestStore) Put(key string, session *domain.GuestSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key] = session
}
