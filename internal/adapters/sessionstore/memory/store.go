package memory

import (
	"context"
	"sync"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

type SessionStore struct {
	mu       sync.RWMutex
	clock    services.Clock
	sessions map[string]*domain.UploadSession
}

func NewSessionStore(clock services.Clock) *SessionStore {
	return &SessionStore{
		clock:    clock,
		sessions: make(map[string]*domain.UploadSession),
	}
}

func (s *SessionStore) Put(ctx context.Context, session *domain.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[session.Token] = &copied
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.UploadSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[token]
	if !exists || session.Expired(s.clock.Now()) {
		return nil, nil
	}

	copied := *session
	return &copied, nil
}

func (s *SessionStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
