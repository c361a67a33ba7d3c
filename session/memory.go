package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a mutex-guarded map. Process-local; use
// RedisStore when several instances serve the reset flow.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

func (s *MemoryStore) Mint(ctx context.Context, phone string, stage Stage) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = Session{
		PhoneNumber: phone,
		Stage:       stage,
		ExpiresAt:   s.now().Add(TokenTTL),
	}
	return token, nil
}

func (s *MemoryStore) Validate(ctx context.Context, token, phone string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrSessionExpired
	}
	if sess.PhoneNumber != phone {
		return nil, ErrSubjectMismatch
	}
	out := sess
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
