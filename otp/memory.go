package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps codes in a mutex-guarded map. Suitable for a single
// process; multi-instance deployments should use RedisStore so all
// instances observe the same codes.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]Code
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]Code), now: time.Now}
}

func codeKey(subject, purpose string) string {
	return subject + ":" + purpose
}

func (s *MemoryStore) Issue(ctx context.Context, subject, purpose string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	// last writer wins: a reissue replaces any prior code for the key
	s.codes[codeKey(subject, purpose)] = Code{
		Value:     code,
		IssuedAt:  now,
		ExpiresAt: now.Add(CodeTTL),
	}
	return code, nil
}

func (s *MemoryStore) Get(ctx context.Context, subject, purpose string) (*Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey(subject, purpose)
	c, ok := s.codes[key]
	if !ok {
		return nil, ErrCodeNotFound
	}
	if s.now().After(c.ExpiresAt) {
		delete(s.codes, key)
		return nil, ErrCodeExpired
	}
	out := c
	return &out, nil
}

func (s *MemoryStore) Verify(ctx context.Context, subject, purpose, candidate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey(subject, purpose)
	c, ok := s.codes[key]
	if !ok {
		return ErrCodeNotFound
	}
	if s.now().After(c.ExpiresAt) {
		delete(s.codes, key)
		return ErrCodeExpired
	}
	if c.Value != candidate {
		return ErrCodeMismatch
	}
	delete(s.codes, key)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, subject, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, codeKey(subject, purpose))
	return nil
}
