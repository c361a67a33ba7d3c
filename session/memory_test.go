package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMintAndValidate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	token, err := s.Mint(ctx, "+15551234567", StageCodeSent)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if len(token) < 32 {
		t.Fatalf("token too short: %d chars", len(token))
	}

	sess, err := s.Validate(ctx, token, "+15551234567")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if sess.Stage != StageCodeSent {
		t.Fatalf("stage = %q, want %q", sess.Stage, StageCodeSent)
	}

	// Validate does not consume the token
	if _, err := s.Validate(ctx, token, "+15551234567"); err != nil {
		t.Fatalf("second Validate: %v", err)
	}
}

func TestValidateSubjectMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	token, err := s.Mint(ctx, "+15551234567", StageCodeSent)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := s.Validate(ctx, token, "+15559999999"); !errors.Is(err, ErrSubjectMismatch) {
		t.Fatalf("Validate = %v, want ErrSubjectMismatch", err)
	}
}

func TestValidateExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	token, err := s.Mint(ctx, "+15551234567", StageCodeVerified)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	minted := time.Now()
	s.now = func() time.Time { return minted.Add(TokenTTL + time.Second) }

	if _, err := s.Validate(ctx, token, "+15551234567"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Validate = %v, want ErrSessionExpired", err)
	}
	// the expired session was reaped
	s.now = time.Now
	if _, err := s.Validate(ctx, token, "+15551234567"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Validate after reap = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	token, err := s.Mint(ctx, "+15551234567", StageCodeSent)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := s.Delete(ctx, token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Validate(ctx, token, "+15551234567"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Validate after delete = %v, want ErrSessionNotFound", err)
	}
}

func TestMintedTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := s.Mint(ctx, "+15551234567", StageCodeSent)
		if err != nil {
			t.Fatalf("Mint #%d: %v", i, err)
		}
		if seen[token] {
			t.Fatalf("duplicate token minted: %s", token)
		}
		seen[token] = true
	}
}
