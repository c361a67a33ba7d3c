// Package session binds the multi-call password-reset flow together with
// rotating, short-lived checkpoint tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// TokenTTL is how long a minted checkpoint token stays valid.
const TokenTTL = 10 * time.Minute

const tokenBytes = 32

// Stage records how far along the reset flow a session has progressed.
type Stage string

const (
	StageCodeSent     Stage = "code_sent"
	StageCodeResent   Stage = "code_resent"
	StageCodeVerified Stage = "code_verified"
)

var (
	ErrSessionNotFound = errors.New("reset session not found")
	ErrSessionExpired  = errors.New("reset session expired")
	ErrSubjectMismatch = errors.New("reset session subject mismatch")
)

// Session is one checkpoint in a reset flow. Each successful step deletes
// the current token and mints a new one, so a token proves exactly one
// position in the chain and cannot be replayed.
type Session struct {
	PhoneNumber string
	Stage       Stage
	ExpiresAt   time.Time
}

// Store mints and validates reset checkpoint tokens. Validate does not
// consume the token; callers delete-and-remint on each successful step.
type Store interface {
	Mint(ctx context.Context, phone string, stage Stage) (string, error)
	Validate(ctx context.Context, token, phone string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// generateToken returns an opaque URL-safe random token.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
