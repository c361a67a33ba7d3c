// Package otp keys short-lived one-time codes by (subject, purpose) and
// enforces their single-use contract.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 10 * time.Minute

// Purposes under which codes are issued. A code issued for one purpose never
// verifies under another.
const (
	PurposeRegister = "register"
	PurposeReset    = "reset"
)

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// Code is an issued one-time code. IssuedAt is stored explicitly so resend
// cool-downs never have to reconstruct it from the expiry.
type Code struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CodeStore issues and verifies one-time codes.
//
// Verify fails closed on a missing key, fails and deletes the entry on
// expiry, fails without deleting on mismatch, and succeeds and deletes the
// entry on match; a code therefore verifies at most once. Get is a
// non-consuming read used for cool-down checks and defense-in-depth
// re-validation.
type CodeStore interface {
	Issue(ctx context.Context, subject, purpose string) (string, error)
	Get(ctx context.Context, subject, purpose string) (*Code, error)
	Verify(ctx context.Context, subject, purpose, candidate string) error
	Delete(ctx context.Context, subject, purpose string) error
}

// generateCode returns a cryptographically random 6-digit decimal code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
