package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenTTL is the lifetime of an opaque refresh token.
const RefreshTokenTTL = 7 * 24 * time.Hour

// MaxRefreshTokensPerUser caps retained refresh tokens per user; the oldest
// rows beyond the cap are evicted when a new token is issued.
const MaxRefreshTokensPerUser = 5

// ResendCooldown is the minimum interval between reset-code sends.
const ResendCooldown = time.Minute

var (
	// ErrInvalidCredentials is deliberately generic so login responses do
	// not reveal whether the phone exists.
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// CooldownError reports how long the caller has to wait before the next
// resend attempt.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("code recently sent, retry in %s", e.Wait.Round(time.Second))
}

// TokenPair is an access + refresh token issued together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	UserID        uuid.UUID `json:"user_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone"`
	PhoneVerified bool      `json:"phone_verified"`
	Roles         []string  `json:"roles"`
}

// ResetTicket is the checkpoint handed back by each reset-flow step. The
// session token rotates on every step; the client presents the latest one.
type ResetTicket struct {
	SessionToken string `json:"session_token"`
	// Code echoes the verified code back from VerifyCode; the client
	// resubmits it with SetNewPassword as a second proof.
	Code string `json:"code,omitempty"`
}

// TokenIssuer creates, rotates and revokes token material.
type TokenIssuer interface {
	IssueTokenPair(ctx context.Context, userID uuid.UUID, ip string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken, ip string) (*TokenPair, error)
	RevokeAll(ctx context.Context, userID uuid.UUID, reason string) error
}

// Service provides login, logout, profile, token refresh and the
// forgot-password flow.
type Service interface {
	Login(ctx context.Context, phone, password, ip string) (*TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Refresh(ctx context.Context, refreshToken, ip string) (*TokenPair, error)

	ForgotPassword(ctx context.Context, phone string) (*ResetTicket, error)
	ResendCode(ctx context.Context, sessionToken, phone string) (*ResetTicket, error)
	VerifyCode(ctx context.Context, sessionToken, phone, code string) (*ResetTicket, error)
	SetNewPassword(ctx context.Context, sessionToken, phone, code, newPassword string) error
}
