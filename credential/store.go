// Package credential fronts the identity records: user rows, password
// hashes, and role assignment. Both orchestrators consume it through the
// Store interface; the gorm implementation lives in credential/repository.
package credential

import (
	"context"
	"errors"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrPhoneTaken       = errors.New("phone already registered")
)

// NewUser carries the fields needed to create a permanent identity.
type NewUser struct {
	FirstName     string
	LastName      string
	Phone         string
	PhoneVerified bool
	PasswordHash  string
	NationalID    string
}

// Store exposes identity operations. Password material never leaves the
// store: CheckPassword compares a candidate against the stored hash, and
// UpdatePassword accepts plaintext and hashes it internally.
type Store interface {
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	CheckPassword(ctx context.Context, userID uuid.UUID, password string) error
	CreateUser(ctx context.Context, u NewUser) (*entity.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error
	// EnsureRole returns the named role, creating it if missing.
	EnsureRole(ctx context.Context, name string) (*entity.Role, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error
	GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
}