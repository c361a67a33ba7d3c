package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// TokenRepository persists refresh tokens. Revocation is a conditional
// single-row mutation so that two concurrent exchanges of the same token
// produce exactly one winner.
type TokenRepository interface {
	StoreToken(ctx context.Context, t *entity.RefreshToken) error
	TokenByValue(ctx context.Context, token string) (*entity.RefreshToken, error)
	// RevokeToken marks the token revoked iff it is not already; reports
	// whether this call was the one that revoked it.
	RevokeToken(ctx context.Context, token, reason, ip string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error
	// EvictOldest deletes the user's oldest tokens by created_on until at
	// most keep rows remain.
	EvictOldest(ctx context.Context, userID uuid.UUID, keep int) error
}
