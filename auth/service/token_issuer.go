package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	authpkg "github.com/WaelAlfnan/OrderDelivery-sub000/auth"
	"github.com/WaelAlfnan/OrderDelivery-sub000/credential"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

const refreshTokenBytes = 32

// tokenIssuer implements authpkg.TokenIssuer on top of the credential store
// and the refresh-token repository.
type tokenIssuer struct {
	creds  credential.Store
	tokens authpkg.TokenRepository
	secret string
	log    *zap.Logger
}

func NewTokenIssuer(creds credential.Store, tokens authpkg.TokenRepository, secret string, log *zap.Logger) authpkg.TokenIssuer {
	return &tokenIssuer{creds: creds, tokens: tokens, secret: secret, log: log}
}

func (s *tokenIssuer) IssueTokenPair(ctx context.Context, userID uuid.UUID, ip string) (*authpkg.TokenPair, error) {
	user, err := s.creds.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.creds.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	access, err := authpkg.SignAccessToken(s.secret, user, roles)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &entity.RefreshToken{
		UserID:      userID,
		Token:       refresh,
		CreatedOn:   now,
		ExpiresOn:   now.Add(authpkg.RefreshTokenTTL),
		CreatedByIP: ip,
	}
	if err := s.tokens.StoreToken(ctx, row); err != nil {
		return nil, err
	}
	if err := s.tokens.EvictOldest(ctx, userID, authpkg.MaxRefreshTokensPerUser); err != nil {
		// eviction failure leaves extra rows around but the issued pair is valid
		s.log.Warn("refresh token eviction failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	return &authpkg.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *tokenIssuer) Refresh(ctx context.Context, refreshToken, ip string) (*authpkg.TokenPair, error) {
	row, err := s.tokens.TokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, authpkg.ErrInvalidToken
	}
	if !row.Active(time.Now()) {
		return nil, authpkg.ErrInvalidToken
	}

	// Claim the token before issuing anything: of two concurrent exchanges
	// only the caller that flips revoked_on proceeds.
	won, err := s.tokens.RevokeToken(ctx, refreshToken, "Token refreshed", ip)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, authpkg.ErrInvalidToken
	}

	pair, err := s.IssueTokenPair(ctx, row.UserID, ip)
	if err != nil {
		return nil, err
	}
	s.log.Debug("refresh token rotated", zap.String("user_id", row.UserID.String()))
	return pair, nil
}

func (s *tokenIssuer) RevokeAll(ctx context.Context, userID uuid.UUID, reason string) error {
	return s.tokens.RevokeAllForUser(ctx, userID, reason)
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
