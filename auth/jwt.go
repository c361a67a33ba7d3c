package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// AccessTokenTTL is the lifetime of a signed access token.
const AccessTokenTTL = 60 * time.Minute

const tokenIssuer = "delivery-backend"

// Claims carries standard and custom claims for access tokens.
type Claims struct {
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	PhoneVerified bool     `json:"phone_verified"`
	Roles         []string `json:"roles"`
	jwt.RegisteredClaims
}

// SignAccessToken creates a signed JWT for the user with the given roles.
func SignAccessToken(secret string, user *entity.User, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:        user.ID.String(),
		Name:          user.FirstName + " " + user.LastName,
		Phone:         user.Phone,
		PhoneVerified: user.PhoneVerified,
		Roles:         roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenIssuer},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidate parses a token and validates signature, issuer, audience
// and expiry.
func ParseAndValidate(secret string, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
