package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a long-lived opaque credential owned by a user. Rows are
// mutated only through the token issuer: rotated on use, revoked on logout
// or password change, and capped per user with FIFO eviction.
type RefreshToken struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID        uuid.UUID  `json:"user_id" gorm:"type:uuid;index;not null"`
	Token         string     `json:"-" gorm:"type:text;uniqueIndex;not null"`
	CreatedOn     time.Time  `json:"created_on" gorm:"not null"`
	ExpiresOn     time.Time  `json:"expires_on" gorm:"not null"`
	CreatedByIP   string     `json:"created_by_ip" gorm:"type:text"`
	RevokedOn     *time.Time `json:"revoked_on,omitempty" gorm:"default:null"`
	RevokedReason string     `json:"revoked_reason,omitempty" gorm:"type:text"`
	RevokedByIP   string     `json:"revoked_by_ip,omitempty" gorm:"type:text"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresOn)
}

// Active reports whether the token can still be exchanged: not revoked and
// not expired.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedOn == nil && !t.Expired(now)
}
