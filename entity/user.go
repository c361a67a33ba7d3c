package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names assignable to a user at registration completion.
const (
	RoleMerchant = "merchant"
	RoleDriver   = "driver"
)

// Role is a named role assignable to users (merchant, driver).
type Role struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name      string    `json:"name" gorm:"type:text;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is the permanent identity record. It is created only when a
// registration saga completes; until then data lives in PendingRegistration.
type User struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	FirstName     string         `json:"first_name" gorm:"type:text;not null"`
	LastName      string         `json:"last_name" gorm:"type:text;not null"`
	Phone         string         `json:"phone" gorm:"type:text;uniqueIndex;not null"`
	PhoneVerified bool           `json:"phone_verified" gorm:"default:false;index"`
	PasswordHash  string         `json:"-" gorm:"type:text;not null"`
	NationalID    string         `json:"national_id,omitempty" gorm:"type:text"`
	Roles         []Role         `json:"roles,omitempty" gorm:"many2many:user_roles"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
