package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Merchant stores merchant-specific data collected during registration.
type Merchant struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID       uuid.UUID      `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	StoreName    string         `json:"store_name" gorm:"type:text;not null"`
	BusinessType string         `json:"business_type" gorm:"type:text"`
	StoreAddress string         `json:"store_address" gorm:"type:text"`
	Latitude     *float64       `json:"latitude,omitempty" gorm:"type:double precision"`
	Longitude    *float64       `json:"longitude,omitempty" gorm:"type:double precision"`
	Active       bool           `json:"active" gorm:"default:true;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
