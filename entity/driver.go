package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleType enumerates driver vehicle capabilities.
type VehicleType string

const (
	VehicleBike    VehicleType = "bike"
	VehicleMotor   VehicleType = "motorbike"
	VehicleCar     VehicleType = "car"
	VehicleBicycle VehicleType = "bicycle"
	VehicleOther   VehicleType = "other"
)

// Driver stores driver-specific data collected at registration and afterwards.
type Driver struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID            uuid.UUID      `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	LicenseNumber     string         `json:"license_number" gorm:"type:text"`
	LicenseExpiry     *time.Time     `json:"license_expiry,omitempty"`
	PersonalPhotoURL  string         `json:"personal_photo_url,omitempty" gorm:"type:text"`
	Active            bool           `json:"active" gorm:"default:true;index"`
	Available         bool           `json:"available" gorm:"default:false;index"`
	Latitude          *float64       `json:"latitude,omitempty" gorm:"type:double precision"`
	Longitude         *float64       `json:"longitude,omitempty" gorm:"type:double precision"`
	LocationUpdatedAt *time.Time     `json:"location_updated_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
	// Relations
	Vehicle   *Vehicle   `json:"vehicle,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Residence *Residence `json:"residence,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Vehicle is the vehicle a driver registered with.
type Vehicle struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	DriverID      uuid.UUID      `json:"driver_id" gorm:"type:uuid;uniqueIndex;not null"`
	Type          VehicleType    `json:"type" gorm:"type:text;index;not null"`
	Model         string         `json:"model" gorm:"type:text"`
	PlateNumber   string         `json:"plate_number" gorm:"type:text;not null"`
	Color         string         `json:"color" gorm:"type:text"`
	FrontPhotoURL string         `json:"front_photo_url,omitempty" gorm:"type:text"`
	SidePhotoURL  string         `json:"side_photo_url,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// Residence is the driver's declared place of residence.
type Residence struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	DriverID  uuid.UUID      `json:"driver_id" gorm:"type:uuid;uniqueIndex;not null"`
	Region    string         `json:"region" gorm:"type:text;not null"`
	City      string         `json:"city" gorm:"type:text;not null"`
	Street    string         `json:"street" gorm:"type:text"`
	Details   string         `json:"details,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
