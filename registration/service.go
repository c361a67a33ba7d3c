// Package registration drives the multi-step registration saga: a pending
// record per phone number accumulates wizard step payloads and is
// materialized into permanent identity and role entities on completion.
package registration

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

var (
	ErrAlreadyRegistered = errors.New("phone already has a registration")
	ErrPendingNotFound   = errors.New("no registration in progress for phone")
	ErrStepOrder         = errors.New("registration step out of order")
	ErrPhoneNotVerified  = errors.New("phone not verified")
	ErrInvalidPhone      = errors.New("invalid phone number format")
	ErrInvalidRole       = errors.New("invalid role")
	ErrRoleMismatch      = errors.New("operation not allowed for selected role")
	ErrRoleNotSet        = errors.New("role not selected")
	ErrPasswordNotSet    = errors.New("password not set")
	ErrBasicInfoMissing  = errors.New("basic info not provided")
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
)

// phonePattern accepts E.164-like phone numbers.
var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// ValidPhone reports whether phone is in the accepted E.164-like format.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Photo is raw photo evidence submitted with a wizard step.
type Photo struct {
	FileName string
	Data     []byte
}

// BasicInfo is the payload persisted by SetBasicInfo. Photo URLs point at
// the storage collaborator.
type BasicInfo struct {
	FullName         string `json:"full_name"`
	NationalID       string `json:"national_id"`
	PersonalPhotoURL string `json:"personal_photo_url"`
	IDFrontPhotoURL  string `json:"id_front_photo_url"`
	IDBackPhotoURL   string `json:"id_back_photo_url"`
}

// MerchantInfo is the payload persisted by SetMerchantInfo.
type MerchantInfo struct {
	StoreName    string   `json:"store_name"`
	BusinessType string   `json:"business_type"`
	StoreAddress string   `json:"store_address"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// DriverInfo is the payload persisted by SetDriverInfo.
type DriverInfo struct {
	LicenseNumber string     `json:"license_number"`
	LicenseExpiry *time.Time `json:"license_expiry,omitempty"`
}

// VehicleInfo is the payload persisted by SetVehicleInfo.
type VehicleInfo struct {
	Type          entity.VehicleType `json:"type"`
	Model         string             `json:"model"`
	PlateNumber   string             `json:"plate_number"`
	Color         string             `json:"color"`
	FrontPhotoURL string             `json:"front_photo_url"`
	SidePhotoURL  string             `json:"side_photo_url"`
}

// ResidenceInfo is the payload persisted by SetResidenceInfo.
type ResidenceInfo struct {
	Region  string `json:"region"`
	City    string `json:"city"`
	Street  string `json:"street"`
	Details string `json:"details,omitempty"`
}

// SetVehicleInfoRequest carries vehicle data plus the two mandatory photos.
type SetVehicleInfoRequest struct {
	Type        entity.VehicleType
	Model       string
	PlateNumber string
	Color       string
	FrontPhoto  Photo
	SidePhoto   Photo
}

// Service is the registration orchestrator. Operations must be called in
// step order; an operation for step K requires the cursor to have reached
// at least K-1. Re-submitting an already-applied step is accepted while its
// precondition holds and re-sets the cursor to that step's own number.
type Service interface {
	StartRegistration(ctx context.Context, phone string) error
	VerifyPhone(ctx context.Context, phone, code string) error
	SetPassword(ctx context.Context, phone, password string) error
	SetRole(ctx context.Context, phone string, role entity.RegistrationRole) error
	SetBasicInfo(ctx context.Context, phone, fullName, nationalID string, personal, idFront, idBack Photo) error
	SetMerchantInfo(ctx context.Context, phone string, info MerchantInfo) error
	SetDriverInfo(ctx context.Context, phone string, info DriverInfo) error
	SetVehicleInfo(ctx context.Context, phone string, req SetVehicleInfoRequest) error
	SetResidenceInfo(ctx context.Context, phone string, info ResidenceInfo) error
	CompleteRegistration(ctx context.Context, phone string) (*entity.User, error)
}
