package entity

import (
	"time"
)

// RegistrationRole is the role selected during the registration wizard.
type RegistrationRole string

const (
	RegistrationRoleMerchant RegistrationRole = "merchant"
	RegistrationRoleDriver   RegistrationRole = "driver"
)

// Registration wizard step cursor values. The cursor records the highest
// step the caller has completed; an operation for step K requires the
// cursor to have reached at least K-1.
const (
	StepPhoneRegistered = 1
	StepPhoneVerified   = 2
	StepPasswordSet     = 3
	StepRoleSet         = 4
	StepBasicInfoSet    = 5
	StepRoleInfoSet     = 6
	StepVehicleSet      = 7
	StepResidenceSet    = 8
)

// PendingRegistration tracks one in-flight registration saga per phone
// number. Step payloads are accumulated as JSON blobs and only
// materialized into User/Merchant/Driver rows at completion, after which
// the pending row is deleted.
type PendingRegistration struct {
	ID                uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	PhoneNumber       string            `json:"phone_number" gorm:"type:text;uniqueIndex;not null"`
	IsPhoneVerified   bool              `json:"is_phone_verified" gorm:"default:false"`
	Role              *RegistrationRole `json:"role,omitempty" gorm:"type:text;default:null"`
	Step              int               `json:"step" gorm:"not null;default:1"`
	PasswordHash      string            `json:"-" gorm:"type:text"`
	BasicInfoJSON     string            `json:"-" gorm:"type:text;column:basic_info_json"`
	MerchantInfoJSON  string            `json:"-" gorm:"type:text;column:merchant_info_json"`
	DriverInfoJSON    string            `json:"-" gorm:"type:text;column:driver_info_json"`
	VehicleInfoJSON   string            `json:"-" gorm:"type:text;column:vehicle_info_json"`
	ResidenceInfoJSON string            `json:"-" gorm:"type:text;column:residence_info_json"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
