package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus enumerates the lifecycle of a delivery order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"   // created, awaiting a driver
	OrderAssigned  OrderStatus = "assigned"  // assigned to a driver, awaiting accept/decline
	OrderAccepted  OrderStatus = "accepted"  // driver accepted
	OrderDeclined  OrderStatus = "declined"  // driver declined
	OrderPickedUp  OrderStatus = "picked_up" // package picked up from the merchant
	OrderDelivered OrderStatus = "delivered" // delivered to the receiver
	// Cancellation states
	OrderCanceledByMerchant OrderStatus = "canceled_by_merchant"
	OrderCanceledByDriver   OrderStatus = "canceled_by_driver"
)

// Order captures a delivery request created by a merchant.
type Order struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MerchantID     uuid.UUID  `json:"merchant_id" gorm:"type:uuid;index;not null"`
	AssignedDriver *uuid.UUID `json:"assigned_driver,omitempty" gorm:"type:uuid;index;default:null"`
	ReceiverPhone  string     `json:"receiver_phone" gorm:"type:text;not null"`
	PickupAddress  string     `json:"pickup_address" gorm:"type:text;not null"`
	DropoffAddress string     `json:"dropoff_address" gorm:"type:text;not null"`
	// PriceCents stores the quoted price in minor units
	PriceCents int64          `json:"price_cents" gorm:"type:bigint;not null;default:0"`
	Status     OrderStatus    `json:"status" gorm:"type:text;index;not null;default:'pending'"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
