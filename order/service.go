package order

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrNotAssignedDriver  = errors.New("driver is not assigned to this order")
	ErrOrderNotCancelable = errors.New("order can no longer be canceled")
	ErrNotOrderOwner      = errors.New("order belongs to another merchant")
)

// transitions lists the allowed next states per current state. A status
// absent from the map is terminal.
var transitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderPending:  {entity.OrderAssigned, entity.OrderCanceledByMerchant},
	entity.OrderAssigned: {entity.OrderAccepted, entity.OrderDeclined, entity.OrderCanceledByMerchant},
	entity.OrderAccepted: {entity.OrderPickedUp, entity.OrderCanceledByMerchant, entity.OrderCanceledByDriver},
	entity.OrderDeclined: {entity.OrderAssigned, entity.OrderCanceledByMerchant},
	entity.OrderPickedUp: {entity.OrderDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to entity.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type CreateOrderRequest struct {
	MerchantID     uuid.UUID
	ReceiverPhone  string
	PickupAddress  string
	DropoffAddress string
	PriceCents     int64
}

type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*entity.Order, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error)
	ActiveForDriver(ctx context.Context, driverID uuid.UUID) (*entity.Order, error)

	AssignDriver(ctx context.Context, orderID, driverID uuid.UUID) (*entity.Order, error)
	// UpdateStatus applies a driver-side transition. When byDriverID is set
	// the order must currently be assigned to that driver.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus entity.OrderStatus, byDriverID *uuid.UUID) (*entity.Order, error)
	CancelByMerchant(ctx context.Context, orderID, merchantID uuid.UUID) (*entity.Order, error)
	CancelByDriver(ctx context.Context, orderID, driverID uuid.UUID) (*entity.Order, error)
}
