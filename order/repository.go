package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// Repository defines DB operations for orders.
type Repository interface {
	CreateOrder(ctx context.Context, o *entity.Order) (*entity.Order, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error
	AssignDriver(ctx context.Context, id uuid.UUID, driverID uuid.UUID) error
	ClearAssignment(ctx context.Context, id uuid.UUID) error

	// ListForMerchant returns the merchant's orders, newest first.
	ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error)

	// ActiveForDriver returns the most recently updated order assigned to
	// the driver that is neither delivered nor canceled.
	ActiveForDriver(ctx context.Context, driverID uuid.UUID) (*entity.Order, error)
}
