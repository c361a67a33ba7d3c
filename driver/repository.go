package driver

import (
	"context"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// Repository specifies driver-profile database operations.
type Repository interface {
	DriverByUserID(ctx context.Context, userID uuid.UUID) (*entity.Driver, error)
	UpdateAvailability(ctx context.Context, userID uuid.UUID, available bool) error
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng *float64) error
	ListAvailableNear(ctx context.Context, centerLat, centerLng, radiusKm float64, limit int) ([]entity.Driver, error)
}
