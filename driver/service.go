package driver

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

var ErrDriverNotFound = errors.New("driver not found")

// Service exposes driver-profile operations used after registration has
// completed: availability toggling and live location updates.
type Service interface {
	ProfileByUserID(ctx context.Context, userID uuid.UUID) (*entity.Driver, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng *float64) error
	// FindAvailableNear lists available drivers within radiusKm of a point.
	FindAvailableNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]entity.Driver, error)
}
