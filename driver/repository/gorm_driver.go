package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	driverpkg "github.com/WaelAlfnan/OrderDelivery-sub000/driver"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// GormDriverRepo implements driver.Repository using GORM (v2).
type GormDriverRepo struct {
	db *gorm.DB
}

func NewGormDriverRepo(db *gorm.DB) driverpkg.Repository {
	return &GormDriverRepo{db: db}
}

func (r *GormDriverRepo) DriverByUserID(ctx context.Context, userID uuid.UUID) (*entity.Driver, error) {
	var d entity.Driver
	err := r.db.WithContext(ctx).Preload("Vehicle").Preload("Residence").First(&d, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, driverpkg.ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormDriverRepo) UpdateAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	res := r.db.WithContext(ctx).Model(&entity.Driver{}).Where("user_id = ?", userID).Update("available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return driverpkg.ErrDriverNotFound
	}
	return nil
}

func (r *GormDriverRepo) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng *float64) error {
	res := r.db.WithContext(ctx).Model(&entity.Driver{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"latitude":            lat,
		"longitude":           lng,
		"location_updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return driverpkg.ErrDriverNotFound
	}
	return nil
}

// ListAvailableNear uses a degree bounding box around the center point. At
// city scale the box error versus true distance is acceptable.
func (r *GormDriverRepo) ListAvailableNear(ctx context.Context, centerLat, centerLng, radiusKm float64, limit int) ([]entity.Driver, error) {
	const kmPerDegree = 111.0
	delta := radiusKm / kmPerDegree

	var drivers []entity.Driver
	q := r.db.WithContext(ctx).
		Where("available = ? AND active = ?", true, true).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", centerLat-delta, centerLat+delta).
		Where("longitude BETWEEN ? AND ?", centerLng-delta, centerLng+delta).
		Order("location_updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}
