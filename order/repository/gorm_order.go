package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	orderpkg "github.com/WaelAlfnan/OrderDelivery-sub000/order"
)

type GormOrderRepo struct{ db *gorm.DB }

func NewGormOrderRepo(db *gorm.DB) orderpkg.Repository { return &GormOrderRepo{db: db} }

func (r *GormOrderRepo) CreateOrder(ctx context.Context, o *entity.Order) (*entity.Order, error) {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

func (r *GormOrderRepo) OrderByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var o entity.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderpkg.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *GormOrderRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *GormOrderRepo) AssignDriver(ctx context.Context, id uuid.UUID, driverID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", id).Update("assigned_driver", driverID).Error
}

func (r *GormOrderRepo) ClearAssignment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Order{}).Where("id = ?", id).Update("assigned_driver", nil).Error
}

func (r *GormOrderRepo) ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error) {
	var list []entity.Order
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormOrderRepo) ActiveForDriver(ctx context.Context, driverID uuid.UUID) (*entity.Order, error) {
	var o entity.Order
	err := r.db.WithContext(ctx).
		Where("assigned_driver = ? AND status NOT IN (?, ?, ?)",
			driverID, entity.OrderDelivered, entity.OrderCanceledByMerchant, entity.OrderCanceledByDriver).
		Order("updated_at DESC").
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
