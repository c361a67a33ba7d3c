package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	regpkg "github.com/WaelAlfnan/OrderDelivery-sub000/registration"
)

// GormRegistrationRepo implements registration.Repository using GORM (v2).
type GormRegistrationRepo struct {
	db *gorm.DB
}

func NewGormRegistrationRepo(db *gorm.DB) regpkg.Repository {
	return &GormRegistrationRepo{db: db}
}

func (r *GormRegistrationRepo) CreatePending(ctx context.Context, p *entity.PendingRegistration) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return regpkg.ErrAlreadyRegistered
	}
	return err
}

func (r *GormRegistrationRepo) PendingByPhone(ctx context.Context, phone string) (*entity.PendingRegistration, error) {
	var p entity.PendingRegistration
	err := r.db.WithContext(ctx).First(&p, "phone_number = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, regpkg.ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRegistrationRepo) UpdatePending(ctx context.Context, p *entity.PendingRegistration) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *GormRegistrationRepo) DeletePending(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).Delete(&entity.PendingRegistration{}, "phone_number = ?", phone).Error
}

// CompleteMerchant creates the merchant row and deletes the pending record
// in one transaction.
func (r *GormRegistrationRepo) CompleteMerchant(ctx context.Context, phone string, m *entity.Merchant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.PendingRegistration{}, "phone_number = ?", phone).Error
	})
}

// CompleteDriver creates driver, vehicle and residence rows and deletes the
// pending record in one transaction.
func (r *GormRegistrationRepo) CompleteDriver(ctx context.Context, phone string, d *entity.Driver, v *entity.Vehicle, res *entity.Residence) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		v.DriverID = d.ID
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		res.DriverID = d.ID
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.PendingRegistration{}, "phone_number = ?", phone).Error
	})
}
