package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authpkg "github.com/WaelAlfnan/OrderDelivery-sub000/auth"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// GormTokenRepo implements auth.TokenRepository using GORM (v2).
type GormTokenRepo struct {
	db *gorm.DB
}

func NewGormTokenRepo(db *gorm.DB) authpkg.TokenRepository {
	return &GormTokenRepo{db: db}
}

func (r *GormTokenRepo) StoreToken(ctx context.Context, t *entity.RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *GormTokenRepo) TokenByValue(ctx context.Context, token string) (*entity.RefreshToken, error) {
	var t entity.RefreshToken
	err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, authpkg.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokeToken is a conditional single-row UPDATE; with two concurrent
// exchanges of one token the row-level guard lets exactly one through.
func (r *GormTokenRepo) RevokeToken(ctx context.Context, token, reason, ip string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&entity.RefreshToken{}).
		Where("token = ? AND revoked_on IS NULL", token).
		Updates(map[string]any{
			"revoked_on":     now,
			"revoked_reason": reason,
			"revoked_by_ip":  ip,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked_on IS NULL", userID).
		Updates(map[string]any{
			"revoked_on":     now,
			"revoked_reason": reason,
		}).Error
}

func (r *GormTokenRepo) EvictOldest(ctx context.Context, userID uuid.UUID, keep int) error {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.RefreshToken{}).
		Where("user_id = ?", userID).
		Order("created_on DESC").
		Offset(keep).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&entity.RefreshToken{}, "id IN ?", ids).Error
}
