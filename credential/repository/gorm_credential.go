package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/WaelAlfnan/OrderDelivery-sub000/credential"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// GormCredentialStore implements credential.Store using GORM (v2).
type GormCredentialStore struct {
	db *gorm.DB
}

func NewGormCredentialStore(db *gorm.DB) credential.Store {
	return &GormCredentialStore{db: db}
}

func (r *GormCredentialStore) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&u, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, credential.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormCredentialStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, credential.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormCredentialStore) CheckPassword(ctx context.Context, userID uuid.UUID, password string) error {
	var u entity.User
	err := r.db.WithContext(ctx).Select("password_hash").First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return credential.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	return credential.ComparePassword(u.PasswordHash, password)
}

func (r *GormCredentialStore) CreateUser(ctx context.Context, nu credential.NewUser) (*entity.User, error) {
	u := &entity.User{
		FirstName:     nu.FirstName,
		LastName:      nu.LastName,
		Phone:         nu.Phone,
		PhoneVerified: nu.PhoneVerified,
		PasswordHash:  nu.PasswordHash,
		NationalID:    nu.NationalID,
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, credential.ErrPhoneTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *GormCredentialStore) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := credential.HashPassword(password)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return credential.ErrUserNotFound
	}
	return nil
}

func (r *GormCredentialStore) EnsureRole(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	role = entity.Role{Name: name}
	if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormCredentialStore) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	var role entity.Role
	if err := r.db.WithContext(ctx).First(&role, "name = ?", roleName).Error; err != nil {
		return err
	}
	u := entity.User{ID: userID}
	return r.db.WithContext(ctx).Model(&u).Association("Roles").Append(&role)
}

func (r *GormCredentialStore) GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var roles []entity.Role
	u := entity.User{ID: userID}
	if err := r.db.WithContext(ctx).Model(&u).Association("Roles").Find(&roles); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}
