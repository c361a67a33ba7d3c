package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	driverpkg "github.com/WaelAlfnan/OrderDelivery-sub000/driver"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

type driverService struct {
	repo driverpkg.Repository
	log  *zap.Logger
}

func NewDriverService(repo driverpkg.Repository, log *zap.Logger) driverpkg.Service {
	return &driverService{repo: repo, log: log}
}

func (s *driverService) ProfileByUserID(ctx context.Context, userID uuid.UUID) (*entity.Driver, error) {
	return s.repo.DriverByUserID(ctx, userID)
}

func (s *driverService) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	if err := s.repo.UpdateAvailability(ctx, userID, available); err != nil {
		return err
	}
	s.log.Info("driver availability changed",
		zap.String("user_id", userID.String()),
		zap.Bool("available", available))
	return nil
}

func (s *driverService) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng *float64) error {
	return s.repo.UpdateLocation(ctx, userID, lat, lng)
}

func (s *driverService) FindAvailableNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]entity.Driver, error) {
	return s.repo.ListAvailableNear(ctx, lat, lng, radiusKm, limit)
}
