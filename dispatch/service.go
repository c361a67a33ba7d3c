package dispatch

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	driverpkg "github.com/WaelAlfnan/OrderDelivery-sub000/driver"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	orderpkg "github.com/WaelAlfnan/OrderDelivery-sub000/order"
	"github.com/WaelAlfnan/OrderDelivery-sub000/realtime"
)

// ErrNoDriverAvailable is returned when no available driver can take the order.
var ErrNoDriverAvailable = errors.New("no available driver")

// Service offers pending orders to available drivers.
type Service interface {
	// FindAndAssign picks an available driver and moves the order to
	// assigned. The order stays pending when nobody is available.
	FindAndAssign(ctx context.Context, orderID uuid.UUID) (*entity.Order, *entity.Driver, error)
}

type service struct {
	orders  orderpkg.Service
	drivers driverpkg.Repository
	hub     *realtime.Hub
	log     *zap.Logger
}

func New(orders orderpkg.Service, drivers driverpkg.Repository, hub *realtime.Hub, log *zap.Logger) Service {
	return &service{orders: orders, drivers: drivers, hub: hub, log: log}
}

func (s *service) FindAndAssign(ctx context.Context, orderID uuid.UUID) (*entity.Order, *entity.Driver, error) {
	ord, err := s.orders.OrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	// naive selection: the most recently located available driver, searched
	// wide since orders carry no pickup coordinates yet
	list, err := s.drivers.ListAvailableNear(ctx, 0, 0, 20000, 50)
	if err != nil {
		return nil, nil, err
	}
	if len(list) == 0 {
		s.log.Info("no driver available", zap.String("order_id", ord.ID.String()))
		return ord, nil, ErrNoDriverAvailable
	}
	chosen := list[0]

	updated, err := s.orders.AssignDriver(ctx, ord.ID, chosen.UserID)
	if err != nil {
		return nil, nil, err
	}
	if s.hub != nil {
		_ = s.hub.NotifyDriver(chosen.UserID.String(), "order.assigned", realtime.AssignmentPayload{
			OrderID:    updated.ID.String(),
			MerchantID: updated.MerchantID.String(),
		})
	}
	s.log.Info("order assigned",
		zap.String("order_id", updated.ID.String()),
		zap.String("driver_user_id", chosen.UserID.String()))
	return updated, &chosen, nil
}
