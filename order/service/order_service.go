package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	orderpkg "github.com/WaelAlfnan/OrderDelivery-sub000/order"
)

type orderService struct {
	repo orderpkg.Repository
}

func NewOrderService(repo orderpkg.Repository) orderpkg.Service { return &orderService{repo: repo} }

func (s *orderService) CreateOrder(ctx context.Context, req orderpkg.CreateOrderRequest) (*entity.Order, error) {
	o := &entity.Order{
		MerchantID:     req.MerchantID,
		ReceiverPhone:  req.ReceiverPhone,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		PriceCents:     req.PriceCents,
		Status:         entity.OrderPending,
	}
	return s.repo.CreateOrder(ctx, o)
}

func (s *orderService) OrderByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return s.repo.OrderByID(ctx, id)
}

func (s *orderService) ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error) {
	return s.repo.ListForMerchant(ctx, merchantID)
}

func (s *orderService) ActiveForDriver(ctx context.Context, driverID uuid.UUID) (*entity.Order, error) {
	return s.repo.ActiveForDriver(ctx, driverID)
}

func (s *orderService) AssignDriver(ctx context.Context, orderID, driverID uuid.UUID) (*entity.Order, error) {
	ord, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !orderpkg.CanTransition(ord.Status, entity.OrderAssigned) {
		return nil, orderpkg.ErrInvalidTransition
	}
	if err := s.repo.AssignDriver(ctx, orderID, driverID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, entity.OrderAssigned); err != nil {
		return nil, err
	}
	return s.repo.OrderByID(ctx, orderID)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus entity.OrderStatus, byDriverID *uuid.UUID) (*entity.Order, error) {
	ord, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if byDriverID != nil {
		if ord.AssignedDriver == nil || *byDriverID != *ord.AssignedDriver {
			return nil, orderpkg.ErrNotAssignedDriver
		}
	}
	if !orderpkg.CanTransition(ord.Status, newStatus) {
		return nil, orderpkg.ErrInvalidTransition
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}
	// a declined order goes back into the pool
	if newStatus == entity.OrderDeclined {
		if err := s.repo.ClearAssignment(ctx, orderID); err != nil {
			return nil, err
		}
	}
	return s.repo.OrderByID(ctx, orderID)
}

func (s *orderService) CancelByMerchant(ctx context.Context, orderID, merchantID uuid.UUID) (*entity.Order, error) {
	ord, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.MerchantID != merchantID {
		return nil, orderpkg.ErrNotOrderOwner
	}
	if ord.Status == entity.OrderCanceledByMerchant || ord.Status == entity.OrderCanceledByDriver {
		return ord, nil
	}
	if !orderpkg.CanTransition(ord.Status, entity.OrderCanceledByMerchant) {
		return nil, orderpkg.ErrOrderNotCancelable
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, entity.OrderCanceledByMerchant); err != nil {
		return nil, err
	}
	return s.repo.OrderByID(ctx, orderID)
}

func (s *orderService) CancelByDriver(ctx context.Context, orderID, driverID uuid.UUID) (*entity.Order, error) {
	ord, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.AssignedDriver == nil || *ord.AssignedDriver != driverID {
		return nil, orderpkg.ErrNotAssignedDriver
	}
	if ord.Status == entity.OrderCanceledByMerchant || ord.Status == entity.OrderCanceledByDriver {
		return ord, nil
	}
	if !orderpkg.CanTransition(ord.Status, entity.OrderCanceledByDriver) {
		return nil, orderpkg.ErrOrderNotCancelable
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, entity.OrderCanceledByDriver); err != nil {
		return nil, err
	}
	return s.repo.OrderByID(ctx, orderID)
}
