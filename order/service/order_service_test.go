package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	orderpkg "github.com/WaelAlfnan/OrderDelivery-sub000/order"
)

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entity.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*entity.Order)}
}

func (r *memOrderRepo) CreateOrder(ctx context.Context, o *entity.Order) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.New()
	cp := *o
	r.orders[o.ID] = &cp
	return o, nil
}

func (r *memOrderRepo) OrderByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, orderpkg.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return orderpkg.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *memOrderRepo) AssignDriver(ctx context.Context, id uuid.UUID, driverID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return orderpkg.ErrOrderNotFound
	}
	d := driverID
	o.AssignedDriver = &d
	return nil
}

func (r *memOrderRepo) ClearAssignment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return orderpkg.ErrOrderNotFound
	}
	o.AssignedDriver = nil
	return nil
}

func (r *memOrderRepo) ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []entity.Order
	for _, o := range r.orders {
		if o.MerchantID == merchantID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (r *memOrderRepo) ActiveForDriver(ctx context.Context, driverID uuid.UUID) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.AssignedDriver == nil || *o.AssignedDriver != driverID {
			continue
		}
		switch o.Status {
		case entity.OrderDelivered, entity.OrderCanceledByMerchant, entity.OrderCanceledByDriver:
		default:
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func newOrder(t *testing.T, svc orderpkg.Service, merchantID uuid.UUID) *entity.Order {
	t.Helper()
	o, err := svc.CreateOrder(context.Background(), orderpkg.CreateOrderRequest{
		MerchantID:     merchantID,
		ReceiverPhone:  "+15557654321",
		PickupAddress:  "Bole Road 12",
		DropoffAddress: "Piassa 4",
		PriceCents:     12500,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to entity.OrderStatus
		ok       bool
	}{
		{entity.OrderPending, entity.OrderAssigned, true},
		{entity.OrderPending, entity.OrderDelivered, false},
		{entity.OrderAssigned, entity.OrderAccepted, true},
		{entity.OrderAssigned, entity.OrderDeclined, true},
		{entity.OrderAssigned, entity.OrderPickedUp, false},
		{entity.OrderDeclined, entity.OrderAssigned, true},
		{entity.OrderAccepted, entity.OrderPickedUp, true},
		{entity.OrderPickedUp, entity.OrderDelivered, true},
		{entity.OrderPickedUp, entity.OrderCanceledByDriver, false},
		{entity.OrderDelivered, entity.OrderPending, false},
		{entity.OrderCanceledByMerchant, entity.OrderAssigned, false},
	}
	for _, c := range cases {
		if got := orderpkg.CanTransition(c.from, c.to); got != c.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestOrderLifecycle(t *testing.T) {
	repo := newMemOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	merchantID := uuid.New()
	driverID := uuid.New()

	o := newOrder(t, svc, merchantID)
	if o.Status != entity.OrderPending {
		t.Fatalf("new order status = %s", o.Status)
	}

	if _, err := svc.AssignDriver(ctx, o.ID, driverID); err != nil {
		t.Fatalf("AssignDriver: %v", err)
	}
	for _, status := range []entity.OrderStatus{entity.OrderAccepted, entity.OrderPickedUp, entity.OrderDelivered} {
		got, err := svc.UpdateStatus(ctx, o.ID, status, &driverID)
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
		if got.Status != status {
			t.Fatalf("status = %s, want %s", got.Status, status)
		}
	}

	active, err := svc.ActiveForDriver(ctx, driverID)
	if err != nil || active != nil {
		t.Fatalf("delivered order still active: %v %v", active, err)
	}
}

func TestUpdateStatusRejectsSkippedState(t *testing.T) {
	repo := newMemOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	driverID := uuid.New()

	o := newOrder(t, svc, uuid.New())
	if _, err := svc.AssignDriver(ctx, o.ID, driverID); err != nil {
		t.Fatal(err)
	}
	// picked_up before accepted
	if _, err := svc.UpdateStatus(ctx, o.ID, entity.OrderPickedUp, &driverID); !errors.Is(err, orderpkg.ErrInvalidTransition) {
		t.Fatalf("UpdateStatus = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateStatusRejectsForeignDriver(t *testing.T) {
	repo := newMemOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	driverID := uuid.New()
	otherID := uuid.New()

	o := newOrder(t, svc, uuid.New())
	if _, err := svc.AssignDriver(ctx, o.ID, driverID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, o.ID, entity.OrderAccepted, &otherID); !errors.Is(err, orderpkg.ErrNotAssignedDriver) {
		t.Fatalf("UpdateStatus = %v, want ErrNotAssignedDriver", err)
	}
}

func TestDeclineReturnsOrderToPool(t *testing.T) {
	repo := newMemOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	driverID := uuid.New()

	o := newOrder(t, svc, uuid.New())
	if _, err := svc.AssignDriver(ctx, o.ID, driverID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.UpdateStatus(ctx, o.ID, entity.OrderDeclined, &driverID)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.AssignedDriver != nil {
		t.Fatal("declined order kept its driver")
	}
	// a declined order is assignable again
	if _, err := svc.AssignDriver(ctx, o.ID, uuid.New()); err != nil {
		t.Fatalf("reassign after decline: %v", err)
	}
}

func TestCancelByMerchant(t *testing.T) {
	repo := newMemOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	merchantID := uuid.New()
	driverID := uuid.New()

	o := newOrder(t, svc, merchantID)
	if _, err := svc.CancelByMerchant(ctx, o.ID, uuid.New()); !errors.Is(err, orderpkg.ErrNotOrderOwner) {
		t.Fatalf("foreign cancel = %v, want ErrNotOrderOwner", err)
	}
	got, err := svc.CancelByMerchant(ctx, o.ID, merchantID)
	if err != nil || got.Status != entity.OrderCanceledByMerchant {
		t.Fatalf("CancelByMerchant = %v %v", got, err)
	}
	// idempotent
	if _, err := svc.CancelByMerchant(ctx, o.ID, merchantID); err != nil {
		t.Fatalf("repeated cancel: %v", err)
	}

	// cancellation after pickup is refused
	o2 := newOrder(t, svc, merchantID)
	if _, err := svc.AssignDriver(ctx, o2.ID, driverID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, o2.ID, entity.OrderAccepted, &driverID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, o2.ID, entity.OrderPickedUp, &driverID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CancelByMerchant(ctx, o2.ID, merchantID); !errors.Is(err, orderpkg.ErrOrderNotCancelable) {
		t.Fatalf("cancel after pickup = %v, want ErrOrderNotCancelable", err)
	}
}

func TestCancelByDriverRequiresAssignment(t *testing.T) {
	repo := newMemOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	driverID := uuid.New()

	o := newOrder(t, svc, uuid.New())
	if _, err := svc.CancelByDriver(ctx, o.ID, driverID); !errors.Is(err, orderpkg.ErrNotAssignedDriver) {
		t.Fatalf("CancelByDriver = %v, want ErrNotAssignedDriver", err)
	}
	if _, err := svc.AssignDriver(ctx, o.ID, driverID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(ctx, o.ID, entity.OrderAccepted, &driverID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.CancelByDriver(ctx, o.ID, driverID)
	if err != nil || got.Status != entity.OrderCanceledByDriver {
		t.Fatalf("CancelByDriver = %v %v", got, err)
	}
}
