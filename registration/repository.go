package registration

import (
	"context"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

// Repository persists the registration saga state. The Complete* operations
// create the role entities and delete the pending record inside one
// transaction; if anything inside fails, nothing commits.
type Repository interface {
	CreatePending(ctx context.Context, p *entity.PendingRegistration) error
	PendingByPhone(ctx context.Context, phone string) (*entity.PendingRegistration, error)
	UpdatePending(ctx context.Context, p *entity.PendingRegistration) error
	DeletePending(ctx context.Context, phone string) error

	CompleteMerchant(ctx context.Context, phone string, m *entity.Merchant) error
	CompleteDriver(ctx context.Context, phone string, d *entity.Driver, v *entity.Vehicle, r *entity.Residence) error
}
