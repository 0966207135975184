package reward

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("reward not found")
	ErrInvalid  = errors.New("reward requires a name and a positive cost")
)

// Reward is a catalog item teammates exchange spend-points for.
type Reward struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	name         string
	costInPoints decimal.Decimal
	active       bool
	deletedAt    *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

func New(tenantID uuid.UUID, name string, costInPoints decimal.Decimal) (Reward, error) {
	name = strings.TrimSpace(name)
	if name == "" || !costInPoints.IsPositive() {
		return Reward{}, ErrInvalid
	}
	return Reward{
		tenantID:     tenantID,
		name:         name,
		costInPoints: costInPoints,
		active:       true,
	}, nil
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	name string,
	costInPoints decimal.Decimal,
	active bool,
	deletedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Reward {
	return Reward{
		id:           id,
		tenantID:     tenantID,
		name:         name,
		costInPoints: costInPoints,
		active:       active,
		deletedAt:    deletedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (r Reward) ID() uuid.UUID                 { return r.id }
func (r Reward) TenantID() uuid.UUID           { return r.tenantID }
func (r Reward) Name() string                  { return r.name }
func (r Reward) CostInPoints() decimal.Decimal { return r.costInPoints }
func (r Reward) Active() bool                  { return r.active }
func (r Reward) DeletedAt() *time.Time         { return r.deletedAt }
func (r Reward) CreatedAt() time.Time          { return r.createdAt }
func (r Reward) UpdatedAt() time.Time          { return r.updatedAt }

// IsRedeemable is true for active, non-deleted rewards.
func (r Reward) IsRedeemable() bool { return r.active && r.deletedAt == nil }

func (r Reward) Deactivated() Reward {
	r.active = false
	return r
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Reward, error)
	// GetActiveByID ignores soft-deleted and inactive rewards.
	GetActiveByID(ctx context.Context, id uuid.UUID) (Reward, error)
	List(ctx context.Context) ([]Reward, error)
	Create(ctx context.Context, r Reward) (Reward, error)
	Update(ctx context.Context, r Reward) (Reward, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
