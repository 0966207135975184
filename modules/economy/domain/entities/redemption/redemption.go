package redemption

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotFound = errors.New("redemption not found")
	// ErrInvalidStateTransition rejects anything but pending→fulfilled and
	// pending→cancelled; terminal states never move again.
	ErrInvalidStateTransition = errors.New("invalid redemption state transition")
	ErrBlankExternalRef       = errors.New("fulfillment requires a non-blank external reference")
)

// Redemption tracks the exchange of spend-points for a catalog reward
// through its pending → fulfilled | cancelled lifecycle.
type Redemption struct {
	id                uuid.UUID
	tenantID          uuid.UUID
	teammateID        uuid.UUID
	rewardID          uuid.UUID
	pointsSpent       decimal.Decimal
	status            Status
	externalReference string
	notes             string
	resolvedAt        *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

func New(tenantID, teammateID, rewardID uuid.UUID, pointsSpent decimal.Decimal, notes string) Redemption {
	return Redemption{
		tenantID:    tenantID,
		teammateID:  teammateID,
		rewardID:    rewardID,
		pointsSpent: pointsSpent,
		status:      StatusPending,
		notes:       strings.TrimSpace(notes),
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	teammateID uuid.UUID,
	rewardID uuid.UUID,
	pointsSpent decimal.Decimal,
	status Status,
	externalReference string,
	notes string,
	resolvedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Redemption {
	return Redemption{
		id:                id,
		tenantID:          tenantID,
		teammateID:        teammateID,
		rewardID:          rewardID,
		pointsSpent:       pointsSpent,
		status:            status,
		externalReference: externalReference,
		notes:             notes,
		resolvedAt:        resolvedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (r Redemption) ID() uuid.UUID                { return r.id }
func (r Redemption) TenantID() uuid.UUID          { return r.tenantID }
func (r Redemption) TeammateID() uuid.UUID        { return r.teammateID }
func (r Redemption) RewardID() uuid.UUID          { return r.rewardID }
func (r Redemption) PointsSpent() decimal.Decimal { return r.pointsSpent }
func (r Redemption) Status() Status               { return r.status }
func (r Redemption) ExternalReference() string    { return r.externalReference }
func (r Redemption) Notes() string                { return r.notes }
func (r Redemption) ResolvedAt() *time.Time       { return r.resolvedAt }
func (r Redemption) CreatedAt() time.Time         { return r.createdAt }
func (r Redemption) UpdatedAt() time.Time         { return r.updatedAt }
func (r Redemption) IsPending() bool              { return r.status == StatusPending }

// Fulfilled returns a copy moved to the fulfilled terminal state.
func (r Redemption) Fulfilled(externalRef string, at time.Time) (Redemption, error) {
	if r.status != StatusPending {
		return Redemption{}, ErrInvalidStateTransition
	}
	externalRef = strings.TrimSpace(externalRef)
	if externalRef == "" {
		return Redemption{}, ErrBlankExternalRef
	}
	r.status = StatusFulfilled
	r.externalReference = externalRef
	r.resolvedAt = &at
	return r, nil
}

// Cancelled returns a copy moved to the cancelled terminal state. The
// caller posts the compensating refund in the same unit of work.
func (r Redemption) Cancelled(at time.Time) (Redemption, error) {
	if r.status != StatusPending {
		return Redemption{}, ErrInvalidStateTransition
	}
	r.status = StatusCancelled
	r.resolvedAt = &at
	return r, nil
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Redemption, error)
	Create(ctx context.Context, r Redemption) (Redemption, error)
	Update(ctx context.Context, r Redemption) (Redemption, error)
	ListForTeammate(ctx context.Context, teammateID uuid.UUID) ([]Redemption, error)
}
