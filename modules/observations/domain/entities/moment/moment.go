package moment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("observable moment not found")
	ErrMilestoneBlank = errors.New("milestone kind is required")
)

// Moment records a tracked organizational milestone for a teammate, e.g. a
// new hire joining or a seat change. The milestone kind doubles as the
// economy event key that resolves the celebratory award amounts.
type Moment struct {
	tenantID      uuid.UUID
	id            uuid.UUID
	teammateID    uuid.UUID
	milestoneKind string
	occurredOn    time.Time
	createdAt     time.Time
}

func New(tenantID, teammateID uuid.UUID, milestoneKind string, occurredOn time.Time) (Moment, error) {
	milestoneKind = strings.TrimSpace(milestoneKind)
	if milestoneKind == "" {
		return Moment{}, ErrMilestoneBlank
	}
	return Moment{
		tenantID:      tenantID,
		teammateID:    teammateID,
		milestoneKind: milestoneKind,
		occurredOn:    occurredOn,
	}, nil
}

func Hydrate(
	tenantID uuid.UUID,
	id uuid.UUID,
	teammateID uuid.UUID,
	milestoneKind string,
	occurredOn time.Time,
	createdAt time.Time,
) Moment {
	return Moment{
		tenantID:      tenantID,
		id:            id,
		teammateID:    teammateID,
		milestoneKind: milestoneKind,
		occurredOn:    occurredOn,
		createdAt:     createdAt,
	}
}

func (m Moment) TenantID() uuid.UUID   { return m.tenantID }
func (m Moment) ID() uuid.UUID         { return m.id }
func (m Moment) TeammateID() uuid.UUID { return m.teammateID }
func (m Moment) MilestoneKind() string { return m.milestoneKind }
func (m Moment) OccurredOn() time.Time { return m.occurredOn }
func (m Moment) CreatedAt() time.Time  { return m.createdAt }

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Moment, error)
	Create(ctx context.Context, m Moment) (Moment, error)
}
