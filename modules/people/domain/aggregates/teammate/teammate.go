package teammate

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Teammate is a member of an organization who can hold a points ledger,
// give observations, and redeem rewards.
type Teammate struct {
	tenantID    uuid.UUID
	id          uuid.UUID
	displayName string
	email       string
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, displayName, email string) Teammate {
	return Teammate{
		tenantID:    tenantID,
		displayName: strings.TrimSpace(displayName),
		email:       normalizeEmail(email),
		status:      StatusActive,
	}
}

func Hydrate(
	tenantID uuid.UUID,
	id uuid.UUID,
	displayName string,
	email string,
	status Status,
	createdAt time.Time,
	updatedAt time.Time,
) Teammate {
	return Teammate{
		tenantID:    tenantID,
		id:          id,
		displayName: strings.TrimSpace(displayName),
		email:       normalizeEmail(email),
		status:      status,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (t Teammate) TenantID() uuid.UUID  { return t.tenantID }
func (t Teammate) ID() uuid.UUID        { return t.id }
func (t Teammate) DisplayName() string  { return t.displayName }
func (t Teammate) Email() string        { return t.email }
func (t Teammate) Status() Status       { return t.status }
func (t Teammate) IsActive() bool       { return t.status == StatusActive }
func (t Teammate) CreatedAt() time.Time { return t.createdAt }
func (t Teammate) UpdatedAt() time.Time { return t.updatedAt }
func (t Teammate) IsZero() bool         { return t.id == uuid.Nil && t.email == "" }

func (t Teammate) Deactivated() Teammate {
	t.status = StatusInactive
	return t
}

func normalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
