package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the give/spend balance pair for a teammate within an
// organization. Balances never go negative; every write bumps the version
// so concurrent postings against the same pair are detected.
type Ledger struct {
	tenantID      uuid.UUID
	teammateID    uuid.UUID
	pointsToGive  decimal.Decimal
	pointsToSpend decimal.Decimal
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// Zero is the lazily-created starting ledger for a pair that has never
// posted a transaction.
func Zero(tenantID, teammateID uuid.UUID) Ledger {
	return Ledger{
		tenantID:   tenantID,
		teammateID: teammateID,
	}
}

func Hydrate(
	tenantID uuid.UUID,
	teammateID uuid.UUID,
	pointsToGive decimal.Decimal,
	pointsToSpend decimal.Decimal,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) Ledger {
	return Ledger{
		tenantID:      tenantID,
		teammateID:    teammateID,
		pointsToGive:  pointsToGive,
		pointsToSpend: pointsToSpend,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (l Ledger) TenantID() uuid.UUID            { return l.tenantID }
func (l Ledger) TeammateID() uuid.UUID          { return l.teammateID }
func (l Ledger) PointsToGive() decimal.Decimal  { return l.pointsToGive }
func (l Ledger) PointsToSpend() decimal.Decimal { return l.pointsToSpend }
func (l Ledger) Version() int64                 { return l.version }
func (l Ledger) CreatedAt() time.Time           { return l.createdAt }
func (l Ledger) UpdatedAt() time.Time           { return l.updatedAt }

// CanSpend is an advisory check only; the posting engine's balance guard at
// debit time is authoritative.
func (l Ledger) CanSpend(amount decimal.Decimal) bool {
	return l.pointsToSpend.GreaterThanOrEqual(amount)
}

func (l Ledger) CanGive(amount decimal.Decimal) bool {
	return l.pointsToGive.GreaterThanOrEqual(amount)
}
