package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("ledger not found")
	// ErrVersionConflict means another transaction modified the ledger row
	// between read and write; the whole business operation is retryable.
	ErrVersionConflict = errors.New("ledger version conflict")
)

type Repository interface {
	// Get returns the current ledger for the pair, or ErrNotFound.
	Get(ctx context.Context, teammateID uuid.UUID) (Ledger, error)
	// GetForUpdate locks the ledger row for the rest of the transaction,
	// creating the zero row first if the pair has none yet.
	GetForUpdate(ctx context.Context, teammateID uuid.UUID) (Ledger, error)
	// UpdateBalances writes the new balances with a compare-and-set on the
	// version read into l; ErrVersionConflict when the row moved on.
	UpdateBalances(ctx context.Context, l Ledger, newGive, newSpend decimal.Decimal) (Ledger, error)
}
