package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicate surfaces the unique index on (source_type, source_id,
	// kind): the same business event already posted this kind once.
	ErrDuplicate = errors.New("transaction already exists for source and kind")
)

type FindParams struct {
	Kind   Kind
	Limit  int
	Offset int
}

type Repository interface {
	// Insert stores a posted transaction. ErrDuplicate when the
	// (tenant, source, kind) idempotency index rejects it.
	Insert(ctx context.Context, t Transaction) (Transaction, error)
	// Exists is the idempotency fast path; the unique index is the
	// authoritative guard.
	Exists(ctx context.Context, teammateID uuid.UUID, source SourceRef, kind Kind) (bool, error)
	ListForTeammate(ctx context.Context, teammateID uuid.UUID, params *FindParams) ([]Transaction, error)
	// SumDeltas reconciles: totals of posted deltas for the teammate.
	SumDeltas(ctx context.Context, teammateID uuid.UUID) (give, spend decimal.Decimal, err error)
}
