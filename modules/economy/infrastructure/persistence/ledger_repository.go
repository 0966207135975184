package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

const ledgerColumns = "tenant_id, teammate_id, points_to_give::text, points_to_spend::text, version, created_at, updated_at"

type LedgerRepository struct{}

func NewLedgerRepository() ledger.Repository {
	return &LedgerRepository{}
}

func (r *LedgerRepository) Get(ctx context.Context, teammateID uuid.UUID) (ledger.Ledger, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}

	row, err := scanLedger(tx.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledgers
		WHERE tenant_id = $1 AND teammate_id = $2`,
		tenantID, teammateID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Ledger{}, ledger.ErrNotFound
		}
		return ledger.Ledger{}, err
	}
	return toDomainLedger(row)
}

// GetForUpdate serializes concurrent postings against the same pair: the
// zero row is created on first use, then the row lock is held until the
// surrounding transaction finishes.
func (r *LedgerRepository) GetForUpdate(ctx context.Context, teammateID uuid.UUID) (ledger.Ledger, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledgers (tenant_id, teammate_id, points_to_give, points_to_spend, version)
		VALUES ($1, $2, 0, 0, 0)
		ON CONFLICT (tenant_id, teammate_id) DO NOTHING`,
		tenantID, teammateID,
	); err != nil {
		return ledger.Ledger{}, gerrors.Wrap(err, "ensure ledger row")
	}

	row, err := scanLedger(tx.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledgers
		WHERE tenant_id = $1 AND teammate_id = $2
		FOR UPDATE`,
		tenantID, teammateID,
	))
	if err != nil {
		return ledger.Ledger{}, gerrors.Wrap(err, "lock ledger row")
	}
	return toDomainLedger(row)
}

func (r *LedgerRepository) UpdateBalances(ctx context.Context, l ledger.Ledger, newGive, newSpend decimal.Decimal) (ledger.Ledger, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}

	row, err := scanLedger(tx.QueryRow(ctx, `
		UPDATE ledgers
		SET points_to_give = $4::numeric,
		    points_to_spend = $5::numeric,
		    version = version + 1,
		    updated_at = now()
		WHERE tenant_id = $1 AND teammate_id = $2 AND version = $3
		RETURNING `+ledgerColumns,
		tenantID, l.TeammateID(), l.Version(), newGive.String(), newSpend.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Ledger{}, ledger.ErrVersionConflict
		}
		return ledger.Ledger{}, err
	}
	return toDomainLedger(row)
}

func scanLedger(row pgx.Row) (*models.Ledger, error) {
	var m models.Ledger
	if err := row.Scan(
		&m.TenantID,
		&m.TeammateID,
		&m.PointsToGive,
		&m.PointsToSpend,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
