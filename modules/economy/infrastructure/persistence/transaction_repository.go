package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/repo"
)

const transactionColumns = `id, tenant_id, kind, teammate_id, give_delta::text, spend_delta::text,
	source_type, source_id, reason, posted_at, original_transaction_id, created_at`

type TransactionRepository struct{}

func NewTransactionRepository() transaction.Repository {
	return &TransactionRepository{}
}

func (r *TransactionRepository) Insert(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return transaction.Transaction{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return transaction.Transaction{}, err
	}

	id := t.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row, err := scanTransaction(tx.QueryRow(ctx, `
		INSERT INTO point_transactions
			(id, tenant_id, kind, teammate_id, give_delta, spend_delta,
			 source_type, source_id, reason, posted_at, original_transaction_id)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10, $11)
		RETURNING `+transactionColumns,
		id, tenantID, string(t.Kind), t.TeammateID,
		t.GiveDelta.String(), t.SpendDelta.String(),
		string(t.Source.Type), t.Source.ID, t.Reason, t.PostedAt, t.OriginalTransactionID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			strings.Contains(pgErr.ConstraintName, "point_transactions_source_kind") {
			return transaction.Transaction{}, transaction.ErrDuplicate
		}
		return transaction.Transaction{}, err
	}
	return toDomainTransaction(row)
}

func (r *TransactionRepository) Exists(ctx context.Context, teammateID uuid.UUID, source transaction.SourceRef, kind transaction.Kind) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM point_transactions
			WHERE tenant_id = $1 AND teammate_id = $2
			  AND source_type = $3 AND source_id = $4 AND kind = $5
		)`,
		tenantID, teammateID, string(source.Type), source.ID, string(kind),
	).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *TransactionRepository) ListForTeammate(ctx context.Context, teammateID uuid.UUID, params *transaction.FindParams) ([]transaction.Transaction, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"tenant_id = $1", "teammate_id = $2"}
	args := []interface{}{tenantID, teammateID}
	if params != nil && params.Kind != "" {
		where = append(where, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, string(params.Kind))
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM point_transactions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []transaction.Transaction
	for rows.Next() {
		row, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		t, err := toDomainTransaction(row)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func (r *TransactionRepository) SumDeltas(ctx context.Context, teammateID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var giveRaw, spendRaw string
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(give_delta), 0)::text, COALESCE(SUM(spend_delta), 0)::text
		FROM point_transactions
		WHERE tenant_id = $1 AND teammate_id = $2 AND posted_at IS NOT NULL`,
		tenantID, teammateID,
	).Scan(&giveRaw, &spendRaw); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	give, err := parseAmount(giveRaw)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	spend, err := parseAmount(spendRaw)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return give, spend, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var m models.Transaction
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Kind,
		&m.TeammateID,
		&m.GiveDelta,
		&m.SpendDelta,
		&m.SourceType,
		&m.SourceID,
		&m.Reason,
		&m.PostedAt,
		&m.OriginalTransactionID,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
