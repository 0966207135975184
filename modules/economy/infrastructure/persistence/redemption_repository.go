package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

const redemptionColumns = `id, tenant_id, teammate_id, reward_id, points_spent::text,
	status, external_reference, notes, resolved_at, created_at, updated_at`

type RedemptionRepository struct{}

func NewRedemptionRepository() redemption.Repository {
	return &RedemptionRepository{}
}

func (r *RedemptionRepository) GetByID(ctx context.Context, id uuid.UUID) (redemption.Redemption, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return redemption.Redemption{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return redemption.Redemption{}, err
	}

	row, err := scanRedemption(tx.QueryRow(ctx, `
		SELECT `+redemptionColumns+`
		FROM redemptions
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return redemption.Redemption{}, redemption.ErrNotFound
		}
		return redemption.Redemption{}, err
	}
	return toDomainRedemption(row)
}

func (r *RedemptionRepository) Create(ctx context.Context, entity redemption.Redemption) (redemption.Redemption, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return redemption.Redemption{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return redemption.Redemption{}, err
	}

	row, err := scanRedemption(tx.QueryRow(ctx, `
		INSERT INTO redemptions
			(id, tenant_id, teammate_id, reward_id, points_spent, status,
			 external_reference, notes, resolved_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
		RETURNING `+redemptionColumns,
		uuid.New(), tenantID, entity.TeammateID(), entity.RewardID(),
		entity.PointsSpent().String(), string(entity.Status()),
		entity.ExternalReference(), entity.Notes(), entity.ResolvedAt(),
	))
	if err != nil {
		return redemption.Redemption{}, err
	}
	return toDomainRedemption(row)
}

func (r *RedemptionRepository) Update(ctx context.Context, entity redemption.Redemption) (redemption.Redemption, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return redemption.Redemption{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return redemption.Redemption{}, err
	}

	row, err := scanRedemption(tx.QueryRow(ctx, `
		UPDATE redemptions
		SET status = $3,
			external_reference = $4,
			notes = $5,
			resolved_at = $6,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+redemptionColumns,
		tenantID, entity.ID(),
		string(entity.Status()), entity.ExternalReference(),
		entity.Notes(), entity.ResolvedAt(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return redemption.Redemption{}, redemption.ErrNotFound
		}
		return redemption.Redemption{}, err
	}
	return toDomainRedemption(row)
}

func (r *RedemptionRepository) ListForTeammate(ctx context.Context, teammateID uuid.UUID) ([]redemption.Redemption, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+redemptionColumns+`
		FROM redemptions
		WHERE tenant_id = $1 AND teammate_id = $2
		ORDER BY created_at DESC, id`,
		tenantID, teammateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []redemption.Redemption
	for rows.Next() {
		row, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		entity, err := toDomainRedemption(row)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanRedemption(row pgx.Row) (*models.Redemption, error) {
	var m models.Redemption
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.TeammateID,
		&m.RewardID,
		&m.PointsSpent,
		&m.Status,
		&m.ExternalReference,
		&m.Notes,
		&m.ResolvedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
