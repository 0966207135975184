package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/reward"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

const rewardColumns = `id, tenant_id, name, cost_in_points::text, active, deleted_at, created_at, updated_at`

type RewardRepository struct{}

func NewRewardRepository() reward.Repository {
	return &RewardRepository{}
}

func (r *RewardRepository) GetByID(ctx context.Context, id uuid.UUID) (reward.Reward, error) {
	return r.getOne(ctx, `WHERE tenant_id = $1 AND id = $2`, id)
}

func (r *RewardRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (reward.Reward, error) {
	return r.getOne(ctx, `WHERE tenant_id = $1 AND id = $2 AND active AND deleted_at IS NULL`, id)
}

func (r *RewardRepository) getOne(ctx context.Context, where string, id uuid.UUID) (reward.Reward, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return reward.Reward{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return reward.Reward{}, err
	}

	row, err := scanReward(tx.QueryRow(ctx,
		`SELECT `+rewardColumns+` FROM rewards `+where,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reward.Reward{}, reward.ErrNotFound
		}
		return reward.Reward{}, err
	}
	return toDomainReward(row)
}

func (r *RewardRepository) List(ctx context.Context) ([]reward.Reward, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+rewardColumns+`
		FROM rewards
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY name, id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []reward.Reward
	for rows.Next() {
		row, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		entity, err := toDomainReward(row)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func (r *RewardRepository) Create(ctx context.Context, entity reward.Reward) (reward.Reward, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return reward.Reward{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return reward.Reward{}, err
	}

	row, err := scanReward(tx.QueryRow(ctx, `
		INSERT INTO rewards (id, tenant_id, name, cost_in_points, active)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING `+rewardColumns,
		uuid.New(), tenantID, entity.Name(),
		entity.CostInPoints().String(), entity.Active(),
	))
	if err != nil {
		return reward.Reward{}, err
	}
	return toDomainReward(row)
}

func (r *RewardRepository) Update(ctx context.Context, entity reward.Reward) (reward.Reward, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return reward.Reward{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return reward.Reward{}, err
	}

	row, err := scanReward(tx.QueryRow(ctx, `
		UPDATE rewards
		SET name = $3,
			cost_in_points = $4::numeric,
			active = $5,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+rewardColumns,
		tenantID, entity.ID(),
		entity.Name(), entity.CostInPoints().String(), entity.Active(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reward.Reward{}, reward.ErrNotFound
		}
		return reward.Reward{}, err
	}
	return toDomainReward(row)
}

func (r *RewardRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rewards
		SET deleted_at = now(), active = false, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reward.ErrNotFound
	}
	return nil
}

func scanReward(row pgx.Row) (*models.Reward, error) {
	var m models.Reward
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Name,
		&m.CostInPoints,
		&m.Active,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
