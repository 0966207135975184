package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/entities/moment"
	"github.com/ar3/our-gruuv-sub016/modules/observations/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

const momentColumns = "id, tenant_id, teammate_id, milestone_kind, occurred_on, created_at"

type MomentRepository struct{}

func NewMomentRepository() moment.Repository {
	return &MomentRepository{}
}

func (r *MomentRepository) GetByID(ctx context.Context, id uuid.UUID) (moment.Moment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return moment.Moment{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return moment.Moment{}, err
	}

	row, err := scanMoment(tx.QueryRow(ctx, `
		SELECT `+momentColumns+`
		FROM observable_moments
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return moment.Moment{}, moment.ErrNotFound
		}
		return moment.Moment{}, err
	}
	return toDomainMoment(row), nil
}

func (r *MomentRepository) Create(ctx context.Context, m moment.Moment) (moment.Moment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return moment.Moment{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return moment.Moment{}, err
	}

	row, err := scanMoment(tx.QueryRow(ctx, `
		INSERT INTO observable_moments (id, tenant_id, teammate_id, milestone_kind, occurred_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+momentColumns,
		uuid.New(), tenantID, m.TeammateID(), m.MilestoneKind(), m.OccurredOn(), time.Now(),
	))
	if err != nil {
		return moment.Moment{}, err
	}
	return toDomainMoment(row), nil
}

func scanMoment(row pgx.Row) (*models.Moment, error) {
	var m models.Moment
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.TeammateID,
		&m.MilestoneKind,
		&m.OccurredOn,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
