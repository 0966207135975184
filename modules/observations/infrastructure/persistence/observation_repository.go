package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/aggregates/observation"
	"github.com/ar3/our-gruuv-sub016/modules/observations/infrastructure/persistence/models"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/repo"
)

const observationColumns = "id, tenant_id, observer_id, kind, story, privacy, published_at, created_at, updated_at"

type ObservationRepository struct{}

func NewObservationRepository() observation.Repository {
	return &ObservationRepository{}
}

func (r *ObservationRepository) GetByID(ctx context.Context, id uuid.UUID) (observation.Observation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return observation.Observation{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return observation.Observation{}, err
	}

	row, err := scanObservation(tx.QueryRow(ctx, `
		SELECT `+observationColumns+`
		FROM observations
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return observation.Observation{}, observation.ErrNotFound
		}
		return observation.Observation{}, err
	}

	observees, err := r.observeeIDs(ctx, tx, id)
	if err != nil {
		return observation.Observation{}, err
	}
	return toDomainObservation(row, observees), nil
}

func (r *ObservationRepository) Create(ctx context.Context, o observation.Observation) (observation.Observation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return observation.Observation{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return observation.Observation{}, err
	}

	now := time.Now()
	row, err := scanObservation(tx.QueryRow(ctx, `
		INSERT INTO observations (id, tenant_id, observer_id, kind, story, privacy, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $7)
		RETURNING `+observationColumns,
		uuid.New(), tenantID, o.ObserverID(), string(o.Kind()), o.Story(), string(o.Privacy()), now,
	))
	if err != nil {
		return observation.Observation{}, err
	}

	observees := o.ObserveeIDs()
	for _, observeeID := range observees {
		if _, err := tx.Exec(ctx, `
			INSERT INTO observation_observees (observation_id, tenant_id, teammate_id)
			VALUES ($1, $2, $3)`,
			row.ID, tenantID, observeeID,
		); err != nil {
			return observation.Observation{}, err
		}
	}
	return toDomainObservation(row, observees), nil
}

func (r *ObservationRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) (observation.Observation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return observation.Observation{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return observation.Observation{}, err
	}

	row, err := scanObservation(tx.QueryRow(ctx, `
		UPDATE observations
		SET published_at = $3, updated_at = $3
		WHERE tenant_id = $1 AND id = $2 AND published_at IS NULL
		RETURNING `+observationColumns,
		tenantID, id, at,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// either missing or already published; disambiguate for the caller
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return observation.Observation{}, observation.ErrAlreadyPublished
			}
			return observation.Observation{}, observation.ErrNotFound
		}
		return observation.Observation{}, err
	}

	observees, err := r.observeeIDs(ctx, tx, id)
	if err != nil {
		return observation.Observation{}, err
	}
	return toDomainObservation(row, observees), nil
}

func (r *ObservationRepository) observeeIDs(ctx context.Context, tx repo.Tx, observationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
		SELECT teammate_id FROM observation_observees
		WHERE observation_id = $1
		ORDER BY teammate_id`,
		observationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanObservation(row pgx.Row) (*models.Observation, error) {
	var m models.Observation
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.ObserverID,
		&m.Kind,
		&m.Story,
		&m.Privacy,
		&m.PublishedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
