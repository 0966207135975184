package persistence

import (
	"github.com/google/uuid"

	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/aggregates/observation"
	"github.com/ar3/our-gruuv-sub016/modules/observations/domain/entities/moment"
	"github.com/ar3/our-gruuv-sub016/modules/observations/infrastructure/persistence/models"
)

func toDomainObservation(row *models.Observation, observees []uuid.UUID) observation.Observation {
	return observation.Hydrate(
		row.TenantID,
		row.ID,
		row.ObserverID,
		observees,
		observation.Kind(row.Kind),
		row.Story,
		observation.Privacy(row.Privacy),
		row.PublishedAt,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

func toDomainMoment(row *models.Moment) moment.Moment {
	return moment.Hydrate(
		row.TenantID,
		row.ID,
		row.TeammateID,
		row.MilestoneKind,
		row.OccurredOn,
		row.CreatedAt,
	)
}
