package persistence

import (
	"github.com/ar3/our-gruuv-sub016/modules/people/domain/aggregates/teammate"
	"github.com/ar3/our-gruuv-sub016/modules/people/infrastructure/persistence/models"
)

func toDomainTeammate(row *models.Teammate) teammate.Teammate {
	return teammate.Hydrate(
		row.TenantID,
		row.ID,
		row.DisplayName,
		row.Email,
		teammate.Status(row.Status),
		row.CreatedAt,
		row.UpdatedAt,
	)
}
