package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/economyconfig"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/configuration"
)

type EconomyConfigRepository struct{}

func NewEconomyConfigRepository() economyconfig.Repository {
	return &EconomyConfigRepository{}
}

func (r *EconomyConfigRepository) GetForTenant(ctx context.Context) (economyconfig.Config, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return economyconfig.Config{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return economyconfig.Config{}, err
	}

	rows, err := tx.Query(ctx, `
		SELECT event_key, points_to_give::text, points_to_spend::text
		FROM economy_configs
		WHERE tenant_id = $1`,
		tenantID,
	)
	if err != nil {
		return economyconfig.Config{}, err
	}
	defer rows.Close()

	overrides := map[economyconfig.EventKey]economyconfig.Amounts{}
	for rows.Next() {
		var key, giveRaw, spendRaw string
		if err := rows.Scan(&key, &giveRaw, &spendRaw); err != nil {
			return economyconfig.Config{}, err
		}
		give, err := parseAmount(giveRaw)
		if err != nil {
			return economyconfig.Config{}, err
		}
		spend, err := parseAmount(spendRaw)
		if err != nil {
			return economyconfig.Config{}, err
		}
		overrides[economyconfig.EventKey(key)] = economyconfig.Amounts{
			PointsToGive:  give,
			PointsToSpend: spend,
		}
	}
	if err := rows.Err(); err != nil {
		return economyconfig.Config{}, err
	}

	weeklyMinimum := configuration.Use().Economy.WeeklyMinimum()
	ratingMin := decimal.Zero
	ratingMax := decimal.Zero

	var weeklyRaw, minRaw, maxRaw string
	err = tx.QueryRow(ctx, `
		SELECT weekly_guaranteed_minimum::text, rating_points_min::text, rating_points_max::text
		FROM economy_settings
		WHERE tenant_id = $1`,
		tenantID,
	).Scan(&weeklyRaw, &minRaw, &maxRaw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// no stored settings; the environment defaults stand
	case err != nil:
		return economyconfig.Config{}, err
	default:
		if weeklyMinimum, err = parseAmount(weeklyRaw); err != nil {
			return economyconfig.Config{}, err
		}
		if ratingMin, err = parseAmount(minRaw); err != nil {
			return economyconfig.Config{}, err
		}
		if ratingMax, err = parseAmount(maxRaw); err != nil {
			return economyconfig.Config{}, err
		}
	}

	return economyconfig.Hydrate(tenantID, overrides, weeklyMinimum, ratingMin, ratingMax), nil
}

func (r *EconomyConfigRepository) SetOverride(ctx context.Context, key economyconfig.EventKey, amounts economyconfig.Amounts) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO economy_configs (tenant_id, event_key, points_to_give, points_to_spend)
		VALUES ($1, $2, $3::numeric, $4::numeric)
		ON CONFLICT (tenant_id, event_key)
		DO UPDATE SET points_to_give = EXCLUDED.points_to_give,
			points_to_spend = EXCLUDED.points_to_spend`,
		tenantID, string(key),
		amounts.PointsToGive.String(), amounts.PointsToSpend.String(),
	)
	return err
}
