package services

import (
	"context"
	"errors"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/economyconfig"
)

// EconomyConfigService resolves event keys to point amounts using the
// organization's overrides with the system default fallback.
type EconomyConfigService struct {
	configs economyconfig.Repository
}

func NewEconomyConfigService(configs economyconfig.Repository) *EconomyConfigService {
	return &EconomyConfigService{configs: configs}
}

func (s *EconomyConfigService) GetForTenant(ctx context.Context) (economyconfig.Config, error) {
	cfg, err := s.configs.GetForTenant(ctx)
	if err != nil {
		return economyconfig.Config{}, mapEconomyError(err)
	}
	return cfg, nil
}

// Resolve returns the amounts for an event key, typed as
// configuration-missing when neither override nor default covers it.
func (s *EconomyConfigService) Resolve(ctx context.Context, key economyconfig.EventKey) (economyconfig.Amounts, error) {
	cfg, err := s.configs.GetForTenant(ctx)
	if err != nil {
		return economyconfig.Amounts{}, mapEconomyError(err)
	}
	amounts, err := cfg.Resolve(key)
	if err != nil {
		if errors.Is(err, economyconfig.ErrConfigurationMissing) {
			return economyconfig.Amounts{}, errConfigurationMissing(err)
		}
		return economyconfig.Amounts{}, err
	}
	return amounts, nil
}

// SetOverride stores an organization override for an event key. All-zero
// overrides are allowed and fall through to defaults at resolve time.
func (s *EconomyConfigService) SetOverride(ctx context.Context, key economyconfig.EventKey, amounts economyconfig.Amounts) error {
	if amounts.PointsToGive.IsNegative() || amounts.PointsToSpend.IsNegative() {
		return errValidationFailed("point amounts cannot be negative", nil)
	}
	if err := s.configs.SetOverride(ctx, key, amounts); err != nil {
		return mapEconomyError(err)
	}
	return nil
}
