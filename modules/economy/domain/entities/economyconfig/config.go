package economyconfig

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKey names an automatic award type. Observable-moment milestone kinds
// and observation feedback kinds map directly onto these keys.
type EventKey string

const (
	KeyNewHire                 EventKey = "new_hire"
	KeySeatChange              EventKey = "seat_change"
	KeyAbilityMilestone        EventKey = "ability_milestone"
	KeyObservationRecognition  EventKey = "observation_recognition"
	KeyObservationConstructive EventKey = "observation_constructive"
)

var ErrConfigurationMissing = errors.New("no point amounts configured for event key")

// Amounts is the give/spend pair an event key awards.
type Amounts struct {
	PointsToGive  decimal.Decimal
	PointsToSpend decimal.Decimal
}

// HasPositive reports whether the override carries anything worth using;
// all-zero overrides fall through to defaults.
func (a Amounts) HasPositive() bool {
	return a.PointsToGive.IsPositive() || a.PointsToSpend.IsPositive()
}

// Defaults is the fixed system fallback table.
func Defaults() map[EventKey]Amounts {
	return map[EventKey]Amounts{
		KeyNewHire:                 {PointsToGive: decimal.NewFromInt(20), PointsToSpend: decimal.NewFromInt(10)},
		KeySeatChange:              {PointsToGive: decimal.NewFromInt(10), PointsToSpend: decimal.NewFromInt(5)},
		KeyAbilityMilestone:        {PointsToGive: decimal.Zero, PointsToSpend: decimal.NewFromInt(15)},
		KeyObservationRecognition:  {PointsToGive: decimal.Zero, PointsToSpend: decimal.NewFromInt(5)},
		KeyObservationConstructive: {PointsToGive: decimal.Zero, PointsToSpend: decimal.NewFromInt(2)},
	}
}

// Resolve picks the organization override when it has at least one positive
// amount, falling back to the system default. Unknown keys with no default
// return ErrConfigurationMissing.
func Resolve(overrides map[EventKey]Amounts, key EventKey) (Amounts, error) {
	if override, ok := overrides[key]; ok && override.HasPositive() {
		return override, nil
	}
	if def, ok := Defaults()[key]; ok {
		return def, nil
	}
	return Amounts{}, ErrConfigurationMissing
}

// Config carries an organization's override map plus the economy-wide
// limits.
type Config struct {
	tenantID                uuid.UUID
	overrides               map[EventKey]Amounts
	weeklyGuaranteedMinimum decimal.Decimal
	ratingPointsMin         decimal.Decimal
	ratingPointsMax         decimal.Decimal
}

func Hydrate(
	tenantID uuid.UUID,
	overrides map[EventKey]Amounts,
	weeklyGuaranteedMinimum decimal.Decimal,
	ratingPointsMin decimal.Decimal,
	ratingPointsMax decimal.Decimal,
) Config {
	if overrides == nil {
		overrides = map[EventKey]Amounts{}
	}
	return Config{
		tenantID:                tenantID,
		overrides:               overrides,
		weeklyGuaranteedMinimum: weeklyGuaranteedMinimum,
		ratingPointsMin:         ratingPointsMin,
		ratingPointsMax:         ratingPointsMax,
	}
}

func (c Config) TenantID() uuid.UUID { return c.tenantID }

func (c Config) Overrides() map[EventKey]Amounts {
	out := make(map[EventKey]Amounts, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}

func (c Config) WeeklyGuaranteedMinimum() decimal.Decimal { return c.weeklyGuaranteedMinimum }
func (c Config) RatingPointsMin() decimal.Decimal         { return c.ratingPointsMin }
func (c Config) RatingPointsMax() decimal.Decimal         { return c.ratingPointsMax }

// Resolve applies this organization's overrides.
func (c Config) Resolve(key EventKey) (Amounts, error) {
	return Resolve(c.overrides, key)
}

type Repository interface {
	// GetForTenant returns the organization's config, or a config with no
	// overrides when none is stored.
	GetForTenant(ctx context.Context) (Config, error)
	SetOverride(ctx context.Context, key EventKey, amounts Amounts) error
}
