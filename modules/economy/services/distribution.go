package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/pkg/configuration"
)

// Normalize rounds a positive amount up to the configured point
// granularity. Non-positive amounts collapse to zero.
func Normalize(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() {
		return decimal.Zero
	}
	step := configuration.Use().Economy.Granularity()
	return d.Div(step).Ceil().Mul(step)
}

// Distribute splits total evenly across the recipients and normalizes each
// share. Rounding is generosity-biased: the distributed sum can exceed the
// nominal total, never undercut it.
func Distribute(total decimal.Decimal, recipients []uuid.UUID) map[uuid.UUID]decimal.Decimal {
	shares := make(map[uuid.UUID]decimal.Decimal, len(recipients))
	if len(recipients) == 0 || !total.IsPositive() {
		return shares
	}
	per := Normalize(total.Div(decimal.NewFromInt(int64(len(recipients)))))
	for _, id := range recipients {
		shares[id] = per
	}
	return shares
}

// RecognitionKickback is the observer's reward for recognition feedback: a
// configured fraction of the total distributed, normalized.
func RecognitionKickback(totalDistributed decimal.Decimal) decimal.Decimal {
	return Normalize(totalDistributed.Mul(configuration.Use().Economy.RecognitionMultiplier()))
}

// ConstructiveKickback is the flat observer reward for constructive
// feedback.
func ConstructiveKickback() decimal.Decimal {
	return Normalize(configuration.Use().Economy.ConstructiveFlat())
}
