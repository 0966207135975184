package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
)

func newRewardFixture(t *testing.T) (*fixture, *fakeRewardRepo, *RewardService) {
	t.Helper()
	f := newFixture(t)
	rewards := newFakeRewardRepo()
	f.fakes = append(f.fakes, rewards)
	return f, rewards, NewRewardService(rewards)
}

func TestRewardService_CreateNormalizesCost(t *testing.T) {
	f, _, svc := newRewardFixture(t)

	created, err := svc.Create(f.ctx, "coffee voucher", decimal.RequireFromString("10.3"))
	require.NoError(t, err)
	require.True(t, created.CostInPoints().Equal(decimal.RequireFromString("10.5")),
		"cost = %s, want 10.5", created.CostInPoints())

	aligned, err := svc.Create(f.ctx, "team lunch", decimal.RequireFromString("60"))
	require.NoError(t, err)
	require.True(t, aligned.CostInPoints().Equal(decimal.NewFromInt(60)))
}

func TestRewardService_CreateRejectsNonPositiveCost(t *testing.T) {
	f, _, svc := newRewardFixture(t)

	_, err := svc.Create(f.ctx, "freebie", decimal.Zero)
	require.True(t, HasCode(err, CodeValidationFailed))

	_, err = svc.Create(f.ctx, "negative", decimal.NewFromInt(-5))
	require.True(t, HasCode(err, CodeValidationFailed))
}

func TestRedemptionService_DebitStaysOnGranularity(t *testing.T) {
	f, rewards, _, redeemSvc := newRedemptionFixture(t)
	rewardSvc := NewRewardService(rewards)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)

	created, err := rewardSvc.Create(f.ctx, "mystery box", decimal.RequireFromString("10.3"))
	require.NoError(t, err)

	redeemed, err := redeemSvc.Redeem(f.ctx, teammateID, created.ID(), "")
	require.NoError(t, err)
	require.True(t, redeemed.PointsSpent().Equal(decimal.RequireFromString("10.5")))

	for _, posted := range f.txs.posted {
		if posted.Kind != transaction.KindRedemption {
			continue
		}
		rem := posted.SpendDelta.Abs().Mod(decimal.RequireFromString("0.5"))
		require.True(t, rem.IsZero(), "spend delta %s is off-granularity", posted.SpendDelta)
	}
}
