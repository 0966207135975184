package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

func newRedemptionFixture(t *testing.T) (*fixture, *fakeRewardRepo, *fakeRedemptionRepo, *RedemptionService) {
	t.Helper()
	f := newFixture(t)
	rewards := newFakeRewardRepo()
	redemptions := newFakeRedemptionRepo()
	f.fakes = append(f.fakes, rewards, redemptions)
	svc := NewRedemptionService(redemptions, rewards, f.ledgers, f.posting)
	return f, rewards, redemptions, svc
}

func TestRedemptionService_Redeem(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)
	require.Equal(t, redemption.StatusPending, created.Status())
	require.True(t, created.PointsSpent().Equal(decimal.NewFromInt(50)))

	led, err := f.ledgers.Get(f.ctx, teammateID)
	require.NoError(t, err)
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(50)))
	require.Equal(t, []transaction.Kind{transaction.KindRedemption}, f.txs.kinds(teammateID))
}

func TestRedemptionService_RedeemInsufficientBalance(t *testing.T) {
	f, rewards, redemptions, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "flight upgrade", 150)

	_, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.True(t, HasCode(err, CodeInsufficientBalance))
	require.Empty(t, f.txs.posted)
	require.Empty(t, redemptions.byID)
}

func TestRedemptionService_RedeemSequentialExhaustion(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "team lunch", 60)

	_, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	_, err = svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.True(t, HasCode(err, CodeInsufficientBalance))

	led, err := f.ledgers.Get(f.ctx, teammateID)
	require.NoError(t, err)
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(40)))
}

func TestRedemptionService_RedeemUnknownReward(t *testing.T) {
	f, _, _, svc := newRedemptionFixture(t)

	_, err := svc.Redeem(f.ctx, uuid.New(), uuid.New(), "")
	require.True(t, HasCode(err, CodeNotFound))
}

func TestRedemptionService_Fulfill(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	fulfilled, err := svc.Fulfill(f.ctx, created.ID(), "order-991")
	require.NoError(t, err)
	require.Equal(t, redemption.StatusFulfilled, fulfilled.Status())
	require.Equal(t, "order-991", fulfilled.ExternalReference())
	require.NotNil(t, fulfilled.ResolvedAt())

	_, err = svc.Fulfill(f.ctx, created.ID(), "order-992")
	require.True(t, HasCode(err, CodeInvalidStateTransition))
}

func TestRedemptionService_FulfillAnonymousDenied(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	anon := composables.WithTenantID(context.Background(), f.tenantID)
	_, err = svc.Fulfill(anon, created.ID(), "order-1")
	require.True(t, HasCode(err, CodePermissionDenied))

	_, err = svc.Cancel(anon, created.ID(), "changed my mind")
	require.True(t, HasCode(err, CodePermissionDenied))
}

func TestRedemptionService_FulfillRequiresExternalRef(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	_, err = svc.Fulfill(f.ctx, created.ID(), "   ")
	require.True(t, HasCode(err, CodeValidationFailed))
}

func TestRedemptionService_CancelRefundsExactlyOnce(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(f.ctx, created.ID(), "out of stock")
	require.NoError(t, err)
	require.Equal(t, redemption.StatusCancelled, cancelled.Status())

	led, err := f.ledgers.Get(f.ctx, teammateID)
	require.NoError(t, err)
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(100)))

	var refunds []transaction.Transaction
	for _, posted := range f.txs.posted {
		if posted.Kind == transaction.KindRefund {
			refunds = append(refunds, posted)
		}
	}
	require.Len(t, refunds, 1)
	require.NotNil(t, refunds[0].OriginalTransactionID)
	require.Equal(t, "out of stock", refunds[0].Reason)

	_, err = svc.Cancel(f.ctx, created.ID(), "again")
	require.True(t, HasCode(err, CodeInvalidStateTransition))

	led, err = f.ledgers.Get(f.ctx, teammateID)
	require.NoError(t, err)
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(100)))
}

func TestRedemptionService_CancelDefaultsReason(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	_, err = svc.Cancel(f.ctx, created.ID(), "")
	require.NoError(t, err)

	history, err := f.txs.ListForTeammate(f.ctx, teammateID, &transaction.FindParams{Kind: transaction.KindRefund})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "redemption cancelled", history[0].Reason)
}

func TestRedemptionService_GuardedActionsDenied(t *testing.T) {
	f, rewards, _, svc := newRedemptionFixture(t)
	teammateID := uuid.New()
	f.ledgers.seed(teammateID, 0, 100)
	rewardID := rewards.seed(f.tenantID, "coffee voucher", 50)

	created, err := svc.Redeem(f.ctx, teammateID, rewardID, "")
	require.NoError(t, err)

	denyEconomyAuthz(t)
	_, err = svc.Fulfill(f.ctx, created.ID(), "order-1")
	require.True(t, HasCode(err, CodePermissionDenied))
	_, err = svc.Cancel(f.ctx, created.ID(), "")
	require.True(t, HasCode(err, CodePermissionDenied))
}
