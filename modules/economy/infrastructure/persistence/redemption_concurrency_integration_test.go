package persistence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/economy"
	"github.com/ar3/our-gruuv-sub016/modules/economy/services"
	"github.com/ar3/our-gruuv-sub016/modules/observations"
	"github.com/ar3/our-gruuv-sub016/modules/people"
	"github.com/ar3/our-gruuv-sub016/modules/people/domain/aggregates/teammate"
	peoplepersistence "github.com/ar3/our-gruuv-sub016/modules/people/infrastructure/persistence"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/itf"
)

// Two redemptions race for one balance. Unlike the other tests in this
// package, nothing here runs inside the harness transaction: each call opens
// its own transaction from the pool so the row lock and version CAS are
// exercised across real concurrent connections.
func TestRedemptionService_ConcurrentRedemptionsNeverOverspend(t *testing.T) {
	env := itf.NewTestContext().
		WithModules(people.NewModule(), observations.NewModule(), economy.NewModule()).
		Build(t)

	ctx := composables.WithPool(context.Background(), env.Pool)
	ctx = composables.WithTenantID(ctx, env.TenantID())
	ctx = composables.WithSystemActor(ctx)

	created, err := peoplepersistence.NewTeammateRepository().Create(
		ctx,
		teammate.New(env.TenantID(), "Redemption Racer", "redemption.racer@example.com"),
	)
	require.NoError(t, err)
	teammateID := created.ID()

	awards := env.Service(services.AwardService{}).(*services.AwardService)
	rewards := env.Service(services.RewardService{}).(*services.RewardService)
	redemptions := env.Service(services.RedemptionService{}).(*services.RedemptionService)
	ledgers := env.Service(services.LedgerService{}).(*services.LedgerService)

	_, err = awards.PostBankAward(ctx, services.BankAwardInput{
		RecipientID:   teammateID,
		PointsToSpend: decimal.NewFromInt(100),
		Reason:        "seed balance",
	})
	require.NoError(t, err)

	rw, err := rewards.Create(ctx, "team lunch", decimal.NewFromInt(60))
	require.NoError(t, err)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = redemptions.Redeem(ctx, teammateID, rw.ID(), "")
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, redeemErr := range errs {
		if redeemErr == nil {
			successes++
			continue
		}
		require.True(t, services.HasCode(redeemErr, services.CodeInsufficientBalance),
			"unexpected error: %v", redeemErr)
	}
	require.Equal(t, 1, successes)

	led, err := ledgers.Get(ctx, teammateID)
	require.NoError(t, err)
	require.False(t, led.PointsToSpend().IsNegative())
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(40)))

	rec, err := ledgers.Reconcile(ctx, teammateID)
	require.NoError(t, err)
	require.True(t, rec.Balanced)
}
