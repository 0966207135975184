package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/economyconfig"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

func newAwardFixture(t *testing.T) (*fixture, *AwardService) {
	t.Helper()
	f := newFixture(t)
	configs := NewEconomyConfigService(newFakeConfigRepo(f.tenantID))
	return f, NewAwardService(f.posting, configs)
}

func TestAwardService_BankAward(t *testing.T) {
	f, svc := newAwardFixture(t)
	recipientID := uuid.New()

	posted, err := svc.PostBankAward(f.ctx, BankAwardInput{
		RecipientID:   recipientID,
		PointsToGive:  decimal.NewFromInt(20),
		PointsToSpend: decimal.NewFromInt(10),
		Reason:        "welcome aboard",
	})
	require.NoError(t, err)
	require.Equal(t, transaction.KindBankAward, posted.Kind)

	led, err := f.ledgers.Get(f.ctx, recipientID)
	require.NoError(t, err)
	require.True(t, led.PointsToGive().Equal(decimal.NewFromInt(20)))
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(10)))
}

func TestAwardService_BankAwardDenied(t *testing.T) {
	f, svc := newAwardFixture(t)
	denyEconomyAuthz(t)

	_, err := svc.PostBankAward(f.ctx, BankAwardInput{
		RecipientID:  uuid.New(),
		PointsToGive: decimal.NewFromInt(5),
	})
	require.True(t, HasCode(err, CodePermissionDenied))
	require.Empty(t, f.txs.posted)
}

func TestAwardService_BankAwardAnonymousDenied(t *testing.T) {
	f, svc := newAwardFixture(t)
	// Tenant scope but neither an acting teammate nor the system mark, like
	// an HTTP request that omitted the teammate header.
	anon := composables.WithTenantID(context.Background(), f.tenantID)

	_, err := svc.PostBankAward(anon, BankAwardInput{
		RecipientID:  uuid.New(),
		PointsToGive: decimal.NewFromInt(5),
	})
	require.True(t, HasCode(err, CodePermissionDenied))
	require.Empty(t, f.txs.posted)
}

func TestAwardService_BankAwardRejectsNoOp(t *testing.T) {
	f, svc := newAwardFixture(t)

	_, err := svc.PostBankAward(f.ctx, BankAwardInput{RecipientID: uuid.New()})
	require.True(t, HasCode(err, CodeValidationFailed))
}

func TestAwardService_BankAwardRetriesOnConflict(t *testing.T) {
	f, svc := newAwardFixture(t)
	f.ledgers.conflicts = 1

	_, err := svc.PostBankAward(f.ctx, BankAwardInput{
		RecipientID:  uuid.New(),
		PointsToGive: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.Len(t, f.txs.posted, 1)
	require.Len(t, f.events.messages, 1)
}

func TestAwardService_CelebratoryAwardIdempotent(t *testing.T) {
	f, svc := newAwardFixture(t)
	in := MomentInput{
		MomentID:      uuid.New(),
		TeammateID:    uuid.New(),
		MilestoneKind: string(economyconfig.KeyNewHire),
	}

	require.NoError(t, svc.PostCelebratoryAward(f.ctx, in))
	require.NoError(t, svc.PostCelebratoryAward(f.ctx, in))
	require.Len(t, f.txs.posted, 1)

	led, err := f.ledgers.Get(f.ctx, in.TeammateID)
	require.NoError(t, err)
	require.True(t, led.PointsToGive().Equal(decimal.NewFromInt(20)))
	require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(10)))
}

func TestAwardService_CelebratoryAwardSkipsUnconfiguredMilestone(t *testing.T) {
	f, svc := newAwardFixture(t)

	err := svc.PostCelebratoryAward(f.ctx, MomentInput{
		MomentID:      uuid.New(),
		TeammateID:    uuid.New(),
		MilestoneKind: "office_party",
	})
	require.NoError(t, err)
	require.Empty(t, f.txs.posted)
}

func TestAwardService_ObservationPoints(t *testing.T) {
	f, svc := newAwardFixture(t)
	observerID := uuid.New()
	observees := []uuid.UUID{uuid.New(), uuid.New()}

	err := svc.PostObservationPoints(f.ctx, ObservationInput{
		ObservationID: uuid.New(),
		ObserverID:    observerID,
		ObserveeIDs:   observees,
		Kind:          "recognition",
	})
	require.NoError(t, err)

	for _, observeeID := range observees {
		led, lErr := f.ledgers.Get(f.ctx, observeeID)
		require.NoError(t, lErr)
		require.True(t, led.PointsToSpend().Equal(decimal.NewFromInt(5)))
	}

	// kickback: 20% of the 10 distributed
	led, err := f.ledgers.Get(f.ctx, observerID)
	require.NoError(t, err)
	require.True(t, led.PointsToGive().Equal(decimal.NewFromInt(2)))
	require.Equal(t, []transaction.Kind{transaction.KindKickbackReward}, f.txs.kinds(observerID))
}

func TestAwardService_ObservationPointsRedelivery(t *testing.T) {
	f, svc := newAwardFixture(t)
	in := ObservationInput{
		ObservationID: uuid.New(),
		ObserverID:    uuid.New(),
		ObserveeIDs:   []uuid.UUID{uuid.New()},
		Kind:          "constructive",
	}

	require.NoError(t, svc.PostObservationPoints(f.ctx, in))
	posted := len(f.txs.posted)
	require.NoError(t, svc.PostObservationPoints(f.ctx, in))
	require.Len(t, f.txs.posted, posted)
}

func TestAwardService_ObserverDirectedAward(t *testing.T) {
	f, svc := newAwardFixture(t)
	observerID := uuid.New()
	observeeID := uuid.New()
	f.ledgers.seed(observerID, 20, 0)

	err := svc.PostObserverDirectedAward(f.ctx, ObservationInput{
		ObservationID: uuid.New(),
		ObserverID:    observerID,
		ObserveeIDs:   []uuid.UUID{observeeID},
		Kind:          "recognition",
	}, decimal.NewFromInt(10))
	require.NoError(t, err)

	observee, err := f.ledgers.Get(f.ctx, observeeID)
	require.NoError(t, err)
	require.True(t, observee.PointsToSpend().Equal(decimal.NewFromInt(10)))

	// 20 - 10 directed + 2 kickback
	observer, err := f.ledgers.Get(f.ctx, observerID)
	require.NoError(t, err)
	require.True(t, observer.PointsToGive().Equal(decimal.NewFromInt(12)))
}

func TestAwardService_ObserverDirectedAwardGuarded(t *testing.T) {
	f, svc := newAwardFixture(t)
	observerID := uuid.New()
	f.ledgers.seed(observerID, 5, 0)

	err := svc.PostObserverDirectedAward(f.ctx, ObservationInput{
		ObservationID: uuid.New(),
		ObserverID:    observerID,
		ObserveeIDs:   []uuid.UUID{uuid.New()},
		Kind:          "recognition",
	}, decimal.NewFromInt(10))
	require.True(t, HasCode(err, CodeInsufficientBalance))
	require.Empty(t, f.txs.posted)
}
