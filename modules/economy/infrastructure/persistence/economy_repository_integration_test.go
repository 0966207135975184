package persistence_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ar3/our-gruuv-sub016/modules/economy"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence"
	"github.com/ar3/our-gruuv-sub016/modules/observations"
	"github.com/ar3/our-gruuv-sub016/modules/people"
	"github.com/ar3/our-gruuv-sub016/modules/people/domain/aggregates/teammate"
	peoplepersistence "github.com/ar3/our-gruuv-sub016/modules/people/infrastructure/persistence"
	"github.com/ar3/our-gruuv-sub016/pkg/itf"
)

func setupEconomyDB(t *testing.T) (*itf.TestEnvironment, uuid.UUID) {
	t.Helper()
	env := itf.NewTestContext().
		WithModules(people.NewModule(), observations.NewModule(), economy.NewModule()).
		Build(t)

	created, err := peoplepersistence.NewTeammateRepository().Create(
		env.Ctx,
		teammate.New(env.TenantID(), "Ledger Tester", "ledger.tester@example.com"),
	)
	require.NoError(t, err)
	return env, created.ID()
}

func TestLedgerRepository_LazyZeroRowAndCAS(t *testing.T) {
	env, teammateID := setupEconomyDB(t)
	repo := persistence.NewLedgerRepository()

	_, err := repo.Get(env.Ctx, teammateID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	locked, err := repo.GetForUpdate(env.Ctx, teammateID)
	require.NoError(t, err)
	require.True(t, locked.PointsToGive().IsZero())
	require.True(t, locked.PointsToSpend().IsZero())

	updated, err := repo.UpdateBalances(env.Ctx, locked,
		decimal.NewFromInt(20), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.Equal(t, locked.Version()+1, updated.Version())
	require.True(t, updated.PointsToGive().Equal(decimal.NewFromInt(20)))

	// Writing through the stale snapshot must hit the version CAS.
	_, err = repo.UpdateBalances(env.Ctx, locked,
		decimal.NewFromInt(99), decimal.NewFromInt(99))
	require.ErrorIs(t, err, ledger.ErrVersionConflict)

	current, err := repo.Get(env.Ctx, teammateID)
	require.NoError(t, err)
	require.True(t, current.PointsToSpend().Equal(decimal.NewFromInt(10)))
}

func TestTransactionRepository_UniqueSourceKind(t *testing.T) {
	env, teammateID := setupEconomyDB(t)
	repo := persistence.NewTransactionRepository()

	now := time.Now()
	source := transaction.SourceRef{Type: transaction.SourceManualAward, ID: uuid.New()}
	record := transaction.Transaction{
		Kind:       transaction.KindBankAward,
		TeammateID: teammateID,
		GiveDelta:  decimal.NewFromInt(5),
		SpendDelta: decimal.NewFromInt(5),
		Source:     source,
		Reason:     "quarterly kudos",
		PostedAt:   &now,
	}

	posted, err := repo.Insert(env.Ctx, record)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, posted.ID)

	_, err = repo.Insert(env.Ctx, record)
	require.ErrorIs(t, err, transaction.ErrDuplicate)

	exists, err := repo.Exists(env.Ctx, teammateID, source, transaction.KindBankAward)
	require.NoError(t, err)
	require.True(t, exists)

	listed, err := repo.ListForTeammate(env.Ctx, teammateID, &transaction.FindParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, posted.ID, listed[0].ID)

	give, spend, err := repo.SumDeltas(env.Ctx, teammateID)
	require.NoError(t, err)
	require.True(t, give.Equal(decimal.NewFromInt(5)))
	require.True(t, spend.Equal(decimal.NewFromInt(5)))
}
