package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/economyconfig"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/reward"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/pkg/authz"
	"github.com/ar3/our-gruuv-sub016/pkg/constants"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
	"github.com/ar3/our-gruuv-sub016/pkg/repo"
)

type fakeOutboxPublisher struct {
	messages []outbox.Message
}

func (f *fakeOutboxPublisher) Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg outbox.Message) (int64, error) {
	f.messages = append(f.messages, msg)
	return int64(len(f.messages)), nil
}

func (f *fakeOutboxPublisher) snapshot() func() {
	messages := append([]outbox.Message(nil), f.messages...)
	return func() { f.messages = messages }
}

// stubTx satisfies the repository query surface; the in-memory fakes never
// touch it.
type stubTx struct{}

func (stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

// rollbackable fakes hand out a restore closure capturing their current
// state, so the fake unit of work can undo partial writes on failure.
type rollbackable interface {
	snapshot() func()
}

// installFakeTx routes the ambient unit of work through the fixture's
// fakes. A failed callback rolls every fake back to its pre-attempt state,
// matching real transaction rollback.
func installFakeTx(t *testing.T, f *fixture) {
	t.Helper()
	prev := runInTenantTx
	runInTenantTx = func(ctx context.Context, fn func(context.Context) error) error {
		restores := make([]func(), 0, len(f.fakes))
		for _, fake := range f.fakes {
			restores = append(restores, fake.snapshot())
		}
		err := fn(context.WithValue(ctx, constants.TxKey, stubTx{}))
		if err != nil {
			for i := len(restores) - 1; i >= 0; i-- {
				restores[i]()
			}
		}
		return err
	}
	t.Cleanup(func() { runInTenantTx = prev })
}

func denyEconomyAuthz(t *testing.T) {
	t.Helper()
	prev := authorizeEconomyFn
	authorizeEconomyFn = func(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
		return errPermissionDenied(nil)
	}
	t.Cleanup(func() { authorizeEconomyFn = prev })
}

type fakeLedgerRepo struct {
	tenantID  uuid.UUID
	byPair    map[uuid.UUID]ledger.Ledger
	conflicts int
}

func newFakeLedgerRepo(tenantID uuid.UUID) *fakeLedgerRepo {
	return &fakeLedgerRepo{tenantID: tenantID, byPair: map[uuid.UUID]ledger.Ledger{}}
}

// snapshot leaves the injected conflict counter alone: consuming a conflict
// is test plumbing, not transactional state.
func (f *fakeLedgerRepo) snapshot() func() {
	byPair := make(map[uuid.UUID]ledger.Ledger, len(f.byPair))
	for k, v := range f.byPair {
		byPair[k] = v
	}
	return func() { f.byPair = byPair }
}

func (f *fakeLedgerRepo) seed(teammateID uuid.UUID, give, spend int64) {
	f.byPair[teammateID] = ledger.Hydrate(
		f.tenantID, teammateID,
		decimal.NewFromInt(give), decimal.NewFromInt(spend),
		1, time.Now(), time.Now(),
	)
}

func (f *fakeLedgerRepo) Get(ctx context.Context, teammateID uuid.UUID) (ledger.Ledger, error) {
	l, ok := f.byPair[teammateID]
	if !ok {
		return ledger.Ledger{}, ledger.ErrNotFound
	}
	return l, nil
}

func (f *fakeLedgerRepo) GetForUpdate(ctx context.Context, teammateID uuid.UUID) (ledger.Ledger, error) {
	if l, ok := f.byPair[teammateID]; ok {
		return l, nil
	}
	l := ledger.Hydrate(f.tenantID, teammateID, decimal.Zero, decimal.Zero, 0, time.Now(), time.Now())
	f.byPair[teammateID] = l
	return l, nil
}

func (f *fakeLedgerRepo) UpdateBalances(ctx context.Context, l ledger.Ledger, newGive, newSpend decimal.Decimal) (ledger.Ledger, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return ledger.Ledger{}, ledger.ErrVersionConflict
	}
	current, ok := f.byPair[l.TeammateID()]
	if !ok || current.Version() != l.Version() {
		return ledger.Ledger{}, ledger.ErrVersionConflict
	}
	updated := ledger.Hydrate(
		l.TenantID(), l.TeammateID(), newGive, newSpend,
		l.Version()+1, current.CreatedAt(), time.Now(),
	)
	f.byPair[l.TeammateID()] = updated
	return updated, nil
}

type txKey struct {
	teammateID uuid.UUID
	sourceType transaction.SourceType
	sourceID   uuid.UUID
	kind       transaction.Kind
}

type fakeTransactionRepo struct {
	posted []transaction.Transaction
	seen   map[txKey]struct{}
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{seen: map[txKey]struct{}{}}
}

func (f *fakeTransactionRepo) snapshot() func() {
	posted := append([]transaction.Transaction(nil), f.posted...)
	seen := make(map[txKey]struct{}, len(f.seen))
	for k := range f.seen {
		seen[k] = struct{}{}
	}
	return func() { f.posted = posted; f.seen = seen }
}

func (f *fakeTransactionRepo) Insert(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	key := txKey{t.TeammateID, t.Source.Type, t.Source.ID, t.Kind}
	if _, dup := f.seen[key]; dup {
		return transaction.Transaction{}, transaction.ErrDuplicate
	}
	f.seen[key] = struct{}{}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	f.posted = append(f.posted, t)
	return t, nil
}

func (f *fakeTransactionRepo) Exists(ctx context.Context, teammateID uuid.UUID, source transaction.SourceRef, kind transaction.Kind) (bool, error) {
	_, ok := f.seen[txKey{teammateID, source.Type, source.ID, kind}]
	return ok, nil
}

func (f *fakeTransactionRepo) ListForTeammate(ctx context.Context, teammateID uuid.UUID, params *transaction.FindParams) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	for _, t := range f.posted {
		if t.TeammateID != teammateID {
			continue
		}
		if params != nil && params.Kind != "" && t.Kind != params.Kind {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTransactionRepo) SumDeltas(ctx context.Context, teammateID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	give, spend := decimal.Zero, decimal.Zero
	for _, t := range f.posted {
		if t.TeammateID != teammateID || !t.IsPosted() {
			continue
		}
		give = give.Add(t.GiveDelta)
		spend = spend.Add(t.SpendDelta)
	}
	return give, spend, nil
}

func (f *fakeTransactionRepo) kinds(teammateID uuid.UUID) []transaction.Kind {
	var out []transaction.Kind
	for _, t := range f.posted {
		if t.TeammateID == teammateID {
			out = append(out, t.Kind)
		}
	}
	return out
}

type fakeRedemptionRepo struct {
	byID map[uuid.UUID]redemption.Redemption
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{byID: map[uuid.UUID]redemption.Redemption{}}
}

func (f *fakeRedemptionRepo) snapshot() func() {
	byID := make(map[uuid.UUID]redemption.Redemption, len(f.byID))
	for k, v := range f.byID {
		byID[k] = v
	}
	return func() { f.byID = byID }
}

func (f *fakeRedemptionRepo) GetByID(ctx context.Context, id uuid.UUID) (redemption.Redemption, error) {
	r, ok := f.byID[id]
	if !ok {
		return redemption.Redemption{}, redemption.ErrNotFound
	}
	return r, nil
}

func (f *fakeRedemptionRepo) Create(ctx context.Context, r redemption.Redemption) (redemption.Redemption, error) {
	created := redemption.Hydrate(
		uuid.New(), r.TenantID(), r.TeammateID(), r.RewardID(),
		r.PointsSpent(), r.Status(), r.ExternalReference(), r.Notes(),
		r.ResolvedAt(), time.Now(), time.Now(),
	)
	f.byID[created.ID()] = created
	return created, nil
}

func (f *fakeRedemptionRepo) Update(ctx context.Context, r redemption.Redemption) (redemption.Redemption, error) {
	if _, ok := f.byID[r.ID()]; !ok {
		return redemption.Redemption{}, redemption.ErrNotFound
	}
	f.byID[r.ID()] = r
	return r, nil
}

func (f *fakeRedemptionRepo) ListForTeammate(ctx context.Context, teammateID uuid.UUID) ([]redemption.Redemption, error) {
	var out []redemption.Redemption
	for _, r := range f.byID {
		if r.TeammateID() == teammateID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRewardRepo struct {
	byID map[uuid.UUID]reward.Reward
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{byID: map[uuid.UUID]reward.Reward{}}
}

func (f *fakeRewardRepo) snapshot() func() {
	byID := make(map[uuid.UUID]reward.Reward, len(f.byID))
	for k, v := range f.byID {
		byID[k] = v
	}
	return func() { f.byID = byID }
}

func (f *fakeRewardRepo) seed(tenantID uuid.UUID, name string, cost int64) uuid.UUID {
	id := uuid.New()
	f.byID[id] = reward.Hydrate(
		id, tenantID, name, decimal.NewFromInt(cost),
		true, nil, time.Now(), time.Now(),
	)
	return id
}

func (f *fakeRewardRepo) GetByID(ctx context.Context, id uuid.UUID) (reward.Reward, error) {
	r, ok := f.byID[id]
	if !ok {
		return reward.Reward{}, reward.ErrNotFound
	}
	return r, nil
}

func (f *fakeRewardRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (reward.Reward, error) {
	r, err := f.GetByID(ctx, id)
	if err != nil || !r.IsRedeemable() {
		return reward.Reward{}, reward.ErrNotFound
	}
	return r, nil
}

func (f *fakeRewardRepo) List(ctx context.Context) ([]reward.Reward, error) {
	var out []reward.Reward
	for _, r := range f.byID {
		if r.DeletedAt() == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRewardRepo) Create(ctx context.Context, r reward.Reward) (reward.Reward, error) {
	created := reward.Hydrate(
		uuid.New(), r.TenantID(), r.Name(), r.CostInPoints(),
		r.Active(), nil, time.Now(), time.Now(),
	)
	f.byID[created.ID()] = created
	return created, nil
}

func (f *fakeRewardRepo) Update(ctx context.Context, r reward.Reward) (reward.Reward, error) {
	if _, ok := f.byID[r.ID()]; !ok {
		return reward.Reward{}, reward.ErrNotFound
	}
	f.byID[r.ID()] = r
	return r, nil
}

func (f *fakeRewardRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r, ok := f.byID[id]
	if !ok {
		return reward.ErrNotFound
	}
	now := time.Now()
	f.byID[id] = reward.Hydrate(
		r.ID(), r.TenantID(), r.Name(), r.CostInPoints(),
		false, &now, r.CreatedAt(), now,
	)
	return nil
}

type fakeConfigRepo struct {
	tenantID  uuid.UUID
	overrides map[economyconfig.EventKey]economyconfig.Amounts
}

func newFakeConfigRepo(tenantID uuid.UUID) *fakeConfigRepo {
	return &fakeConfigRepo{tenantID: tenantID, overrides: map[economyconfig.EventKey]economyconfig.Amounts{}}
}

func (f *fakeConfigRepo) GetForTenant(ctx context.Context) (economyconfig.Config, error) {
	return economyconfig.Hydrate(f.tenantID, f.overrides, decimal.NewFromInt(10), decimal.Zero, decimal.Zero), nil
}

func (f *fakeConfigRepo) SetOverride(ctx context.Context, key economyconfig.EventKey, amounts economyconfig.Amounts) error {
	f.overrides[key] = amounts
	return nil
}
