package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

// LedgerService answers balance queries. A teammate with no postings yet
// reads as the zero ledger.
type LedgerService struct {
	ledgers      ledger.Repository
	transactions transaction.Repository
}

func NewLedgerService(ledgers ledger.Repository, transactions transaction.Repository) *LedgerService {
	return &LedgerService{ledgers: ledgers, transactions: transactions}
}

func (s *LedgerService) Get(ctx context.Context, teammateID uuid.UUID) (ledger.Ledger, error) {
	var found ledger.Ledger
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		l, innerErr := s.ledgers.Get(txCtx, teammateID)
		if errors.Is(innerErr, ledger.ErrNotFound) {
			tenantID, tErr := composables.UseTenantID(txCtx)
			if tErr != nil {
				return tErr
			}
			found = ledger.Zero(tenantID, teammateID)
			return nil
		}
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}
		found = l
		return nil
	})
	return found, err
}

// History returns posted transactions, newest first.
func (s *LedgerService) History(ctx context.Context, teammateID uuid.UUID, params *transaction.FindParams) ([]transaction.Transaction, error) {
	var results []transaction.Transaction
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		results, innerErr = s.transactions.ListForTeammate(txCtx, teammateID, params)
		return mapEconomyError(innerErr)
	})
	return results, err
}

// Reconciliation compares the stored balances against the sum of posted
// deltas for the pair.
type Reconciliation struct {
	Balanced    bool
	LedgerGive  decimal.Decimal
	LedgerSpend decimal.Decimal
	SumGive     decimal.Decimal
	SumSpend    decimal.Decimal
}

// Reconcile recomputes both balances from the transaction log. The two
// views always match because balances only move together with an inserted
// transaction in the same unit of work.
func (s *LedgerService) Reconcile(ctx context.Context, teammateID uuid.UUID) (Reconciliation, error) {
	var result Reconciliation
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		led, innerErr := s.ledgers.Get(txCtx, teammateID)
		if errors.Is(innerErr, ledger.ErrNotFound) {
			led = ledger.Zero(uuid.Nil, teammateID)
		} else if innerErr != nil {
			return mapEconomyError(innerErr)
		}

		sumGive, sumSpend, innerErr := s.transactions.SumDeltas(txCtx, teammateID)
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}

		result = Reconciliation{
			Balanced: led.PointsToGive().Equal(sumGive) &&
				led.PointsToSpend().Equal(sumSpend),
			LedgerGive:  led.PointsToGive(),
			LedgerSpend: led.PointsToSpend(),
			SumGive:     sumGive,
			SumSpend:    sumSpend,
		}
		return nil
	})
	return result, err
}
