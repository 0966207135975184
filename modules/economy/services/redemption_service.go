package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/reward"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
)

// RedemptionService runs the pending → fulfilled | cancelled lifecycle and
// keeps the ledger in step: a debit when the redemption is created, exactly
// one compensating refund when it is cancelled.
type RedemptionService struct {
	redemptions redemption.Repository
	rewards     reward.Repository
	ledgers     ledger.Repository
	posting     *PostingService
}

func NewRedemptionService(
	redemptions redemption.Repository,
	rewards reward.Repository,
	ledgers ledger.Repository,
	posting *PostingService,
) *RedemptionService {
	return &RedemptionService{
		redemptions: redemptions,
		rewards:     rewards,
		ledgers:     ledgers,
		posting:     posting,
	}
}

// Redeem exchanges spend-points for a reward: a pending redemption plus the
// ledger debit, atomically. The advisory balance check fails fast; the
// posting engine's guard under the row lock is authoritative.
func (s *RedemptionService) Redeem(ctx context.Context, teammateID, rewardID uuid.UUID, notes string) (redemption.Redemption, error) {
	var created redemption.Redemption
	err := retryOnConflict(ctx, func(txCtx context.Context) error {
		rw, innerErr := s.rewards.GetActiveByID(txCtx, rewardID)
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}

		led, innerErr := s.ledgers.Get(txCtx, teammateID)
		if innerErr == nil && !led.CanSpend(rw.CostInPoints()) {
			return errInsufficientBalance(nil)
		}

		tenantID := rw.TenantID()
		pending, innerErr := s.redemptions.Create(txCtx,
			redemption.New(tenantID, teammateID, rewardID, rw.CostInPoints(), notes))
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}

		draft, innerErr := transaction.NewDraft(
			transaction.KindRedemption,
			teammateID,
			decimal.Zero,
			rw.CostInPoints().Neg(),
			transaction.SourceRef{Type: transaction.SourceRedemption, ID: pending.ID()},
			fmt.Sprintf("redemption: %s", rw.Name()),
		)
		if innerErr != nil {
			return innerErr
		}
		if _, innerErr = s.posting.Post(txCtx, draft); innerErr != nil {
			return innerErr
		}
		created = pending
		return nil
	})
	return created, err
}

// Fulfill moves a pending redemption to its fulfilled terminal state.
func (s *RedemptionService) Fulfill(ctx context.Context, redemptionID uuid.UUID, externalRef string) (redemption.Redemption, error) {
	if err := authorizeEconomy(ctx, RedemptionsAuthzObject, "fulfill"); err != nil {
		return redemption.Redemption{}, errPermissionDenied(err)
	}

	var updated redemption.Redemption
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		current, innerErr := s.redemptions.GetByID(txCtx, redemptionID)
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}
		fulfilled, innerErr := current.Fulfilled(externalRef, time.Now())
		if innerErr != nil {
			if errors.Is(innerErr, redemption.ErrBlankExternalRef) {
				return errValidationFailed(innerErr.Error(), innerErr)
			}
			return mapEconomyError(innerErr)
		}
		updated, innerErr = s.redemptions.Update(txCtx, fulfilled)
		return mapEconomyError(innerErr)
	})
	return updated, err
}

// Cancel moves a pending redemption to cancelled and posts exactly one
// refund crediting the spent points back. The transition check makes a
// second cancel fail before any refund could double up.
func (s *RedemptionService) Cancel(ctx context.Context, redemptionID uuid.UUID, reason string) (redemption.Redemption, error) {
	if err := authorizeEconomy(ctx, RedemptionsAuthzObject, "cancel"); err != nil {
		return redemption.Redemption{}, errPermissionDenied(err)
	}

	var updated redemption.Redemption
	err := retryOnConflict(ctx, func(txCtx context.Context) error {
		current, innerErr := s.redemptions.GetByID(txCtx, redemptionID)
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}
		cancelled, innerErr := current.Cancelled(time.Now())
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}
		if updated, innerErr = s.redemptions.Update(txCtx, cancelled); innerErr != nil {
			return mapEconomyError(innerErr)
		}

		if reason == "" {
			reason = "redemption cancelled"
		}
		draft, innerErr := transaction.NewDraft(
			transaction.KindRefund,
			current.TeammateID(),
			decimal.Zero,
			current.PointsSpent(),
			transaction.SourceRef{Type: transaction.SourceRedemption, ID: current.ID()},
			reason,
		)
		if innerErr != nil {
			return innerErr
		}
		if originalID, ok := s.originalDebit(txCtx, current); ok {
			draft = draft.WithOriginal(originalID)
		}
		_, innerErr = s.posting.Post(txCtx, draft)
		return innerErr
	})
	return updated, err
}

// ListForTeammate returns the teammate's redemption history.
func (s *RedemptionService) ListForTeammate(ctx context.Context, teammateID uuid.UUID) ([]redemption.Redemption, error) {
	var results []redemption.Redemption
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		results, innerErr = s.redemptions.ListForTeammate(txCtx, teammateID)
		return mapEconomyError(innerErr)
	})
	return results, err
}

// originalDebit finds the debit transaction the refund reverses.
func (s *RedemptionService) originalDebit(ctx context.Context, r redemption.Redemption) (uuid.UUID, bool) {
	debits, err := s.posting.transactions.ListForTeammate(ctx, r.TeammateID(), &transaction.FindParams{
		Kind: transaction.KindRedemption,
	})
	if err != nil {
		return uuid.Nil, false
	}
	for _, t := range debits {
		if t.Source.ID == r.ID() {
			return t.ID, true
		}
	}
	return uuid.Nil, false
}
