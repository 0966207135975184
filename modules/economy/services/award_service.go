package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/economyconfig"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

// AwardService turns inbound award commands and source events into posted
// transactions. Every command is one atomic unit of work; re-delivered
// events collapse into no-ops through the posting engine's idempotency.
type AwardService struct {
	posting *PostingService
	configs *EconomyConfigService
}

func NewAwardService(posting *PostingService, configs *EconomyConfigService) *AwardService {
	return &AwardService{posting: posting, configs: configs}
}

type BankAwardInput struct {
	RecipientID   uuid.UUID
	PointsToGive  decimal.Decimal
	PointsToSpend decimal.Decimal
	Reason        string
}

// PostBankAward is the permission-guarded manual grant from the
// organization's point bank.
func (s *AwardService) PostBankAward(ctx context.Context, in BankAwardInput) (transaction.Transaction, error) {
	if err := authorizeEconomy(ctx, BankAuthzObject, "post"); err != nil {
		return transaction.Transaction{}, errPermissionDenied(err)
	}

	draft, err := transaction.NewDraft(
		transaction.KindBankAward,
		in.RecipientID,
		Normalize(in.PointsToGive),
		Normalize(in.PointsToSpend),
		transaction.SourceRef{Type: transaction.SourceManualAward, ID: uuid.New()},
		in.Reason,
	)
	if err != nil {
		return transaction.Transaction{}, errValidationFailed(err.Error(), err)
	}

	var posted transaction.Transaction
	err = retryOnConflict(ctx, func(txCtx context.Context) error {
		var innerErr error
		posted, innerErr = s.posting.Post(txCtx, draft)
		return innerErr
	})
	return posted, err
}

type MomentInput struct {
	TenantID      uuid.UUID
	MomentID      uuid.UUID
	TeammateID    uuid.UUID
	MilestoneKind string
}

// PostCelebratoryAward grants the configured amounts for an observable
// moment. Milestone kinds with no configuration are skipped, not failed:
// the moment still stands, it just carries no points.
func (s *AwardService) PostCelebratoryAward(ctx context.Context, in MomentInput) error {
	if err := sameOrganization(ctx, in.TenantID); err != nil {
		return err
	}
	err := retryOnConflict(ctx, func(txCtx context.Context) error {
		amounts, innerErr := s.configs.Resolve(txCtx, economyconfig.EventKey(in.MilestoneKind))
		if innerErr != nil {
			return innerErr
		}

		draft, innerErr := transaction.NewDraft(
			transaction.KindCelebratoryAward,
			in.TeammateID,
			Normalize(amounts.PointsToGive),
			Normalize(amounts.PointsToSpend),
			transaction.SourceRef{Type: transaction.SourceObservableMoment, ID: in.MomentID},
			fmt.Sprintf("celebratory award: %s", in.MilestoneKind),
		)
		if innerErr != nil {
			return innerErr
		}

		if done, innerErr := s.posting.alreadyProcessed(txCtx, draft); innerErr != nil || done {
			return innerErr
		}
		_, innerErr = s.posting.Post(txCtx, draft)
		return innerErr
	})
	if HasCode(err, CodeConfigurationMissing) {
		s.logger(ctx).WithField("milestone_kind", in.MilestoneKind).
			Info("skipping celebratory award, no amounts configured")
		return nil
	}
	if HasCode(err, CodeAlreadyProcessed) {
		return nil
	}
	return err
}

type ObservationInput struct {
	TenantID      uuid.UUID
	ObservationID uuid.UUID
	ObserverID    uuid.UUID
	ObserveeIDs   []uuid.UUID
	Kind          string
}

// sameOrganization rejects event payloads whose organization does not match
// the request scope. A zero event tenant means the caller established scope
// itself.
func sameOrganization(ctx context.Context, eventTenantID uuid.UUID) error {
	if eventTenantID == uuid.Nil {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	if tenantID != eventTenantID {
		return errCrossOrganization(nil)
	}
	return nil
}

// PostObservationPoints credits each observee per the configured amounts for
// the feedback kind and rewards the observer with a kickback, all in one
// unit of work. Safe under event re-delivery.
func (s *AwardService) PostObservationPoints(ctx context.Context, in ObservationInput) error {
	key, err := observationEventKey(in.Kind)
	if err != nil {
		return err
	}
	if err := sameOrganization(ctx, in.TenantID); err != nil {
		return err
	}

	err = retryOnConflict(ctx, func(txCtx context.Context) error {
		amounts, innerErr := s.configs.Resolve(txCtx, key)
		if innerErr != nil {
			return innerErr
		}

		drafts := make([]transaction.Draft, 0, len(in.ObserveeIDs)+1)
		total := decimal.Zero
		for _, observeeID := range in.ObserveeIDs {
			credit := Normalize(amounts.PointsToSpend)
			if !credit.IsPositive() {
				continue
			}
			draft, draftErr := transaction.NewDraft(
				transaction.KindPointsExchange,
				observeeID,
				decimal.Zero,
				credit,
				transaction.SourceRef{Type: transaction.SourceObservation, ID: in.ObservationID},
				"observation feedback",
			)
			if draftErr != nil {
				return draftErr
			}
			drafts = append(drafts, draft)
			total = total.Add(credit)
		}

		if kickback := s.kickbackFor(in.Kind, total); kickback.IsPositive() {
			draft, draftErr := transaction.NewDraft(
				transaction.KindKickbackReward,
				in.ObserverID,
				kickback,
				decimal.Zero,
				transaction.SourceRef{Type: transaction.SourceObservation, ID: in.ObservationID},
				"observation kickback",
			)
			if draftErr != nil {
				return draftErr
			}
			drafts = append(drafts, draft)
		}

		_, innerErr = s.posting.PostAll(txCtx, drafts)
		return innerErr
	})
	switch {
	case HasCode(err, CodeAlreadyProcessed):
		return nil
	case HasCode(err, CodeConfigurationMissing):
		s.logger(ctx).WithField("kind", in.Kind).
			Info("skipping observation points, no amounts configured")
		return nil
	}
	return err
}

// PostObserverDirectedAward moves points the observer chose to give out of
// their give balance onto the observees' spend balances, plus the kickback.
// The observer's give balance is the authoritative guard.
func (s *AwardService) PostObserverDirectedAward(ctx context.Context, in ObservationInput, totalPoints decimal.Decimal) error {
	total := Normalize(totalPoints)
	if !total.IsPositive() {
		return errValidationFailed("directed award must be positive", nil)
	}
	if len(in.ObserveeIDs) == 0 {
		return errValidationFailed("directed award needs at least one observee", nil)
	}

	err := retryOnConflict(ctx, func(txCtx context.Context) error {
		debit, draftErr := transaction.NewDraft(
			transaction.KindObserverGive,
			in.ObserverID,
			total.Neg(),
			decimal.Zero,
			transaction.SourceRef{Type: transaction.SourceObservation, ID: in.ObservationID},
			"observer directed award",
		)
		if draftErr != nil {
			return draftErr
		}
		drafts := []transaction.Draft{debit}

		shares := Distribute(total, in.ObserveeIDs)
		distributed := decimal.Zero
		for _, observeeID := range in.ObserveeIDs {
			share := shares[observeeID]
			if !share.IsPositive() {
				continue
			}
			credit, creditErr := transaction.NewDraft(
				transaction.KindPointsExchange,
				observeeID,
				decimal.Zero,
				share,
				transaction.SourceRef{Type: transaction.SourceObservation, ID: in.ObservationID},
				"observer directed award",
			)
			if creditErr != nil {
				return creditErr
			}
			drafts = append(drafts, credit)
			distributed = distributed.Add(share)
		}

		if kickback := s.kickbackFor(in.Kind, distributed); kickback.IsPositive() {
			reward, rewardErr := transaction.NewDraft(
				transaction.KindKickbackReward,
				in.ObserverID,
				kickback,
				decimal.Zero,
				transaction.SourceRef{Type: transaction.SourceObservation, ID: in.ObservationID},
				"observation kickback",
			)
			if rewardErr != nil {
				return rewardErr
			}
			drafts = append(drafts, reward)
		}

		_, innerErr := s.posting.PostAll(txCtx, drafts)
		return innerErr
	})
	if HasCode(err, CodeAlreadyProcessed) {
		return nil
	}
	return err
}

func (s *AwardService) kickbackFor(kind string, totalDistributed decimal.Decimal) decimal.Decimal {
	if kind == "constructive" {
		return ConstructiveKickback()
	}
	return RecognitionKickback(totalDistributed)
}

func (s *AwardService) logger(ctx context.Context) *logrus.Entry {
	return composables.UseLogger(ctx)
}

func observationEventKey(kind string) (economyconfig.EventKey, error) {
	switch kind {
	case "recognition":
		return economyconfig.KeyObservationRecognition, nil
	case "constructive":
		return economyconfig.KeyObservationConstructive, nil
	default:
		return "", errValidationFailed(fmt.Sprintf("unknown observation kind %q", kind), nil)
	}
}
