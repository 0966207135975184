package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/events"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
)

// OutboxTable is where economy events are enqueued; the relay is configured
// against the same identifier.
var OutboxTable = pgx.Identifier{"public", "economy_outbox"}

// PostingService is the only writer of point transactions and ledger
// balances. It must run inside the caller's unit of work so that a failing
// draft aborts the whole business operation with zero side effects.
type PostingService struct {
	ledgers      ledger.Repository
	transactions transaction.Repository
	outbox       outbox.Publisher
}

func NewPostingService(ledgers ledger.Repository, transactions transaction.Repository, outboxPublisher outbox.Publisher) *PostingService {
	return &PostingService{ledgers: ledgers, transactions: transactions, outbox: outboxPublisher}
}

// Post locks the teammate's ledger row, applies the draft's deltas, and
// records the posted transaction. A candidate balance below zero aborts with
// an insufficient-balance error; a replayed source event surfaces as
// already-processed.
func (s *PostingService) Post(ctx context.Context, draft transaction.Draft) (transaction.Transaction, error) {
	led, err := s.ledgers.GetForUpdate(ctx, draft.TeammateID)
	if err != nil {
		return transaction.Transaction{}, mapEconomyError(err)
	}

	newGive := led.PointsToGive().Add(draft.GiveDelta)
	newSpend := led.PointsToSpend().Add(draft.SpendDelta)
	if newGive.IsNegative() || newSpend.IsNegative() {
		return transaction.Transaction{}, errInsufficientBalance(nil)
	}

	now := time.Now()
	posted, err := s.transactions.Insert(ctx, transaction.Transaction{
		Kind:                  draft.Kind,
		TeammateID:            draft.TeammateID,
		GiveDelta:             draft.GiveDelta,
		SpendDelta:            draft.SpendDelta,
		Source:                draft.Source,
		Reason:                draft.Reason,
		PostedAt:              &now,
		OriginalTransactionID: draft.OriginalTransactionID,
	})
	if err != nil {
		return transaction.Transaction{}, mapEconomyError(err)
	}

	if _, err := s.ledgers.UpdateBalances(ctx, led, newGive, newSpend); err != nil {
		return transaction.Transaction{}, mapEconomyError(err)
	}
	if err := s.enqueuePosted(ctx, led.TenantID(), posted); err != nil {
		return transaction.Transaction{}, mapEconomyError(err)
	}
	return posted, nil
}

func (s *PostingService) enqueuePosted(ctx context.Context, tenantID uuid.UUID, posted transaction.Transaction) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	ev := events.PointsPostedV1{
		EventID:       uuid.New(),
		EventVersion:  events.EventVersionV1,
		TenantID:      tenantID,
		TransactionID: posted.ID,
		Kind:          string(posted.Kind),
		TeammateID:    posted.TeammateID,
		GiveDelta:     posted.GiveDelta.String(),
		SpendDelta:    posted.SpendDelta.String(),
	}
	if posted.PostedAt != nil {
		ev.PostedAt = *posted.PostedAt
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", events.TopicPointsPostedV1, err)
	}
	_, err = s.outbox.Enqueue(ctx, tx, OutboxTable, outbox.Message{
		TenantID: tenantID,
		Topic:    events.TopicPointsPostedV1,
		EventID:  ev.EventID,
		Payload:  body,
	})
	return err
}

// PostAll posts the drafts in order within the same unit of work.
func (s *PostingService) PostAll(ctx context.Context, drafts []transaction.Draft) ([]transaction.Transaction, error) {
	posted := make([]transaction.Transaction, 0, len(drafts))
	for _, draft := range drafts {
		t, err := s.Post(ctx, draft)
		if err != nil {
			return nil, err
		}
		posted = append(posted, t)
	}
	return posted, nil
}

// alreadyProcessed is the idempotency fast path; the unique transaction
// index remains the authoritative guard.
func (s *PostingService) alreadyProcessed(ctx context.Context, draft transaction.Draft) (bool, error) {
	exists, err := s.transactions.Exists(ctx, draft.TeammateID, draft.Source, draft.Kind)
	if err != nil {
		return false, mapEconomyError(err)
	}
	return exists, nil
}
