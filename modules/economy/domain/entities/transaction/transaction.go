package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of point-moving event types. Each kind constrains
// the allowed delta signs and the source reference that must accompany it.
type Kind string

const (
	KindBankAward        Kind = "bank_award"
	KindCelebratoryAward Kind = "celebratory_award"
	KindPointsExchange   Kind = "points_exchange"
	KindKickbackReward   Kind = "kickback_reward"
	KindObserverGive     Kind = "observer_give"
	KindRedemption       Kind = "redemption"
	KindRefund           Kind = "refund"
)

type SourceType string

const (
	SourceObservation      SourceType = "observation"
	SourceObservableMoment SourceType = "observable_moment"
	SourceRedemption       SourceType = "redemption"
	SourceManualAward      SourceType = "manual_award"
)

// SourceRef identifies the domain event that caused a transaction. Together
// with the kind it forms the idempotency key: at most one primary
// transaction of a kind exists per source event per teammate.
type SourceRef struct {
	Type SourceType
	ID   uuid.UUID
}

var (
	ErrNoOp          = errors.New("transaction draft moves no points")
	ErrUnknownKind   = errors.New("unknown transaction kind")
	ErrInvalidDelta  = errors.New("delta signs do not match transaction kind")
	ErrInvalidSource = errors.New("source reference does not match transaction kind")
)

// Draft is a validated, not-yet-posted transaction. Only the posting engine
// turns drafts into posted transactions.
type Draft struct {
	Kind                  Kind
	TeammateID            uuid.UUID
	GiveDelta             decimal.Decimal
	SpendDelta            decimal.Decimal
	Source                SourceRef
	Reason                string
	OriginalTransactionID *uuid.UUID
}

// NewDraft validates delta signs and the source reference exhaustively per
// kind. All-zero drafts are rejected before they reach the posting engine.
func NewDraft(kind Kind, teammateID uuid.UUID, give, spend decimal.Decimal, source SourceRef, reason string) (Draft, error) {
	if give.IsZero() && spend.IsZero() {
		return Draft{}, ErrNoOp
	}

	var wantSource SourceType
	switch kind {
	case KindBankAward:
		wantSource = SourceManualAward
		if give.IsNegative() || spend.IsNegative() {
			return Draft{}, fmt.Errorf("%w: %s requires non-negative deltas", ErrInvalidDelta, kind)
		}
	case KindCelebratoryAward:
		wantSource = SourceObservableMoment
		if give.IsNegative() || spend.IsNegative() {
			return Draft{}, fmt.Errorf("%w: %s requires non-negative deltas", ErrInvalidDelta, kind)
		}
	case KindPointsExchange:
		wantSource = SourceObservation
		if !give.IsZero() || !spend.IsPositive() {
			return Draft{}, fmt.Errorf("%w: %s requires zero give and positive spend", ErrInvalidDelta, kind)
		}
	case KindKickbackReward:
		wantSource = SourceObservation
		if !give.IsPositive() || spend.IsNegative() {
			return Draft{}, fmt.Errorf("%w: %s requires positive give and non-negative spend", ErrInvalidDelta, kind)
		}
	case KindObserverGive:
		wantSource = SourceObservation
		if !give.IsNegative() || !spend.IsZero() {
			return Draft{}, fmt.Errorf("%w: %s requires negative give and zero spend", ErrInvalidDelta, kind)
		}
	case KindRedemption:
		wantSource = SourceRedemption
		if !give.IsZero() || !spend.IsNegative() {
			return Draft{}, fmt.Errorf("%w: %s requires zero give and negative spend", ErrInvalidDelta, kind)
		}
	case KindRefund:
		wantSource = SourceRedemption
		if !give.IsZero() || !spend.IsPositive() {
			return Draft{}, fmt.Errorf("%w: %s requires zero give and positive spend", ErrInvalidDelta, kind)
		}
	default:
		return Draft{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if source.Type != wantSource || source.ID == uuid.Nil {
		return Draft{}, fmt.Errorf("%w: %s requires a %s source", ErrInvalidSource, kind, wantSource)
	}

	return Draft{
		Kind:       kind,
		TeammateID: teammateID,
		GiveDelta:  give,
		SpendDelta: spend,
		Source:     source,
		Reason:     strings.TrimSpace(reason),
	}, nil
}

// WithOriginal links the draft to the transaction it reverses (refunds).
func (d Draft) WithOriginal(originalID uuid.UUID) Draft {
	d.OriginalTransactionID = &originalID
	return d
}

// Transaction is an immutable record of a point-moving event. Once posted it
// is never edited; corrections are new transactions.
type Transaction struct {
	ID                    uuid.UUID
	TenantID              uuid.UUID
	Kind                  Kind
	TeammateID            uuid.UUID
	GiveDelta             decimal.Decimal
	SpendDelta            decimal.Decimal
	Source                SourceRef
	Reason                string
	PostedAt              *time.Time
	OriginalTransactionID *uuid.UUID
	CreatedAt             time.Time
}

func (t Transaction) IsPosted() bool { return t.PostedAt != nil }
