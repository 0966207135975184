package models

import (
	"time"

	"github.com/google/uuid"
)

// Point amounts travel as NUMERIC::text and are parsed into decimals in the
// mappers.

type Ledger struct {
	TenantID      uuid.UUID
	TeammateID    uuid.UUID
	PointsToGive  string
	PointsToSpend string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Transaction struct {
	ID                    uuid.UUID
	TenantID              uuid.UUID
	Kind                  string
	TeammateID            uuid.UUID
	GiveDelta             string
	SpendDelta            string
	SourceType            string
	SourceID              uuid.UUID
	Reason                string
	PostedAt              *time.Time
	OriginalTransactionID *uuid.UUID
	CreatedAt             time.Time
}

type Redemption struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	TeammateID        uuid.UUID
	RewardID          uuid.UUID
	PointsSpent       string
	Status            string
	ExternalReference string
	Notes             string
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Reward struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	CostInPoints string
	Active       bool
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EconomyConfigEntry struct {
	TenantID      uuid.UUID
	EventKey      string
	PointsToGive  string
	PointsToSpend string
}

type EconomySettings struct {
	TenantID                uuid.UUID
	WeeklyGuaranteedMinimum string
	RatingPointsMin         string
	RatingPointsMax         string
}
