package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicPointsPostedV1 = "economy.points.posted.v1"
	EventVersionV1      = 1
)

// PointsPostedV1 is emitted through the economy outbox for every posted
// transaction, so downstream consumers (notifications, analytics) can react
// without reading the ledger tables.
type PointsPostedV1 struct {
	EventID       uuid.UUID `json:"event_id"`
	EventVersion  int       `json:"event_version"`
	TenantID      uuid.UUID `json:"tenant_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Kind          string    `json:"kind"`
	TeammateID    uuid.UUID `json:"teammate_id"`
	GiveDelta     string    `json:"give_delta"`
	SpendDelta    string    `json:"spend_delta"`
	PostedAt      time.Time `json:"posted_at"`
}
