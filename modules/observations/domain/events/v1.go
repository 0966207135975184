package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicObservationPublishedV1 = "observation.published.v1"
	TopicMomentCreatedV1        = "moment.created.v1"
	EventVersionV1              = 1
)

// ObservationPublishedV1 is emitted through the observations outbox when an
// observation becomes visible; the economy module posts points off it.
type ObservationPublishedV1 struct {
	EventID       uuid.UUID   `json:"event_id"`
	EventVersion  int         `json:"event_version"`
	TenantID      uuid.UUID   `json:"tenant_id"`
	ObservationID uuid.UUID   `json:"observation_id"`
	ObserverID    uuid.UUID   `json:"observer_id"`
	ObserveeIDs   []uuid.UUID `json:"observee_ids"`
	Kind          string      `json:"kind"`
	PublishedAt   time.Time   `json:"published_at"`
}

// MomentCreatedV1 is emitted when an observable moment is recorded; the
// economy module posts the celebratory award off it.
type MomentCreatedV1 struct {
	EventID       uuid.UUID `json:"event_id"`
	EventVersion  int       `json:"event_version"`
	TenantID      uuid.UUID `json:"tenant_id"`
	MomentID      uuid.UUID `json:"moment_id"`
	TeammateID    uuid.UUID `json:"teammate_id"`
	MilestoneKind string    `json:"milestone_kind"`
	OccurredOn    time.Time `json:"occurred_on"`
}
