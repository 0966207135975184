package models

import (
	"time"

	"github.com/google/uuid"
)

type Observation struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	ObserverID  uuid.UUID
	Kind        string
	Story       string
	Privacy     string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Moment struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TeammateID    uuid.UUID
	MilestoneKind string
	OccurredOn    time.Time
	CreatedAt     time.Time
}
