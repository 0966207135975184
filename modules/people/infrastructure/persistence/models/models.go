package models

import (
	"time"

	"github.com/google/uuid"
)

type Teammate struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DisplayName string
	Email       string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
