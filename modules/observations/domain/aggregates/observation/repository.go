package observation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("observation not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Observation, error)
	Create(ctx context.Context, o Observation) (Observation, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) (Observation, error)
}
