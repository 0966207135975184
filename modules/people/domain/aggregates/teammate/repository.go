package teammate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("teammate not found")

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Teammate, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Teammate, error)
	GetByEmail(ctx context.Context, email string) (Teammate, error)
	Create(ctx context.Context, t Teammate) (Teammate, error)
	Update(ctx context.Context, t Teammate) (Teammate, error)
}
