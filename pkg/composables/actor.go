package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ar3/our-gruuv-sub016/pkg/constants"
)

var ErrNoActorFound = errors.New("no actor id found in context")

// WithActorID attaches the acting teammate's id to the context.
func WithActorID(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.ActorIDKey, actorID)
}

// UseActorID returns the acting teammate's id from the context.
func UseActorID(ctx context.Context) (uuid.UUID, error) {
	actorID, ok := ctx.Value(constants.ActorIDKey).(uuid.UUID)
	if !ok || actorID == uuid.Nil {
		return uuid.Nil, ErrNoActorFound
	}
	return actorID, nil
}

// WithSystemActor marks the context as system-originated work (outbox
// handlers, background jobs). Guards let such contexts through without an
// acting teammate; anonymous requests without this mark are denied.
func WithSystemActor(ctx context.Context) context.Context {
	return context.WithValue(ctx, constants.SystemWorkKey, true)
}

// IsSystemActor reports whether the context carries the system-work mark.
func IsSystemActor(ctx context.Context) bool {
	v, ok := ctx.Value(constants.SystemWorkKey).(bool)
	return ok && v
}
