package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ar3/our-gruuv-sub016/pkg/constants"
)

var (
	ErrNoTenantIDFound = errors.New("no tenant id found in context")
)

// Tenant is the organization every request is scoped to.
type Tenant struct {
	ID   uuid.UUID
	Name string
}

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantIDFound
	}
	return tenantID, nil
}
