package services

import (
	"context"

	"github.com/ar3/our-gruuv-sub016/pkg/composables"
	"github.com/ar3/our-gruuv-sub016/pkg/configuration"
)

// runInTenantTx is the unit-of-work seam; overridden in unit tests.
var runInTenantTx = composables.InTenantTx

// retryOnConflict replays the whole business operation when a concurrent
// posting bumped a ledger version underneath it. Each attempt is a fresh
// transaction; anything but a conflict stops the loop.
func retryOnConflict(ctx context.Context, op func(txCtx context.Context) error) error {
	retries := configuration.Use().Economy.ConflictRetries
	var err error
	for attempt := 0; attempt < retries; attempt++ {
		err = runInTenantTx(ctx, op)
		if !HasCode(err, CodeConflict) {
			return err
		}
	}
	return err
}
