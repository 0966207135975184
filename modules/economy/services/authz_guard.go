package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ar3/our-gruuv-sub016/pkg/authz"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

// BankAuthzObject guards manual grants from the organization's point bank.
const BankAuthzObject = "economy.bank"

// RedemptionsAuthzObject guards redemption fulfillment and cancellation.
const RedemptionsAuthzObject = "economy.redemptions"

const economyAuthzDomain = "economy"

var authorizeEconomyFn = defaultAuthorizeEconomy

func authorizeEconomy(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
	return authorizeEconomyFn(ctx, object, action, opts...)
}

func defaultAuthorizeEconomy(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		tenantID = uuid.Nil
	}

	actorID, err := composables.UseActorID(ctx)
	if err != nil {
		if errors.Is(err, composables.ErrNoActorFound) && composables.IsSystemActor(ctx) {
			// Event handlers and jobs carry no actor; they mark their
			// contexts explicitly. Anonymous requests are denied.
			return nil
		}
		return err
	}

	req := authz.NewRequest(
		authz.SubjectForUser(tenantID, actorID),
		economyAuthzDomain,
		object,
		authz.NormalizeAction(action),
		opts...,
	)
	return authz.Use().Authorize(ctx, req)
}
