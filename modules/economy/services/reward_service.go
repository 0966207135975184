package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/reward"
	"github.com/ar3/our-gruuv-sub016/pkg/composables"
)

// RewardService manages the redemption catalog.
type RewardService struct {
	rewards reward.Repository
}

func NewRewardService(rewards reward.Repository) *RewardService {
	return &RewardService{rewards: rewards}
}

func (s *RewardService) Create(ctx context.Context, name string, costInPoints decimal.Decimal) (reward.Reward, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return reward.Reward{}, err
	}
	// Round the cost up to the point granularity so redemption debits and
	// refunds derived from it stay on-granularity.
	draft, err := reward.New(tenantID, name, Normalize(costInPoints))
	if err != nil {
		return reward.Reward{}, errValidationFailed(err.Error(), err)
	}

	var created reward.Reward
	err = runInTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.rewards.Create(txCtx, draft)
		return mapEconomyError(innerErr)
	})
	return created, err
}

func (s *RewardService) List(ctx context.Context) ([]reward.Reward, error) {
	var results []reward.Reward
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		results, innerErr = s.rewards.List(txCtx)
		return mapEconomyError(innerErr)
	})
	return results, err
}

func (s *RewardService) Deactivate(ctx context.Context, id uuid.UUID) (reward.Reward, error) {
	var updated reward.Reward
	err := runInTenantTx(ctx, func(txCtx context.Context) error {
		current, innerErr := s.rewards.GetByID(txCtx, id)
		if innerErr != nil {
			return mapEconomyError(innerErr)
		}
		updated, innerErr = s.rewards.Update(txCtx, current.Deactivated())
		return mapEconomyError(innerErr)
	})
	return updated, err
}

func (s *RewardService) Delete(ctx context.Context, id uuid.UUID) error {
	return runInTenantTx(ctx, func(txCtx context.Context) error {
		return mapEconomyError(s.rewards.SoftDelete(txCtx, id))
	})
}
