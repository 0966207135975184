package persistence

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/reward"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence/models"
)

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}

func toDomainLedger(row *models.Ledger) (ledger.Ledger, error) {
	give, err := parseAmount(row.PointsToGive)
	if err != nil {
		return ledger.Ledger{}, err
	}
	spend, err := parseAmount(row.PointsToSpend)
	if err != nil {
		return ledger.Ledger{}, err
	}
	return ledger.Hydrate(
		row.TenantID,
		row.TeammateID,
		give,
		spend,
		row.Version,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDomainTransaction(row *models.Transaction) (transaction.Transaction, error) {
	give, err := parseAmount(row.GiveDelta)
	if err != nil {
		return transaction.Transaction{}, err
	}
	spend, err := parseAmount(row.SpendDelta)
	if err != nil {
		return transaction.Transaction{}, err
	}
	return transaction.Transaction{
		ID:         row.ID,
		TenantID:   row.TenantID,
		Kind:       transaction.Kind(row.Kind),
		TeammateID: row.TeammateID,
		GiveDelta:  give,
		SpendDelta: spend,
		Source: transaction.SourceRef{
			Type: transaction.SourceType(row.SourceType),
			ID:   row.SourceID,
		},
		Reason:                row.Reason,
		PostedAt:              row.PostedAt,
		OriginalTransactionID: row.OriginalTransactionID,
		CreatedAt:             row.CreatedAt,
	}, nil
}

func toDomainRedemption(row *models.Redemption) (redemption.Redemption, error) {
	spent, err := parseAmount(row.PointsSpent)
	if err != nil {
		return redemption.Redemption{}, err
	}
	return redemption.Hydrate(
		row.ID,
		row.TenantID,
		row.TeammateID,
		row.RewardID,
		spent,
		redemption.Status(row.Status),
		row.ExternalReference,
		row.Notes,
		row.ResolvedAt,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDomainReward(row *models.Reward) (reward.Reward, error) {
	cost, err := parseAmount(row.CostInPoints)
	if err != nil {
		return reward.Reward{}, err
	}
	return reward.Hydrate(
		row.ID,
		row.TenantID,
		row.Name,
		cost,
		row.Active,
		row.DeletedAt,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}
