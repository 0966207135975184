package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/reward"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
)

// mapEconomyError translates repository and driver failures into the
// service taxonomy. Errors already typed pass through untouched.
func mapEconomyError(err error) error {
	if err == nil {
		return nil
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, transaction.ErrDuplicate):
		return errAlreadyProcessed(err)
	case errors.Is(err, ledger.ErrVersionConflict):
		return errConflict(err)
	case errors.Is(err, redemption.ErrInvalidStateTransition):
		return errInvalidStateTransition(err)
	case errors.Is(err, redemption.ErrNotFound):
		return errNotFound("redemption not found", err)
	case errors.Is(err, reward.ErrNotFound):
		return errNotFound("reward not found", err)
	case errors.Is(err, ledger.ErrNotFound):
		return errNotFound("ledger not found", err)
	case errors.Is(err, pgx.ErrNoRows):
		return errNotFound("not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return errAlreadyProcessed(err)
	case "23503": // foreign_key_violation
		return errValidationFailed("referenced row does not exist", err)
	case "23514": // check_violation
		return errValidationFailed("constraint violated", err)
	case "40001": // serialization_failure
		return errConflict(err)
	default:
		return newServiceError(http.StatusInternalServerError, "ECONOMY_INTERNAL",
			fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
