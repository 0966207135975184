package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError carries an HTTP status and a stable machine-readable code so
// the API layer can build envelopes without string matching.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

// Stable error codes of the economy module.
const (
	CodeInsufficientBalance    = "ECONOMY_INSUFFICIENT_BALANCE"
	CodeAlreadyProcessed       = "ECONOMY_ALREADY_PROCESSED"
	CodePermissionDenied       = "ECONOMY_PERMISSION_DENIED"
	CodeCrossOrganization      = "ECONOMY_CROSS_ORGANIZATION"
	CodeInvalidStateTransition = "ECONOMY_INVALID_STATE_TRANSITION"
	CodeConfigurationMissing   = "ECONOMY_CONFIGURATION_MISSING"
	CodeConflict               = "ECONOMY_CONFLICT"
	CodeValidationFailed       = "ECONOMY_VALIDATION_FAILED"
	CodeNotFound               = "ECONOMY_NOT_FOUND"
)

func errInsufficientBalance(cause error) *ServiceError {
	return newServiceError(http.StatusUnprocessableEntity, CodeInsufficientBalance, "insufficient balance", cause)
}

// errAlreadyProcessed marks a replay of a business event that already
// posted. Command handlers treat it as success.
func errAlreadyProcessed(cause error) *ServiceError {
	return newServiceError(http.StatusConflict, CodeAlreadyProcessed, "already processed", cause)
}

func errPermissionDenied(cause error) *ServiceError {
	return newServiceError(http.StatusForbidden, CodePermissionDenied, "permission denied", cause)
}

func errCrossOrganization(cause error) *ServiceError {
	return newServiceError(http.StatusUnprocessableEntity, CodeCrossOrganization, "participants belong to different organizations", cause)
}

func errInvalidStateTransition(cause error) *ServiceError {
	return newServiceError(http.StatusConflict, CodeInvalidStateTransition, "invalid state transition", cause)
}

func errConfigurationMissing(cause error) *ServiceError {
	return newServiceError(http.StatusUnprocessableEntity, CodeConfigurationMissing, "no point amounts configured", cause)
}

func errConflict(cause error) *ServiceError {
	return newServiceError(http.StatusConflict, CodeConflict, "concurrent modification, retry", cause)
}

func errValidationFailed(message string, cause error) *ServiceError {
	return newServiceError(http.StatusBadRequest, CodeValidationFailed, message, cause)
}

func errNotFound(message string, cause error) *ServiceError {
	return newServiceError(http.StatusNotFound, CodeNotFound, message, cause)
}

// HasCode reports whether err wraps a ServiceError with the given code.
func HasCode(err error, code string) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Code == code
}
