package constants

import (
	"github.com/go-playground/validator/v10"
)

type contextKey string

const (
	PoolKey       contextKey = "pool"
	TxKey         contextKey = "tx"
	TenantIDKey   contextKey = "tenant_id"
	ActorIDKey    contextKey = "actor_id"
	SystemWorkKey contextKey = "system_work"
	LoggerKey     contextKey = "logger"
	ParamsKey     contextKey = "params"
	RequestStart  contextKey = "request_start"
)

// Validate is the shared validator instance used by DTOs across modules.
var Validate = validator.New(validator.WithRequiredStructEnabled())
