package serrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseError_Error(t *testing.T) {
	err := NewError("AUTHZ_FORBIDDEN", "permission denied", "Authorization.PermissionDenied")
	require.Equal(t, "AUTHZ_FORBIDDEN: permission denied", err.Error())

	bare := &BaseError{Message: "just a message"}
	require.Equal(t, "just a message", bare.Error())
}

func TestBaseError_WithTemplateData(t *testing.T) {
	err := NewError("AUTHZ_FORBIDDEN", "permission denied", "Authorization.PermissionDenied")
	chained := err.WithTemplateData(map[string]string{"object": "economy.bank", "action": "create"})

	require.Same(t, err, chained)
	require.Equal(t, "economy.bank", chained.TemplateData["object"])
	require.Equal(t, "create", chained.TemplateData["action"])
}

func TestFieldRequiredError_Unwrap(t *testing.T) {
	err := NewFieldRequiredError("name", "Errors.Required")

	var base *BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, "FIELD_REQUIRED", base.Code)
	require.Equal(t, "name", err.Field)
}
