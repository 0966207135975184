package serrors

import "fmt"

// BaseError carries a stable machine-readable code alongside the message.
// Infrastructure packages declare sentinel BaseErrors and wrap them with
// fmt.Errorf("%w: ...") so callers can match with errors.Is.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{Code: code, Message: message, LocaleKey: localeKey}
}

// WithTemplateData attaches values for locale-key interpolation.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

func (e *BaseError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldRequiredError marks a missing required field on an inbound payload.
type FieldRequiredError struct {
	Base  *BaseError
	Field string
}

func NewFieldRequiredError(field, localeKey string) *FieldRequiredError {
	return &FieldRequiredError{
		Base:  NewError("FIELD_REQUIRED", fmt.Sprintf("%s is required", field), localeKey),
		Field: field,
	}
}

func (e *FieldRequiredError) Error() string { return e.Base.Error() }

func (e *FieldRequiredError) Unwrap() error { return e.Base }
