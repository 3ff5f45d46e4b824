package schema

import (
	"errors"
	"strings"
)

// FieldError is one failing field, keyed by its derived value key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failing field of one payload, in field
// order.  Callers tell it apart from system failures with errors.As or
// IsValidationError.
type ValidationError struct {
	Fields []FieldError
}

func (ve *ValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(ve.Fields))
	for i, fe := range ve.Fields {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
