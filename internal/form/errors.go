// internal/form/errors.go
//
// Sentinel errors returned by the form service.
//
// Context
// -------
// Handlers map these to status codes with errors.Is.  Field-level failures
// travel as *schema.ValidationError instead, so a 400 response can list
// every failing field at once.
package form

import (
	"errors"

	"github.com/yanizio/adept-forms/internal/schema"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("form not found")
	ErrUnpublishable = errors.New("cannot publish form without fields")
	ErrRateLimited   = errors.New("too many submissions, please try again later")
	ErrNotAccepting  = errors.New("form is not accepting submissions")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadToken      = errors.New("security token invalid or expired")
)

// InputError is a ValidationError for management input (titles, labels,
// settings) rather than submission answers.  It matches ErrInvalidInput
// and unwraps to the underlying *schema.ValidationError.
type InputError struct {
	*schema.ValidationError
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
func (e *InputError) Unwrap() error        { return e.ValidationError }

func invalid(fields ...schema.FieldError) error {
	return &InputError{ValidationError: &schema.ValidationError{Fields: fields}}
}
