// internal/respond/respond.go
//
// JSON responses and error-to-status mapping for HTTP handlers.
//
// Context
// -------
// Components return errors from the form service unchanged and let Error
// choose the status code.  Field-level failures keep their details; any
// error the table below does not know is logged with the request-scoped
// logger and surfaced as a bare 500.
//
//	*schema.ValidationError       400  {"error","details"}
//	form.ErrInvalidInput          400
//	form.ErrUnpublishable         400
//	builder.ErrBadOp              400
//	form.ErrUnauthorized          401
//	form.ErrNotAccepting          403
//	form.ErrBadToken              403
//	form.ErrNotFound              404
//	builder.ErrClosed             409
//	form.ErrRateLimited           429
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/logger"
	"github.com/yanizio/adept-forms/internal/schema"
	"github.com/yanizio/adept-forms/internal/store"
)

// Body is the error envelope.
type Body struct {
	Error   string              `json:"error"`
	Details []schema.FieldError `json:"details,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Status returns the HTTP status for err and the message clients see.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, form.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, form.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Form not found"
	case errors.Is(err, form.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many submissions. Please try again later."
	case errors.Is(err, form.ErrNotAccepting):
		return http.StatusForbidden, "This form is not accepting submissions"
	case errors.Is(err, form.ErrBadToken):
		return http.StatusForbidden, "Security token invalid or expired"
	case errors.Is(err, form.ErrUnpublishable):
		return http.StatusBadRequest, "Cannot publish form without fields"
	case errors.Is(err, builder.ErrClosed):
		return http.StatusConflict, "Builder session closed"
	case schema.IsValidationError(err):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, form.ErrInvalidInput), errors.Is(err, builder.ErrBadOp), errors.Is(err, builder.ErrUnknownType):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// Error maps err to a status and writes the envelope.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Status(err)
	body := Body{Error: msg}
	if ve, ok := schema.AsValidationError(err); ok {
		body.Details = ve.Fields
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Errorw("request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
	}
	JSON(w, status, body)
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, Body{Error: msg})
}

// Decode reads a JSON body into v, capped at limit bytes.  It writes a 400
// and returns false on failure.
func Decode(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}
