// internal/respond/respond_test.go
//
// Run: go test ./internal/respond -v

package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/schema"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{form.ErrUnauthorized, 401},
		{fmt.Errorf("wrapped: %w", form.ErrNotFound), 404},
		{form.ErrRateLimited, 429},
		{form.ErrNotAccepting, 403},
		{form.ErrBadToken, 403},
		{form.ErrUnpublishable, 400},
		{form.ErrInvalidInput, 400},
		{builder.ErrBadOp, 400},
		{builder.ErrClosed, 409},
		{&schema.ValidationError{}, 400},
		{errors.New("db exploded"), 500},
	}
	for _, tc := range cases {
		if got, _ := Status(tc.err); got != tc.want {
			t.Errorf("%v: status %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestErrorCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/submit/x", nil)
	err := &schema.ValidationError{Fields: []schema.FieldError{{Field: "email", Message: "Please enter a valid email"}}}

	Error(rec, req, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var body Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Validation failed" || len(body.Details) != 1 || body.Details[0].Field != "email" {
		t.Fatalf("body = %#v", body)
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("password=hunter2"))
	if rec.Code != 500 || rec.Body.String() != "{\"error\":\"Internal server error\"}\n" {
		t.Fatalf("leaked: %d %s", rec.Code, rec.Body.String())
	}
}
