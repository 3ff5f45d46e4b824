// internal/schema/schema_test.go
//
// Unit-tests for the submission schema compiler.
//
// Run: go test ./internal/schema -v

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/yanizio/adept-forms/internal/field"
)

func ptr(f float64) *float64 { return &f }

func emailAgeFields() []field.Definition {
	return []field.Definition{
		{ID: "e", Type: field.TypeEmail, Label: "Email", Required: true, Config: field.PlainConfig{}},
		{ID: "a", Type: field.TypeNumber, Label: "Age", Required: true, Order: 1,
			Config: field.NumberConfig{Min: ptr(0), Max: ptr(120)}},
	}
}

func TestRejectsExactlyTheInvalidFields(t *testing.T) {
	s := Compile(emailAgeFields())
	_, err := s.Validate(map[string]any{"email": "not-an-email", "age": 200.0})
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []FieldError{
		{Field: "email", Message: "Invalid email address"},
		{Field: "age", Message: "Value must be at most 120"},
	}
	if len(ve.Fields) != len(want) {
		t.Fatalf("got %d errors: %#v", len(ve.Fields), ve.Fields)
	}
	for i := range want {
		if ve.Fields[i] != want[i] {
			t.Errorf("error %d = %#v, want %#v", i, ve.Fields[i], want[i])
		}
	}
}

func TestAcceptsValidPayloadAndCoerces(t *testing.T) {
	s := Compile(emailAgeFields())
	for _, age := range []any{30.0, "30", json.Number("30")} {
		out, err := s.Validate(map[string]any{"email": "a@b.com", "age": age, "extra": "dropped"})
		if err != nil {
			t.Fatalf("age %#v: unexpected error %v", age, err)
		}
		n, ok := out["age"].(float64)
		if !ok || n != 30 {
			t.Fatalf("age %#v: expected float64 30, got %#v", age, out["age"])
		}
		if _, ok := out["extra"]; ok {
			t.Fatalf("unknown keys must be stripped")
		}
	}
}

func TestRequiredAndOptional(t *testing.T) {
	fields := []field.Definition{
		{Type: field.TypeText, Label: "First Name", Required: true, Config: field.PlainConfig{}},
		{Type: field.TypeText, Label: "Nickname", Config: field.PlainConfig{}},
	}
	s := Compile(fields)
	_, err := s.Validate(map[string]any{"first_name": "", "nickname": nil})
	ve, ok := AsValidationError(err)
	if !ok || len(ve.Fields) != 1 || ve.Fields[0].Message != "First Name is required" {
		t.Fatalf("unexpected result %v", err)
	}

	out, err := s.Validate(map[string]any{"first_name": "Ada", "nickname": ""})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, ok := out["nickname"]; ok {
		t.Fatalf("empty optional answer should be dropped: %#v", out)
	}
}

func TestCheckbox(t *testing.T) {
	req := Compile([]field.Definition{{Type: field.TypeCheckbox, Label: "Toppings", Required: true,
		Config: field.ChoiceConfig{Options: []string{"Ham", "Egg"}}}})
	opt := Compile([]field.Definition{{Type: field.TypeCheckbox, Label: "Toppings",
		Config: field.ChoiceConfig{Options: []string{"Ham", "Egg"}}}})

	if _, err := req.Validate(map[string]any{"toppings": []any{}}); !IsValidationError(err) {
		t.Fatalf("required checkbox with zero selections should fail")
	}
	out, err := req.Validate(map[string]any{"toppings": []any{"Ham"}})
	if err != nil {
		t.Fatalf("required checkbox with one selection: %v", err)
	}
	if got := out["toppings"].([]string); len(got) != 1 || got[0] != "Ham" {
		t.Fatalf("unexpected value %#v", out["toppings"])
	}
	if _, err := opt.Validate(map[string]any{"toppings": []any{}}); err != nil {
		t.Fatalf("optional checkbox with zero selections: %v", err)
	}
	if _, err := opt.Validate(map[string]any{}); err != nil {
		t.Fatalf("optional checkbox absent: %v", err)
	}
	if _, err := opt.Validate(map[string]any{"toppings": []any{1.0}}); err == nil {
		t.Fatalf("non-string selections should fail")
	}
}

func TestTypeRules(t *testing.T) {
	cases := []struct {
		typ   field.Type
		cfg   field.Config
		value any
		msg   string
	}{
		{field.TypeDate, field.PlainConfig{}, "2024-02-30", ""},
		{field.TypeDate, field.PlainConfig{}, "02/03/2024", "Invalid date format"},
		{field.TypePhone, field.PlainConfig{}, "+1 (555) 010-9999", ""},
		{field.TypePhone, field.PlainConfig{}, "call me", "Invalid phone number"},
		{field.TypeURL, field.PlainConfig{}, "https://example.com/x", ""},
		{field.TypeURL, field.PlainConfig{}, "example", "Invalid URL format"},
		{field.TypeNumber, field.NumberConfig{}, "abc", "Please enter a valid number"},
		{field.TypeNumber, field.NumberConfig{Min: ptr(1.5)}, 1.0, "Value must be at least 1.5"},
		{field.TypeNumber, field.NumberConfig{}, true, "Please enter a valid number"},
		{field.TypeRating, field.RatingConfig{}, 5.0, ""},
		{field.TypeRating, field.RatingConfig{}, 6.0, "Rating must be at most 5"},
		{field.TypeRating, field.RatingConfig{MaxRating: 10}, "7", ""},
		{field.TypeRating, field.RatingConfig{}, "great", "Rating must be at least 1"},
		{field.TypeRating, field.RatingConfig{}, 2.5, "Rating must be a whole number"},
		{field.TypeRadio, field.ChoiceConfig{}, "anything", ""},
		{field.TypeDropdown, field.ChoiceConfig{}, 3.0, "Expected text"},
		{field.TypeLongText, field.LongTextConfig{}, "long\nanswer", ""},
		{field.TypeFile, field.FileConfig{}, map[string]any{"name": "cv.pdf"}, ""},
		{field.TypeRanking, field.ChoiceConfig{}, []any{"b", "a"}, ""},
		{field.TypeRanking, field.ChoiceConfig{}, "b,a", "Please rank the options"},
		{field.TypeMatrix, field.MatrixConfig{}, map[string]any{"Row 1": "Column 1"}, ""},
		{field.TypeMatrix, field.MatrixConfig{}, []any{"x"}, "Please answer each row"},
		{field.TypePictureChoice, field.PictureChoiceConfig{}, "Cat", ""},
		{field.TypeSignature, field.PlainConfig{}, "data:image/png;base64,AAA", ""},
	}
	for i, tc := range cases {
		s := Compile([]field.Definition{{Type: tc.typ, Label: "Q", Config: tc.cfg}})
		_, err := s.Validate(map[string]any{"q": tc.value})
		got := ""
		if ve, ok := AsValidationError(err); ok {
			got = ve.Fields[0].Message
		} else if err != nil {
			t.Fatalf("case %d: unexpected error type %v", i, err)
		}
		if got != tc.msg {
			t.Errorf("case %d (%s %v): got %q, want %q", i, tc.typ, tc.value, got, tc.msg)
		}
	}
}

func TestFileIsAlwaysOptional(t *testing.T) {
	s := Compile([]field.Definition{{Type: field.TypeFile, Label: "CV", Required: true, Config: field.FileConfig{}}})
	if _, err := s.Validate(map[string]any{}); err != nil {
		t.Fatalf("file should never be required here: %v", err)
	}
}

func TestLayoutFieldsSkipped(t *testing.T) {
	s := Compile([]field.Definition{
		{Type: field.TypeDivider, Config: field.LayoutConfig{}},
		{Type: field.TypeText, Label: "Name", Config: field.PlainConfig{}},
		{Type: field.TypePageBreak, Config: field.LayoutConfig{}},
	})
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "name" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestKeyDerivationShared(t *testing.T) {
	label := "Your  Favourite COLOUR?"
	s := Compile([]field.Definition{{Type: field.TypeText, Label: label, Required: true, Config: field.PlainConfig{}}})
	if s.Keys()[0] != field.ValueKey(label) {
		t.Fatalf("compiler key %q differs from ValueKey %q", s.Keys()[0], field.ValueKey(label))
	}
}

func TestValidationErrorWraps(t *testing.T) {
	err := fmt.Errorf("submit: %w", &ValidationError{Fields: []FieldError{{Field: "x", Message: "bad"}}})
	if !IsValidationError(err) {
		t.Fatalf("wrapped validation error not detected")
	}
	if IsValidationError(errors.New("boom")) {
		t.Fatalf("plain error misdetected")
	}
}
