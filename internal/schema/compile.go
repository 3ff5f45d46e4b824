// internal/schema/compile.go
//
// Submission schema compiler.
//
// Context
// -------
// A published form is data, not code.  Compile turns its ordered field list
// into a Schema: one rule per value-bearing field, addressed by the field's
// derived value key.  The public submit path and the builder preview both
// compile from the current field list on every call.  Schemas are cheap and
// never cached, so a stale schema can never validate against a newer form.
//
// Workflow
// --------
//   - Compile walks the fields in order, skips divider and page_break, and
//     picks a rule by an exhaustive match over the field's Config variant.
//   - Validate runs every rule, collects one FieldError per failing field in
//     field order, and rejects the whole payload if any rule failed.
//   - On success it returns a new map holding only the declared keys, with
//     numbers coerced to float64.  Unknown keys are stripped.
//
// Notes
// -----
// • nil and "" count as absent.  An absent optional answer is dropped from
//   the output rather than stored as an empty string.
// • file answers are accepted as-is; upload handling lives elsewhere.
// • Hidden fields are still validated.  Visibility never relaxes required.
package schema

import (
	"github.com/yanizio/adept-forms/internal/field"
)

// rule checks one answer.  present is false for absent values.  It returns
// the cleaned value, whether to keep it, and a user message on failure.
type rule func(v any, present bool) (out any, keep bool, msg string)

type entry struct {
	key   string
	label string
	check rule
}

// Schema validates submission payloads for one field list.
type Schema struct {
	entries []entry
}

// Compile builds a Schema from fields.  Field order is preserved in the
// order of reported errors.
func Compile(fields []field.Definition) *Schema {
	s := &Schema{entries: make([]entry, 0, len(fields))}
	for _, f := range fields {
		if f.Type.IsLayout() {
			continue
		}
		s.entries = append(s.entries, entry{
			key:   f.Key(),
			label: f.Label,
			check: ruleFor(f),
		})
	}
	return s
}

// Keys lists the payload keys the schema accepts, in field order.
func (s *Schema) Keys() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.key
	}
	return out
}

// Validate checks payload and returns the cleaned values.  On failure the
// error is a *ValidationError and the map is nil.
func (s *Schema) Validate(payload map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(s.entries))
	var errs []FieldError

	for _, e := range s.entries {
		v, ok := payload[e.key]
		present := ok && v != nil
		if !present {
			v = nil
		}
		out, keep, msg := e.check(v, present)
		if msg != "" {
			errs = append(errs, FieldError{Field: e.key, Message: msg})
			continue
		}
		if keep {
			clean[e.key] = out
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return clean, nil
}

// -----------------------------------------------------------------------------
// Rule selection
// -----------------------------------------------------------------------------

func ruleFor(f field.Definition) rule {
	req := f.Required
	label := f.Label

	cfg := f.Config
	if cfg == nil {
		cfg = field.EmptyConfig(f.Type)
	}

	switch c := cfg.(type) {
	case field.PlainConfig:
		switch f.Type {
		case field.TypeEmail:
			return scalar(label, req, emailRule)
		case field.TypePhone:
			return scalar(label, req, phoneRule)
		case field.TypeURL:
			return scalar(label, req, urlRule)
		case field.TypeDate:
			return scalar(label, req, dateRule)
		}
		return scalar(label, req, stringRule)

	case field.LongTextConfig:
		return scalar(label, req, stringRule)

	case field.NumberConfig:
		return scalar(label, req, numberRule(c.Min, c.Max))

	case field.ChoiceConfig:
		switch f.Type {
		case field.TypeCheckbox:
			return list(label, req, "Please select from the options")
		case field.TypeRanking:
			return list(label, req, "Please rank the options")
		}
		return scalar(label, req, stringRule)

	case field.PictureChoiceConfig:
		return scalar(label, req, stringRule)

	case field.RatingConfig:
		return scalar(label, req, ratingRule(c.Max()))

	case field.MatrixConfig:
		return matrix(label, req)

	case field.FileConfig:
		return fileRule
	}
	return scalar(label, req, stringRule)
}
