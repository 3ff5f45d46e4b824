package visibility

import "github.com/yanizio/adept-forms/internal/field"

// ResolveVisible returns the fields that should be shown for values, in
// their original order.  Fields without a condition are always visible.
// Results are never cached; any answer can flip a later field.
func ResolveVisible(fields []field.Definition, values Values) []field.Definition {
	out := make([]field.Definition, 0, len(fields))
	for _, f := range fields {
		if f.Condition == nil || Evaluate(*f.Condition, values, fields) {
			out = append(out, f)
		}
	}
	return out
}

// VisibleIDs is ResolveVisible reduced to field IDs.
func VisibleIDs(fields []field.Definition, values Values) []string {
	vis := ResolveVisible(fields, values)
	ids := make([]string, len(vis))
	for i, f := range vis {
		ids[i] = f.ID
	}
	return ids
}

// CandidateTargets lists the fields a condition on dependent may point at:
// value-bearing fields placed before it.  This is the builder's picker
// filter; Evaluate itself does not enforce it.
func CandidateTargets(fields []field.Definition, dependent field.Definition) []field.Definition {
	var out []field.Definition
	for _, f := range fields {
		if f.ID == dependent.ID || f.Type.IsLayout() {
			continue
		}
		if f.Order < dependent.Order {
			out = append(out, f)
		}
	}
	return out
}

// ForwardRef describes a condition whose target is not earlier in the form.
type ForwardRef struct {
	FieldID  string `json:"fieldId"`
	TargetID string `json:"targetId"`
}

// ForwardReferences reports conditions that point at the field itself or
// at a later field.  Such conditions still evaluate; callers surface these
// as warnings.  Conditions with a missing target are not reported.
func ForwardReferences(fields []field.Definition) []ForwardRef {
	var out []ForwardRef
	for _, f := range fields {
		if f.Condition == nil {
			continue
		}
		target, ok := findTarget(fields, f.Condition.TargetFieldID)
		if !ok {
			continue
		}
		if target.Order >= f.Order {
			out = append(out, ForwardRef{FieldID: f.ID, TargetID: target.ID})
		}
	}
	return out
}
