// internal/visibility/visibility_test.go
//
// Unit-tests for Evaluate and the resolver helpers.
//
// Run: go test ./internal/visibility -v

package visibility

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yanizio/adept-forms/internal/field"
)

func petForm() []field.Definition {
	return []field.Definition{
		{ID: "f1", Type: field.TypeRadio, Label: "Has Pet", Order: 0,
			Config: field.ChoiceConfig{Options: []string{"Yes", "No"}}},
		{ID: "f2", Type: field.TypeText, Label: "Pet Name", Order: 1,
			Config:    field.PlainConfig{},
			Condition: &field.Condition{TargetFieldID: "f1", Operator: field.OpEquals, Value: "Yes"}},
	}
}

func TestPetScenario(t *testing.T) {
	fields := petForm()

	vis := ResolveVisible(fields, Values{"has_pet": "No"})
	if len(vis) != 1 || vis[0].ID != "f1" {
		t.Fatalf("No: expected only f1, got %v", ids(vis))
	}
	vis = ResolveVisible(fields, Values{"has_pet": "Yes"})
	if len(vis) != 2 || vis[1].ID != "f2" {
		t.Fatalf("Yes: expected f1,f2, got %v", ids(vis))
	}
	if got := strings.Join(VisibleIDs(fields, Values{}), ","); got != "f1" {
		t.Fatalf("no answers: got %s", got)
	}
}

func TestFailOpenOnMissingTarget(t *testing.T) {
	ops := []field.Operator{
		field.OpEquals, field.OpNotEquals, field.OpContains, field.OpNotContains,
		field.OpGreaterThan, field.OpLessThan, field.OpIsEmpty, field.OpIsNotEmpty,
		"made_up",
	}
	for _, op := range ops {
		c := field.Condition{TargetFieldID: "ghost", Operator: op, Value: "x"}
		if !Evaluate(c, Values{"ghost": "x"}, petForm()) {
			t.Errorf("operator %s: expected fail-open true", op)
		}
	}
}

func TestUnknownOperatorIsVisible(t *testing.T) {
	c := field.Condition{TargetFieldID: "f1", Operator: "between", Value: "1"}
	if !Evaluate(c, Values{"has_pet": "No"}, petForm()) {
		t.Fatalf("unknown operator should default to visible")
	}
}

func TestTargetByPersistedID(t *testing.T) {
	fields := petForm()
	fields[0].PersistedID = "db-9"
	c := field.Condition{TargetFieldID: "db-9", Operator: field.OpEquals, Value: "Yes"}
	if Evaluate(c, Values{"has_pet": "No"}, fields) {
		t.Fatalf("persisted id should resolve the target")
	}
}

func TestOperators(t *testing.T) {
	fields := []field.Definition{{ID: "a", Type: field.TypeText, Label: "Answer"}}
	cases := []struct {
		name  string
		op    field.Operator
		value string
		input any
		want  bool
	}{
		{"equals string", field.OpEquals, "Yes", "Yes", true},
		{"equals absent vs empty", field.OpEquals, "", nil, true},
		{"equals number", field.OpEquals, "3", 3.0, true},
		{"equals list", field.OpEquals, "a,b", []any{"a", "b"}, true},
		{"not equals", field.OpNotEquals, "Yes", "No", true},
		{"contains", field.OpContains, "ell", "hello", true},
		{"contains absent", field.OpContains, "x", nil, false},
		{"contains list member", field.OpContains, "red", []any{"blue", "red"}, true},
		{"not contains", field.OpNotContains, "z", "hello", true},
		{"greater numeric string", field.OpGreaterThan, "10", "11", true},
		{"greater json number", field.OpGreaterThan, "10", json.Number("9"), false},
		{"greater NaN", field.OpGreaterThan, "10", "abc", false},
		{"less NaN operand", field.OpLessThan, "abc", "1", false},
		{"less absent is NaN", field.OpLessThan, "5", nil, false},
		{"less empty string is zero", field.OpLessThan, "5", "", true},
		{"less bool", field.OpLessThan, "1", false, true},
		{"empty nil", field.OpIsEmpty, "", nil, true},
		{"empty blank", field.OpIsEmpty, "", "   ", true},
		{"empty zero", field.OpIsEmpty, "", 0.0, true},
		{"empty false", field.OpIsEmpty, "", false, true},
		{"empty list", field.OpIsEmpty, "", []any{}, true},
		{"not empty", field.OpIsNotEmpty, "", "x", true},
		{"not empty zero", field.OpIsNotEmpty, "", 0.0, false},
	}
	for _, tc := range cases {
		c := field.Condition{TargetFieldID: "a", Operator: tc.op, Value: tc.value}
		vals := Values{}
		if tc.input != nil {
			vals["answer"] = tc.input
		}
		if got := Evaluate(c, vals, fields); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestKeyDerivationMatchesField(t *testing.T) {
	fields := []field.Definition{
		{ID: "a", Type: field.TypeText, Label: "Your  FAVOURITE Thing!"},
	}
	key := field.ValueKey(fields[0].Label)
	c := field.Condition{TargetFieldID: "a", Operator: field.OpEquals, Value: "tea"}
	if !Evaluate(c, Values{key: "tea"}, fields) {
		t.Fatalf("resolver must read the value under %q", key)
	}
}

func TestCandidateTargetsAndForwardRefs(t *testing.T) {
	fields := []field.Definition{
		{ID: "a", Type: field.TypeText, Label: "A", Order: 0},
		{ID: "d", Type: field.TypeDivider, Order: 1},
		{ID: "b", Type: field.TypeText, Label: "B", Order: 2,
			Condition: &field.Condition{TargetFieldID: "c", Operator: field.OpIsEmpty}},
		{ID: "c", Type: field.TypeText, Label: "C", Order: 3,
			Condition: &field.Condition{TargetFieldID: "a", Operator: field.OpIsEmpty}},
	}
	cand := CandidateTargets(fields, fields[3])
	if strings.Join(ids(cand), ",") != "a,b" {
		t.Fatalf("candidates = %v", ids(cand))
	}
	refs := ForwardReferences(fields)
	if len(refs) != 1 || refs[0].FieldID != "b" || refs[0].TargetID != "c" {
		t.Fatalf("forward refs = %#v", refs)
	}
}

func ids(fs []field.Definition) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.ID
	}
	return out
}

func TestNumericOperandFromJSON(t *testing.T) {
	fields := []field.Definition{
		{ID: "a", Type: field.TypeNumber, Label: "Budget", Order: 0, Config: field.NumberConfig{}},
	}
	for _, raw := range []string{"1000000", "0.0000001", "1e21"} {
		var c field.Condition
		if err := json.Unmarshal([]byte(`{"targetFieldId":"a","operator":"equals","value":`+raw+`}`), &c); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		var answer float64
		_ = json.Unmarshal([]byte(raw), &answer)
		if !Evaluate(c, Values{"budget": answer}, fields) {
			t.Fatalf("equals %s: operand %q did not match the same answer", raw, c.Value)
		}
		c.Operator = field.OpNotEquals
		if Evaluate(c, Values{"budget": answer}, fields) {
			t.Fatalf("not_equals %s held for the same answer", raw)
		}
	}
}
