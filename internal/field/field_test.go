// internal/field/field_test.go
//
// Unit-tests for the field catalog, definition model, and wire codec.
//
// Run: go test ./internal/field -v

package field

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTypesCatalog(t *testing.T) {
	types := Types()
	if len(types) != 18 {
		t.Fatalf("expected 18 types, got %d", len(types))
	}
	seen := map[Type]bool{}
	for _, ti := range types {
		if seen[ti.Type] {
			t.Fatalf("duplicate catalog entry %q", ti.Type)
		}
		seen[ti.Type] = true
		if ti.Label == "" || ti.Icon == "" || ti.Category == "" {
			t.Fatalf("incomplete entry %#v", ti)
		}
	}
	types[0].Label = "mutated"
	if Types()[0].Label == "mutated" {
		t.Fatalf("Types must return a copy")
	}
	if ti, ok := Info(TypeDivider); !ok || ti.Category != CategoryLayout {
		t.Fatalf("divider should be layout, got %#v", ti)
	}
	if Type("slider").Valid() {
		t.Fatalf("slider should not be valid")
	}
}

func TestValueKey(t *testing.T) {
	cases := map[string]string{
		"Email":               "email",
		"Has Pet":             "has_pet",
		"First   Name":        "first_name",
		"What's your color?":  "what's_your_color?",
		" Padded\tLabel ":     "_padded_label_",
		"MiXeD Case\n\nLines": "mixed_case_lines",
		"":                    "",
	}
	for in, want := range cases {
		if got := ValueKey(in); got != want {
			t.Errorf("ValueKey(%q) = %q, want %q", in, got, want)
		}
	}
	d := Definition{Label: "Pet  Name"}
	if d.Key() != ValueKey("Pet  Name") {
		t.Fatalf("Key must delegate to ValueKey")
	}
}

func TestDuplicateKeys(t *testing.T) {
	fields := []Definition{
		{ID: "a", Type: TypeText, Label: "Name"},
		{ID: "b", Type: TypeDivider},
		{ID: "c", Type: TypeText, Label: "name"},
		{ID: "d", Type: TypeDivider},
		{ID: "e", Type: TypeEmail, Label: "Email"},
	}
	got := DuplicateKeys(fields)
	if len(got) != 1 {
		t.Fatalf("expected one collision, got %#v", got)
	}
	if got[0].Key != "name" || strings.Join(got[0].FieldIDs, ",") != "a,c" {
		t.Fatalf("unexpected collision %#v", got[0])
	}
}

func TestNewDefaults(t *testing.T) {
	radio := New(TypeRadio, "f1", 0)
	if c, ok := radio.Config.(ChoiceConfig); !ok || len(c.Options) != 1 || c.Options[0] != "Option 1" {
		t.Fatalf("radio defaults: %#v", radio.Config)
	}
	rank := New(TypeRanking, "f2", 1)
	if len(rank.Options()) != 3 {
		t.Fatalf("ranking should start with three options: %#v", rank.Config)
	}
	if c := New(TypeRating, "f3", 2).Config.(RatingConfig); c.Max() != 5 {
		t.Fatalf("rating max = %d", c.Max())
	}
	m := New(TypeMatrix, "f4", 3)
	if m.Label != "Matrix Question" {
		t.Fatalf("matrix label %q", m.Label)
	}
	if c := m.Config.(MatrixConfig); len(c.Rows) != 1 || len(c.Columns) != 1 {
		t.Fatalf("matrix grid %#v", c)
	}
	pc := New(TypePictureChoice, "f5", 4).Config.(PictureChoiceConfig)
	if pc.Options == nil || len(pc.Options) != 0 || len(pc.ImageURLs) != 0 {
		t.Fatalf("picture choice should start empty: %#v", pc)
	}
	if txt := New(TypeText, "f6", 5); txt.Label != "Short Text" || txt.Required {
		t.Fatalf("text defaults %#v", txt)
	}
	for _, ti := range Types() {
		if err := New(ti.Type, "x", 0).Validate(); err != nil {
			t.Errorf("New(%s) invalid: %v", ti.Type, err)
		}
	}
}

func TestValidateRejectsMismatchedConfig(t *testing.T) {
	d := Definition{ID: "f1", Type: TypeRadio, Label: "Pick", Config: NumberConfig{}}
	if err := d.Validate(); !errors.Is(err, ErrConfigMismatch) {
		t.Fatalf("expected ErrConfigMismatch, got %v", err)
	}
	d.Config = nil
	if err := d.Validate(); !errors.Is(err, ErrConfigMismatch) {
		t.Fatalf("nil config should mismatch, got %v", err)
	}
	d = New(TypeText, "f2", 0)
	d.Condition = &Condition{TargetFieldID: "f1", Operator: "between"}
	if err := d.Validate(); err == nil {
		t.Fatalf("unknown operator should fail")
	}
}

func TestCloneIsDeep(t *testing.T) {
	lo := 1.0
	orig := Definition{ID: "n", Type: TypeNumber, Config: NumberConfig{Min: &lo},
		Condition: &Condition{TargetFieldID: "x", Operator: OpEquals, Value: "1"}}
	cp := orig.Clone()
	*cp.Config.(NumberConfig).Min = 9
	cp.Condition.Value = "2"
	if *orig.Config.(NumberConfig).Min != 1 || orig.Condition.Value != "1" {
		t.Fatalf("clone shares state with original")
	}
}

func TestMapText(t *testing.T) {
	d := Definition{Type: TypeMatrix, Label: "<b>Grid</b>", Placeholder: "<p>",
		Config: MatrixConfig{Rows: []string{"<r>"}, Columns: []string{"<c>"}}}
	out := d.MapText(strings.ToUpper)
	if out.Label != "<B>GRID</B>" || out.Placeholder != "<P>" {
		t.Fatalf("label/placeholder not mapped: %#v", out)
	}
	mc := out.Config.(MatrixConfig)
	if mc.Rows[0] != "<R>" || mc.Columns[0] != "<C>" {
		t.Fatalf("grid not mapped: %#v", mc)
	}
	if d.Config.(MatrixConfig).Rows[0] != "<r>" {
		t.Fatalf("MapText mutated the receiver")
	}
}

func TestJSONDecodeIsTypeDirected(t *testing.T) {
	raw := `{"id":"f1","dbId":"db-1","type":"radio","label":"Has Pet","order":0,
		"config":{"required":true,"options":["Yes","No"],"min":3,"maxRating":9,
		"condition":{"fieldId":"f0","operator":"equals","value":7}}}`
	var d Definition
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.PersistedID != "db-1" || !d.Required {
		t.Fatalf("shared attributes lost: %#v", d)
	}
	c, ok := d.Config.(ChoiceConfig)
	if !ok || len(c.Options) != 2 {
		t.Fatalf("expected ChoiceConfig, got %#v", d.Config)
	}
	if d.Condition == nil || d.Condition.TargetFieldID != "f0" || d.Condition.Value != "7" {
		t.Fatalf("condition alias not honoured: %#v", d.Condition)
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "maxRating") || strings.Contains(string(out), `"min"`) {
		t.Fatalf("irrelevant keys should be dropped: %s", out)
	}

	if err := json.Unmarshal([]byte(`{"id":"x","type":"slider","label":"S"}`), &d); err == nil {
		t.Fatalf("unknown type should be rejected")
	}
}

func TestMerge(t *testing.T) {
	hi := 10.0
	d := Definition{ID: "n", Type: TypeNumber, Label: "Age", Config: NumberConfig{Max: &hi}}
	out, err := d.Merge(map[string]any{"required": true, "min": 0.0, "options": []any{"ignored"}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	nc := out.Config.(NumberConfig)
	if !out.Required || nc.Min == nil || *nc.Min != 0 || nc.Max == nil || *nc.Max != 10 {
		t.Fatalf("merge result %#v / %#v", out, nc)
	}

	cleared, err := out.Merge(map[string]any{"max": nil})
	if err != nil {
		t.Fatalf("merge clear: %v", err)
	}
	if cleared.Config.(NumberConfig).Max != nil {
		t.Fatalf("null should clear max")
	}

	if _, err := d.Merge(map[string]any{"required": "yes"}); err == nil {
		t.Fatalf("type mismatch in patch should error")
	}
}

func TestConditionOperandStringified(t *testing.T) {
	cases := map[string]string{
		`1000000`: "1000000",
		`2.5`:     "2.5",
		`true`:    "true",
		`null`:    "",
		`"Yes"`:   "Yes",
	}
	for raw, want := range cases {
		var c Condition
		if err := json.Unmarshal([]byte(`{"fieldId":"a","operator":"equals","value":`+raw+`}`), &c); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if c.Value != want || c.TargetFieldID != "a" {
			t.Fatalf("value %s decoded to %q (target %q), want %q", raw, c.Value, c.TargetFieldID, want)
		}
	}
}
