package sanitize

import "testing"

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"<b>Name</b>":                 "Name",
		"Age <script>x</script>":      "Age x",
		"a < b":                       "a < b",
		"plain":                       "plain",
		`<img src="x" onerror="y">Hi`: "Hi",
	}
	for in, want := range cases {
		if got := StripMarkup(in); got != want {
			t.Errorf("StripMarkup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestText(t *testing.T) {
	if got := Text("  <hi> there  "); got != "hi there" {
		t.Fatalf("Text = %q", got)
	}
}

func TestValuesNested(t *testing.T) {
	in := map[string]any{
		"a": " <x> ",
		"b": []any{"<y>", 2.0},
		"c": map[string]any{"row": "<z>"},
		"d": 5.0,
	}
	out := Values(in)
	if out["a"] != "x" {
		t.Fatalf("a = %#v", out["a"])
	}
	if l := out["b"].([]any); l[0] != "y" || l[1] != 2.0 {
		t.Fatalf("b = %#v", l)
	}
	if m := out["c"].(map[string]any); m["row"] != "z" {
		t.Fatalf("c = %#v", m)
	}
	if in["a"] != " <x> " {
		t.Fatalf("input mutated")
	}
}
