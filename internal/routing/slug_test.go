// internal/routing/slug_test.go
//
// Run: go test ./internal/routing -v

package routing

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Customer Feedback!":    "customer-feedback",
		"  --Hello   World--  ": "hello-world",
		"Café ☕ 2025":           "caf-2025",
		"日本語":                   "untitled-form",
		"":                      "untitled-form",
	}
	for in, want := range cases {
		if got := MakeSlug(in); got != want {
			t.Fatalf("MakeSlug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := MakeSlug(strings.Repeat("ab ", 80)); len(got) > 100 || strings.HasSuffix(got, "-") {
		t.Fatalf("long slug not trimmed: %q", got)
	}
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()
	free := func(context.Context, string) (bool, error) { return false, nil }
	taken := func(context.Context, string) (bool, error) { return true, nil }

	if s, _ := UniqueSlug(ctx, "survey", free); s != "survey" {
		t.Fatalf("free slug changed: %q", s)
	}
	s, err := UniqueSlug(ctx, "survey", taken)
	if err != nil {
		t.Fatalf("UniqueSlug: %v", err)
	}
	if !regexp.MustCompile(`^survey-\d+-[a-z0-9]{5}$`).MatchString(s) {
		t.Fatalf("unexpected suffix %q", s)
	}
}

func TestSuffixed(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if s := Suffixed("x-copy", at); !strings.HasPrefix(s, "x-copy-1700000000123-") {
		t.Fatalf("Suffixed = %q", s)
	}
}
