// internal/sanitize/sanitize.go
//
// Markup stripping for user-authored text.
//
// Context
// -------
// Labels, placeholders, descriptions, options, and submitted answers are
// stripped before they reach the store or the schema compiler.  Value keys
// derive from labels, so stripping must happen first or the compiler and
// the stored submission would disagree on keys.
//
// Two levels:
//   - StripMarkup removes anything shaped like a tag, "<…>".  Used for
//     authored strings that may legitimately contain a lone "<".
//   - Text removes every angle bracket and trims surrounding space.  Used
//     for submitted answers.
//
// Notes
// -----
// • Entities are left alone.  Output is escaped at render time.
package sanitize

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes tag-shaped substrings from s.
func StripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return tagRe.ReplaceAllString(s, "")
}

// Text removes angle brackets from s and trims it.
func Text(s string) string {
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(s))
}

// Value applies Text to strings, including those nested in lists and maps.
// Other values pass through unchanged.
func Value(v any) any {
	switch x := v.(type) {
	case string:
		return Text(x)
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = Text(s)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Value(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Value(e)
		}
		return out
	}
	return v
}

// Values applies Value to every entry of m, returning a new map.
func Values(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Value(v)
	}
	return out
}
