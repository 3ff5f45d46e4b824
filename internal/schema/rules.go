package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	check = validator.New()

	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	phoneRe = regexp.MustCompile(`^[\d\s+\-()]+$`)
)

const msgExpectText = "Expected text"

func requiredMsg(label string) string { return label + " is required" }

// -----------------------------------------------------------------------------
// Wrappers
// -----------------------------------------------------------------------------

// scalar wraps a single-value rule with the required/optional handling
// shared by every non-list type.
func scalar(label string, req bool, inner func(any) (any, string)) rule {
	return func(v any, present bool) (any, bool, string) {
		if !present || v == "" {
			if req {
				return nil, false, requiredMsg(label)
			}
			return nil, false, ""
		}
		out, msg := inner(v)
		if msg != "" {
			return nil, false, msg
		}
		return out, true, ""
	}
}

// list accepts a sequence of strings.  A required list needs at least one
// entry.
func list(label string, req bool, badShape string) rule {
	return func(v any, present bool) (any, bool, string) {
		if !present || v == "" {
			if req {
				return nil, false, requiredMsg(label)
			}
			return nil, false, ""
		}
		items, ok := stringList(v)
		if !ok {
			return nil, false, badShape
		}
		if req && len(items) == 0 {
			return nil, false, requiredMsg(label)
		}
		return items, true, ""
	}
}

// matrix accepts one string answer per row, keyed by row label.
func matrix(label string, req bool) rule {
	return func(v any, present bool) (any, bool, string) {
		if !present || v == "" {
			if req {
				return nil, false, requiredMsg(label)
			}
			return nil, false, ""
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false, "Please answer each row"
		}
		out := make(map[string]any, len(m))
		for row, ans := range m {
			s, ok := ans.(string)
			if !ok {
				return nil, false, "Please answer each row"
			}
			out[row] = s
		}
		if req && len(out) == 0 {
			return nil, false, requiredMsg(label)
		}
		return out, true, ""
	}
}

func fileRule(v any, present bool) (any, bool, string) {
	if !present {
		return nil, false, ""
	}
	return v, true, ""
}

// -----------------------------------------------------------------------------
// Single-value rules
// -----------------------------------------------------------------------------

func stringRule(v any) (any, string) {
	s, ok := v.(string)
	if !ok {
		return nil, msgExpectText
	}
	return s, ""
}

func emailRule(v any) (any, string) {
	s, ok := v.(string)
	if !ok || check.Var(s, "email") != nil {
		return nil, "Invalid email address"
	}
	return s, ""
}

func urlRule(v any) (any, string) {
	s, ok := v.(string)
	if !ok || check.Var(s, "url") != nil {
		return nil, "Invalid URL format"
	}
	return s, ""
}

func dateRule(v any) (any, string) {
	s, ok := v.(string)
	if !ok || !dateRe.MatchString(s) {
		return nil, "Invalid date format"
	}
	return s, ""
}

func phoneRule(v any) (any, string) {
	s, ok := v.(string)
	if !ok || !phoneRe.MatchString(s) {
		return nil, "Invalid phone number"
	}
	return s, ""
}

func numberRule(lo, hi *float64) func(any) (any, string) {
	return func(v any) (any, string) {
		n, ok := toFloat(v)
		if !ok {
			return nil, "Please enter a valid number"
		}
		if lo != nil && n < *lo {
			return nil, "Value must be at least " + formatFloat(*lo)
		}
		if hi != nil && n > *hi {
			return nil, "Value must be at most " + formatFloat(*hi)
		}
		return n, ""
	}
}

// ratingRule coerces non-numeric input to 0, which then fails the lower
// bound.
func ratingRule(top int) func(any) (any, string) {
	return func(v any) (any, string) {
		n, ok := toFloat(v)
		if !ok {
			n = 0
		}
		if n < 1 {
			return nil, "Rating must be at least 1"
		}
		if n > float64(top) {
			return nil, fmt.Sprintf("Rating must be at most %d", top)
		}
		if n != math.Trunc(n) {
			return nil, "Rating must be a whole number"
		}
		return n, ""
	}
}

// -----------------------------------------------------------------------------
// Coercion helpers
// -----------------------------------------------------------------------------

// toFloat accepts JSON numbers and numeric strings.  Booleans, blanks, NaN,
// and infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.ContainsAny(s, "_xXnN") || strings.Contains(strings.ToLower(s), "inf") {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out, true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
