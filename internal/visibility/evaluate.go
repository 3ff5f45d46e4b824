// internal/visibility/evaluate.go
//
// Condition evaluator.
//
// Context
// -------
// A field may carry one Condition naming another field and a comparison.
// Evaluate answers "should the dependent field be shown right now?" for a
// snapshot of answers keyed by value key.
//
// Coercion follows the browser runtime the public renderer runs in, so the
// server and the page agree on every edge case:
//
//   - equals, not_equals, contains, not_contains compare stringified values.
//     An absent answer stringifies to "".  Lists join with ",".
//   - greater_than, less_than coerce both sides to numbers.  "" is 0, a
//     non-numeric string is NaN, and any comparison involving NaN is false.
//   - is_empty is true for falsy values (nil, "", 0, false, NaN) and for
//     strings that are blank once trimmed.
//
// Notes
// -----
// • Fail-open: a missing target or an unknown operator yields true.  A
//   broken condition must never hide a field for good.
// • Evaluate never returns an error and never panics on odd value types.
package visibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yanizio/adept-forms/internal/field"
)

// Values maps value keys to the current answers.
type Values map[string]any

// Evaluate reports whether cond holds for values.  fields is the full field
// list of the form; the target is resolved by ID or persisted ID.
func Evaluate(cond field.Condition, values Values, fields []field.Definition) bool {
	target, ok := findTarget(fields, cond.TargetFieldID)
	if !ok {
		return true
	}
	v, present := values[target.Key()]
	if !present {
		v = nil
	}

	switch cond.Operator {
	case field.OpEquals:
		return stringify(v) == cond.Value
	case field.OpNotEquals:
		return stringify(v) != cond.Value
	case field.OpContains:
		return strings.Contains(stringify(v), cond.Value)
	case field.OpNotContains:
		return !strings.Contains(stringify(v), cond.Value)
	case field.OpGreaterThan:
		a, b := toNumber(v), toNumber(cond.Value)
		return !math.IsNaN(a) && !math.IsNaN(b) && a > b
	case field.OpLessThan:
		a, b := toNumber(v), toNumber(cond.Value)
		return !math.IsNaN(a) && !math.IsNaN(b) && a < b
	case field.OpIsEmpty:
		return isEmpty(v)
	case field.OpIsNotEmpty:
		return !isEmpty(v)
	}
	return true
}

func findTarget(fields []field.Definition, id string) (field.Definition, bool) {
	if id == "" {
		return field.Definition{}, false
	}
	for _, f := range fields {
		if f.ID == id || (f.PersistedID != "" && f.PersistedID == id) {
			return f, true
		}
	}
	return field.Definition{}, false
}

// stringify renders v the way String(v) does in the browser, treating an
// absent value as "".
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case float32:
		return formatNumber(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toNumber mirrors Number(v).
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		return parseNumber(x)
	case []any:
		if len(x) == 0 {
			return 0
		}
		if len(x) == 1 {
			return toNumber(stringify(x[0]))
		}
		return math.NaN()
	case []string:
		if len(x) == 0 {
			return 0
		}
		if len(x) == 1 {
			return parseNumber(x[0])
		}
		return math.NaN()
	}
	if s, ok := v.(fmt.Stringer); ok {
		return parseNumber(s.String())
	}
	return math.NaN()
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	// ParseFloat also accepts "inf", "nan", and underscores; Number does not.
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case float64:
		return x == 0 || math.IsNaN(x)
	case int:
		return x == 0
	case int64:
		return x == 0
	}
	return strings.TrimSpace(stringify(v)) == ""
}
