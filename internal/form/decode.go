package form

import (
	"net/url"
	"strings"

	"github.com/yanizio/adept-forms/internal/field"
)

// DecodeValues turns a url-encoded form post into the payload shape the
// schema expects.  Checkbox and ranking answers become lists even with one
// entry; matrix answers arrive as key[row]=column and become a map.  Other
// keys keep their first value.
func DecodeValues(fields []field.Definition, form url.Values) map[string]any {
	kind := make(map[string]field.Type, len(fields))
	for _, f := range fields {
		kind[f.Key()] = f.Type
	}

	out := make(map[string]any, len(form))
	for raw, vals := range form {
		if len(vals) == 0 {
			continue
		}
		key, sub := raw, ""
		if _, ok := kind[raw]; !ok {
			key, sub = splitKey(raw, kind)
		}

		switch kind[key] {
		case field.TypeCheckbox, field.TypeRanking:
			list, _ := out[key].([]any)
			for _, v := range vals {
				list = append(list, v)
			}
			out[key] = list
		case field.TypeMatrix:
			if sub == "" {
				continue
			}
			m, _ := out[key].(map[string]any)
			if m == nil {
				m = make(map[string]any)
			}
			m[sub] = vals[0]
			out[key] = m
		default:
			out[raw] = vals[0]
		}
	}
	return out
}

// splitKey separates "name[sub]" into a known field key and sub.  Labels
// and matrix rows may both contain brackets, so every "[" is tried as the
// boundary and the first prefix naming a field wins.  "name[]" yields an
// empty sub.
func splitKey(raw string, kind map[string]field.Type) (string, string) {
	if !strings.HasSuffix(raw, "]") {
		return raw, ""
	}
	for i := 1; i < len(raw); i++ {
		if raw[i] != '[' {
			continue
		}
		if _, ok := kind[raw[:i]]; ok {
			return raw[:i], raw[i+1 : len(raw)-1]
		}
	}
	return raw, ""
}
