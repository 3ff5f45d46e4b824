package field

import (
	"strings"
	"unicode"
)

// ValueKey derives the submission key for a label: lower-cased, with every
// run of whitespace replaced by one underscore.  Leading and trailing runs
// are replaced too; nothing is trimmed.  Punctuation is kept as is.
//
// The schema compiler, the visibility resolver, the public renderer, and the
// editor all call this one function.  Two labels that differ only by case or
// spacing map to the same key and their values collide.
func ValueKey(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	inSpace := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Collision lists the fields sharing one derived value key.
type Collision struct {
	Key      string   `json:"key"`
	FieldIDs []string `json:"fieldIds"`
}

// DuplicateKeys reports value keys shared by more than one value-bearing
// field, in order of first appearance.  Layout fields are ignored.
func DuplicateKeys(fields []Definition) []Collision {
	idx := make(map[string]int)
	var all []Collision
	for _, f := range fields {
		if f.Type.IsLayout() {
			continue
		}
		k := f.Key()
		if i, ok := idx[k]; ok {
			all[i].FieldIDs = append(all[i].FieldIDs, f.ID)
			continue
		}
		idx[k] = len(all)
		all = append(all, Collision{Key: k, FieldIDs: []string{f.ID}})
	}

	var out []Collision
	for _, c := range all {
		if len(c.FieldIDs) > 1 {
			out = append(out, c)
		}
	}
	return out
}
