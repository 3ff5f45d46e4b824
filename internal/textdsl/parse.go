// internal/textdsl/parse.go
//
// Line-oriented shorthand for authoring fields as plain text.
//
// Syntax
// ------
// Each non-blank line is trimmed and read on its own.  The first matching
// rule wins:
//
//	/email Work address     field of type "email" labelled "Work address"
//	*Full name              required text field
//	-                       divider
//	Pizza or pasta? Pizza, Pasta
//	                        radio "Pizza or pasta?" with two options
//	Anything else           optional text field
//
// Notes
// -----
// • The type word is case-folded.  An unknown word still yields a text field
//   so the line is not lost; the Result carries a warning for it.
// • A question line with no options after the "?" becomes a text field
//   labelled with the whole line.
// • A "/word" line without a label yields nothing and a warning.
// • Output IDs are fresh on every call.  Same text, same fields, new IDs.
package textdsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yanizio/adept-forms/internal/field"
)

var slashRe = regexp.MustCompile(`^/(\w+)\s+(.+)$`)

// Result is the parsed field list plus any non-fatal warnings.
type Result struct {
	Fields   []field.Definition `json:"fields"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Parse compiles text into fields using field.NewID for identities.
func Parse(text string) Result { return ParseWith(text, field.NewID) }

// ParseWith is Parse with an injected ID generator.
func ParseWith(text string, newID func() string) Result {
	var res Result
	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		d, warn, ok := parseLine(line)
		if warn != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %s", n+1, warn))
		}
		if !ok {
			continue
		}
		d.ID = newID()
		d.Order = len(res.Fields)
		res.Fields = append(res.Fields, d)
	}
	return res
}

func parseLine(line string) (field.Definition, string, bool) {
	switch {
	case strings.HasPrefix(line, "/"):
		m := slashRe.FindStringSubmatch(line)
		if m == nil {
			return field.Definition{}, "type command without a label ignored", false
		}
		label := strings.TrimSpace(m[2])
		t := field.Type(strings.ToLower(m[1]))
		if !t.Valid() {
			d := field.New(field.TypeText, "", 0)
			d.Label = label
			return d, fmt.Sprintf("unknown field type %q, using text", m[1]), true
		}
		d := field.New(t, "", 0)
		d.Label = label
		return d, "", true

	case strings.HasPrefix(line, "*"):
		d := field.New(field.TypeText, "", 0)
		d.Label = strings.TrimSpace(line[1:])
		d.Required = true
		return d, "", true

	case strings.HasPrefix(line, "-"):
		d := field.New(field.TypeDivider, "", 0)
		d.Label = ""
		return d, "", true

	case strings.Contains(line, "?"):
		i := strings.Index(line, "?")
		if opts := splitOptions(line[i+1:]); len(opts) > 0 {
			d := field.New(field.TypeRadio, "", 0)
			d.Label = strings.TrimSpace(line[:i+1])
			d.Config = field.ChoiceConfig{Options: opts}
			return d, "", true
		}
	}

	d := field.New(field.TypeText, "", 0)
	d.Label = line
	return d, "", true
}

func splitOptions(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
