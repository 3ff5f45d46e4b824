// internal/form/renderer.go
//
// HTML renderer for public forms.
//
// Context
// -------
// Converts an ordered field list into plain, accessible HTML markup.  The
// output is a fragment; components/public wraps it in a page with the
// form's title and theme.
//
// Workflow
// --------
// • Visibility is resolved against the prefill values.  Fields whose
//   condition is false are still written, with the `hidden` attribute, so
//   a script calling POST /f/{slug}/visible can toggle them in place.
// • Required, min, max, and placeholder attributes are attached where
//   relevant.  Choice options come from the field's Config.
// • Hidden meta inputs carry the CSRF token, the render timestamp in
//   microseconds, and the honeypot when enabled.
// • The caller receives template.HTML so the page template does not
//   double-escape the markup.
//
// Style
// -----
// No framework classes.  Each field is wrapped in
// <div class="form-field" data-field-id="…"> and each input gets
// id="fld-{id}" for styling and label association.
package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"time"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/visibility"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Values pre-fills inputs, keyed by value key.
	Values map[string]any
	// CSRFToken is embedded as a hidden input when non-empty.
	CSRFToken string
	// RenderedAt is written as the render timestamp.  Zero means now.
	RenderedAt time.Time
	// Honeypot adds a visually hidden trap input.
	Honeypot bool
	// SubmitLabel overrides the submit button text.
	SubmitLabel string
}

// Render returns the HTML markup for fields.
func Render(fields []field.Definition, opts RenderOptions) (template.HTML, error) {
	shown := make(map[string]bool)
	for _, id := range visibility.VisibleIDs(fields, visibility.Values(opts.Values)) {
		shown[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="adept-form">` + "\n")

	for _, f := range fields {
		if err := writeField(&buf, f, opts.Values[f.Key()], !shown[f.ID]); err != nil {
			return "", err
		}
	}

	// Hidden meta inputs.
	if opts.CSRFToken != "" {
		buf.WriteString(`<input type="hidden" name="` + KeyCSRF + `" value="` + html.EscapeString(opts.CSRFToken) + `">` + "\n")
	}
	at := opts.RenderedAt
	if at.IsZero() {
		at = time.Now()
	}
	buf.WriteString(fmt.Sprintf(`<input type="hidden" name="%s" value="%d">`+"\n", KeyRenderTS, at.UnixMicro()))
	if opts.Honeypot {
		buf.WriteString(`<div class="form-hp" aria-hidden="true" style="position:absolute;left:-10000px">` + "\n")
		buf.WriteString(`<label for="fld-hp">Leave this empty</label>` + "\n")
		buf.WriteString(`<input id="fld-hp" name="` + KeyHoneypot + `" type="text" tabindex="-1" autocomplete="off">` + "\n")
		buf.WriteString(`</div>` + "\n")
	}

	label := opts.SubmitLabel
	if label == "" {
		label = "Submit"
	}
	buf.WriteString(`<button type="submit">` + html.EscapeString(label) + `</button>` + "\n")
	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

var inputTypes = map[field.Type]string{
	field.TypeText:   "text",
	field.TypeEmail:  "email",
	field.TypePhone:  "tel",
	field.TypeURL:    "url",
	field.TypeNumber: "number",
	field.TypeDate:   "date",
}

// writeField emits HTML for one field into buf.
func writeField(buf *bytes.Buffer, f field.Definition, val any, hidden bool) error {
	// Layout fields carry no input.
	switch f.Type {
	case field.TypeDivider:
		buf.WriteString(`<hr class="form-divider" data-field-id="` + html.EscapeString(f.ID) + `"` + hiddenAttr(hidden) + `>` + "\n")
		return nil
	case field.TypePageBreak:
		buf.WriteString(`<div class="form-page-break" data-field-id="` + html.EscapeString(f.ID) + `"` + hiddenAttr(hidden) + `></div>` + "\n")
		return nil
	}

	id := "fld-" + html.EscapeString(f.ID)
	name := html.EscapeString(f.Key())

	buf.WriteString(`<div class="form-field" data-field-id="` + html.EscapeString(f.ID) + `"` + hiddenAttr(hidden) + `>` + "\n")
	buf.WriteString(`<label for="` + id + `">` + html.EscapeString(f.Label))
	if f.Required {
		buf.WriteString(` <span class="required" aria-hidden="true">*</span>`)
	}
	buf.WriteString(`</label>` + "\n")

	req := ""
	if f.Required {
		req = ` required`
	}

	switch c := f.Config.(type) {
	case field.PlainConfig:
		if f.Type == field.TypeSignature {
			buf.WriteString(`<input id="` + id + `" name="` + name + `" type="text" class="signature"` + placeholder(f) + req + value(val) + `>` + "\n")
			break
		}
		typ, ok := inputTypes[f.Type]
		if !ok {
			return fmt.Errorf("writeField: unsupported field type %q in field %s", f.Type, f.ID)
		}
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="` + typ + `"` + placeholder(f) + req + value(val) + `>` + "\n")

	case field.NumberConfig:
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="number" step="any"` + placeholder(f) + req)
		if c.Min != nil {
			buf.WriteString(` min="` + strconv.FormatFloat(*c.Min, 'f', -1, 64) + `"`)
		}
		if c.Max != nil {
			buf.WriteString(` max="` + strconv.FormatFloat(*c.Max, 'f', -1, 64) + `"`)
		}
		buf.WriteString(value(val) + `>` + "\n")

	case field.LongTextConfig:
		buf.WriteString(`<textarea id="` + id + `" name="` + name + `"` + placeholder(f) + req + `>`)
		if s, ok := val.(string); ok {
			buf.WriteString(html.EscapeString(s))
		}
		buf.WriteString(`</textarea>` + "\n")
		if c.HelpText != "" {
			buf.WriteString(`<small class="help">` + html.EscapeString(c.HelpText) + `</small>` + "\n")
		}

	case field.ChoiceConfig:
		writeChoice(buf, f, c.Options, val, req)

	case field.PictureChoiceConfig:
		for i, opt := range c.Options {
			oid := fmt.Sprintf("%s-%d", id, i)
			buf.WriteString(`<div class="picture-option">` + "\n")
			buf.WriteString(`<input id="` + oid + `" name="` + name + `" type="radio" value="` + html.EscapeString(opt) + `"` + checked(val, opt) + req + `>` + "\n")
			buf.WriteString(`<label for="` + oid + `">`)
			if i < len(c.ImageURLs) && c.ImageURLs[i] != "" {
				buf.WriteString(`<img src="` + html.EscapeString(c.ImageURLs[i]) + `" alt="` + html.EscapeString(opt) + `">`)
			}
			buf.WriteString(html.EscapeString(opt) + `</label>` + "\n")
			buf.WriteString(`</div>` + "\n")
		}

	case field.RatingConfig:
		buf.WriteString(`<div class="rating">` + "\n")
		for n := 1; n <= c.Max(); n++ {
			v := strconv.Itoa(n)
			oid := id + "-" + v
			buf.WriteString(`<input id="` + oid + `" name="` + name + `" type="radio" value="` + v + `"` + checked(val, v) + req + `>`)
			buf.WriteString(`<label for="` + oid + `">` + v + `</label>` + "\n")
		}
		buf.WriteString(`</div>` + "\n")

	case field.MatrixConfig:
		writeMatrix(buf, f, c, val)

	case field.FileConfig:
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="file"` + req)
		if len(c.FileTypes) > 0 {
			accept := ""
			for i, t := range c.FileTypes {
				if i > 0 {
					accept += ","
				}
				accept += t
			}
			buf.WriteString(` accept="` + html.EscapeString(accept) + `"`)
		}
		buf.WriteString(`>` + "\n")

	default:
		return fmt.Errorf("writeField: field %s has no usable config", f.ID)
	}

	// Placeholder span for error messages (populated client-side or on re-render).
	buf.WriteString(`<span class="error" aria-live="polite"></span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}

func writeChoice(buf *bytes.Buffer, f field.Definition, opts []string, val any, req string) {
	id := "fld-" + html.EscapeString(f.ID)
	name := html.EscapeString(f.Key())

	switch f.Type {
	case field.TypeDropdown:
		buf.WriteString(`<select id="` + id + `" name="` + name + `"` + req + `>` + "\n")
		buf.WriteString(`<option value="">` + html.EscapeString(placeholderText(f, "Select…")) + `</option>` + "\n")
		for _, opt := range opts {
			sel := ""
			if s, _ := val.(string); s == opt {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + html.EscapeString(opt) + `"` + sel + `>` + html.EscapeString(opt) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	case field.TypeRanking:
		// Submitted in document order; a script may reorder the items.
		buf.WriteString(`<ol class="ranking" id="` + id + `">` + "\n")
		for _, opt := range opts {
			buf.WriteString(`<li><input type="hidden" name="` + name + `[]" value="` + html.EscapeString(opt) + `">` + html.EscapeString(opt) + `</li>` + "\n")
		}
		buf.WriteString(`</ol>` + "\n")

	default: // radio, checkbox
		typ := "radio"
		if f.Type == field.TypeCheckbox {
			typ = "checkbox"
			req = "" // browsers would demand every box
		}
		for i, opt := range opts {
			oid := fmt.Sprintf("%s-%d", id, i)
			buf.WriteString(`<div class="` + typ + `-option">` + "\n")
			buf.WriteString(`<input id="` + oid + `" name="` + name + `" type="` + typ + `" value="` + html.EscapeString(opt) + `"` + checked(val, opt) + req + `>` + "\n")
			buf.WriteString(`<label for="` + oid + `">` + html.EscapeString(opt) + `</label>` + "\n")
			buf.WriteString(`</div>` + "\n")
		}
	}
}

func writeMatrix(buf *bytes.Buffer, f field.Definition, c field.MatrixConfig, val any) {
	name := html.EscapeString(f.Key())
	answers, _ := val.(map[string]any)

	buf.WriteString(`<table class="matrix" id="fld-` + html.EscapeString(f.ID) + `">` + "\n<thead><tr><th></th>")
	for _, col := range c.Columns {
		buf.WriteString(`<th>` + html.EscapeString(col) + `</th>`)
	}
	buf.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range c.Rows {
		buf.WriteString(`<tr><th>` + html.EscapeString(row) + `</th>`)
		for _, col := range c.Columns {
			buf.WriteString(`<td><input type="radio" name="` + name + `[` + html.EscapeString(row) + `]" value="` + html.EscapeString(col) + `"` + checked(answers[row], col) + `></td>`)
		}
		buf.WriteString("</tr>\n")
	}
	buf.WriteString("</tbody>\n</table>\n")
}

/*──────────────────────────── attribute helpers ────────────────────────────*/

func hiddenAttr(hidden bool) string {
	if hidden {
		return ` hidden`
	}
	return ""
}

func placeholder(f field.Definition) string {
	if f.Placeholder == "" {
		return ""
	}
	return ` placeholder="` + html.EscapeString(f.Placeholder) + `"`
}

func placeholderText(f field.Definition, def string) string {
	if f.Placeholder != "" {
		return f.Placeholder
	}
	return def
}

// value renders a prefill attribute for scalar inputs.
func value(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return ""
		}
		return ` value="` + html.EscapeString(x) + `"`
	case float64:
		return ` value="` + strconv.FormatFloat(x, 'f', -1, 64) + `"`
	}
	return ""
}

// checked reports ` checked` when val equals opt or, for lists, contains it.
func checked(val any, opt string) string {
	switch x := val.(type) {
	case string:
		if x == opt {
			return ` checked`
		}
	case float64:
		if strconv.FormatFloat(x, 'f', -1, 64) == opt {
			return ` checked`
		}
	case []string:
		for _, s := range x {
			if s == opt {
				return ` checked`
			}
		}
	case []any:
		for _, e := range x {
			if s, ok := e.(string); ok && s == opt {
				return ` checked`
			}
		}
	}
	return ""
}
