// internal/view/render.go
//
// Template engine for server-rendered pages.
//
// Context
// -------
// Each component that serves HTML embeds its templates and builds one
// Engine at registration.  All files matching the patterns are parsed as
// one set, so sub-templates ({{ template "row" . }}) work across files.
//
// Public helpers
// --------------
//   - Render         – buffer, then write the page with a status code.
//   - RenderToString – return template.HTML (fragments, e-mails).
//
// execName chooses the template to run: "<name>.html" when the set has a
// file of that name, otherwise the {{ define "<name>" }} block.
//
// Style
// -----
// • Oxford commas, two spaces after periods.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/yanizio/adept-forms/internal/store"
)

// Engine holds one parsed template set.
type Engine struct {
	tpl *template.Template
}

// New parses every file in fsys matching patterns.
func New(fsys fs.FS, patterns ...string) (*Engine, error) {
	t, err := template.New("").Funcs(FuncMap()).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{tpl: t}, nil
}

// Must is New for package-level initialisation.  It panics on error.
func Must(e *Engine, err error) *Engine {
	if err != nil {
		panic(err)
	}
	return e
}

// Render executes name into a buffer and writes it with status.  Nothing
// reaches w when execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := e.tpl.ExecuteTemplate(&buf, execName(e.tpl, name), data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderToString executes name and returns the HTML.
func (e *Engine) RenderToString(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.tpl.ExecuteTemplate(&buf, execName(e.tpl, name), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

//
// func-map
//

// FuncMap returns the helpers every template can call.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict":       dict,
		"themeClass": ThemeClass,
	}
}

// ThemeClass maps a form theme to its body class.  Unknown and empty
// themes fall back to "theme-default".
func ThemeClass(theme string) string {
	for _, t := range store.Themes {
		if t == theme {
			return "theme-" + t
		}
	}
	return "theme-default"
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
