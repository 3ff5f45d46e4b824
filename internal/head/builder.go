// internal/head/builder.go
//
// The Builder collects everything that should appear inside a hosted form
// page's <head> element.  It is scoped to a single render.  Handlers push
// tags into the builder, then the page layout emits each slice where it
// belongs.
//
// Features
// --------
//   - SetTitle      – single <title> tag (last call wins).
//   - Meta, Link    – name/content and rel/href pairs, escaped and deduplicated.
//   - Render helpers return template.HTML for the layout.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// Builder is safe for concurrent use, though one goroutine per request is
// the normal case.
type Builder struct {
	mu sync.Mutex

	title string
	metas []string
	links []string

	// seen tracks keys for deduplication.
	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// ------------------------------------------------------------------
// Single-value helper
// ------------------------------------------------------------------

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// ------------------------------------------------------------------
// Slice helpers with deduplication
// ------------------------------------------------------------------

// Meta adds <meta name content>.  A repeated name is ignored.
func (b *Builder) Meta(name, content string) {
	tag := `<meta name="` + template.HTMLEscapeString(name) + `" content="` + template.HTMLEscapeString(content) + `">`
	b.add("meta:"+name, &b.metas, tag)
}

// Link adds <link rel href>.  A repeated rel/href pair is ignored.
func (b *Builder) Link(rel, href string) {
	tag := `<link rel="` + template.HTMLEscapeString(rel) + `" href="` + template.HTMLEscapeString(href) + `">`
	b.add("link:"+rel+" "+href, &b.links, tag)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// ------------------------------------------------------------------
// Rendering helpers called from page templates
// ------------------------------------------------------------------

func (b *Builder) Metas() template.HTML { return b.concat(b.metas) }
func (b *Builder) Links() template.HTML { return b.concat(b.links) }

// concat joins pre-escaped tags with newlines.
func (b *Builder) concat(sl []string) template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(sl, "\n"))
}
