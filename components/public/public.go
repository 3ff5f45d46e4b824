// components/public/public.go
//
// Respondent-facing routes: the hosted form page and the submit API.
//
// Context
// -------
// Nothing here needs a session.  Every route resolves a published form by
// slug through form.Service, which caches the lookup.  The HTML page posts
// back to itself; scripts and embeds use the JSON endpoint.
//
// Routes
// ------
//
//	GET  /f/{slug}             hosted page
//	POST /f/{slug}             url-encoded post from the hosted page
//	POST /f/{slug}/visible     visible field ids for a set of answers
//	POST /api/submit/{slug}    JSON submission
//	GET  /f/assets/*           page stylesheet and script
//
// Notes
// -----
// • Field errors on the hosted page re-render the form with the answers
//   kept.  The JSON endpoint returns them as details.
// • Oxford commas, two spaces after periods.
package public

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-forms/internal/component"
	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/head"
	"github.com/yanizio/adept-forms/internal/logger"
	"github.com/yanizio/adept-forms/internal/requestinfo"
	"github.com/yanizio/adept-forms/internal/respond"
	"github.com/yanizio/adept-forms/internal/schema"
	"github.com/yanizio/adept-forms/internal/store"
	"github.com/yanizio/adept-forms/internal/view"
)

const maxBody = 1 << 20

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

var pages = view.Must(view.New(templateFS, "templates/*.html"))

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the public form surface.
type Component struct{}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "public" }

// Routes registers the public routes on r.
func (c *Component) Routes(r chi.Router, d component.Deps) {
	h := &handlers{d: d}

	assets, _ := fs.Sub(assetFS, "assets")
	r.Handle("/f/assets/*", http.StripPrefix("/f/assets/", http.FileServer(http.FS(assets))))

	r.Get("/f/{slug}", h.page)
	r.Post("/f/{slug}", h.post)
	r.Post("/f/{slug}/visible", h.visible)
	r.Post("/api/submit/{slug}", h.submit)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type handlers struct {
	d component.Deps
}

// pageData feeds every template in templates/.
type pageData struct {
	Head    *head.Builder
	Form    store.Form
	Body    template.HTML
	Errors  []schema.FieldError
	Receipt form.Receipt
	Status  int
	Message string
}

// client describes the requester.  Enrich normally ran already; the
// fallback keeps the handlers usable when it did not.
func (h *handlers) client(r *http.Request) form.Client {
	if info := requestinfo.FromContext(r.Context()); info != nil {
		return form.Client{IP: info.IP, Bot: info.UA.IsBot}
	}
	return form.Client{
		IP:  requestinfo.ClientIP(r, h.d.TrustProxy),
		Bot: requestinfo.ParseUA(r.UserAgent()).IsBot,
	}
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	f, fields, err := h.d.Forms.PublicForm(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, f, fields, nil, nil)
}

func (h *handlers) post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, form.ErrInvalidInput)
		return
	}

	f, fields, err := h.d.Forms.PublicForm(r.Context(), slug)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	values := form.DecodeValues(fields, r.PostForm)
	rc, err := h.d.Forms.Submit(r.Context(), slug, values, h.client(r))
	if ve, ok := schema.AsValidationError(err); ok {
		h.renderForm(w, r, http.StatusBadRequest, f, fields, values, ve.Fields)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if rc.RedirectURL != "" {
		http.Redirect(w, r, rc.RedirectURL, http.StatusSeeOther)
		return
	}
	hd := newHead(f)
	h.render(w, r, http.StatusOK, "thanks", pageData{Head: hd, Form: f, Receipt: rc})
}

func (h *handlers) visible(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Values map[string]any `json:"values"`
	}
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	ids, err := h.d.Forms.Visible(r.Context(), chi.URLParam(r, "slug"), in.Values)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"visible": ids})
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if !respond.Decode(w, r, &payload, maxBody) {
		return
	}
	rc, err := h.d.Forms.Submit(r.Context(), chi.URLParam(r, "slug"), payload, h.client(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rc)
}

/*──────────────────────────── rendering ────────────────────────────────────*/

func newHead(f store.Form) *head.Builder {
	hd := head.New()
	hd.SetTitle(f.Title)
	if f.Description != "" {
		hd.Meta("description", f.Description)
	}
	hd.Meta("robots", "noindex")
	hd.Link("stylesheet", "/f/assets/forms.css")
	return hd
}

func (h *handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, f store.Form, fields []field.Definition, values map[string]any, errs []schema.FieldError) {
	var tok string
	if signer := h.d.Forms.CSRF(); signer != nil {
		t, err := signer.Generate()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		tok = t
	}

	body, err := form.Render(fields, form.RenderOptions{
		Values:    values,
		CSRFToken: tok,
		Honeypot:  f.Settings.EnableHoneypot,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, status, "page", pageData{Head: newHead(f), Form: f, Body: body, Errors: errs})
}

// fail renders the error page with the status respond would use.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := respond.Status(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Errorw("public page failed", "path", r.URL.Path, "err", err)
	}
	hd := head.New()
	hd.SetTitle(msg)
	hd.Meta("robots", "noindex")
	hd.Link("stylesheet", "/f/assets/forms.css")
	h.render(w, r, status, "error", pageData{Head: hd, Status: status, Message: msg})
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if err := pages.Render(w, status, name, data); err != nil {
		logger.FromContext(r.Context()).Errorw("template failed", "template", name, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
