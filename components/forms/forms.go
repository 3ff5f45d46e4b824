// components/forms/forms.go
//
// Owner-facing form management API.
//
// Context
// -------
// Every route except /api/session sits behind auth.RequireUser, which puts
// the owner id on the request context.  Handlers decode, call one
// form.Service method, and hand errors to respond.Error.
//
// Routes
// ------
//
//	POST   /api/session                 exchange a token for the session cookie
//	DELETE /api/session                 clear the cookie
//	GET    /api/field-types             palette catalog
//	GET    /api/forms                   list
//	POST   /api/forms                   create
//	POST   /api/forms/import            create from YAML
//	GET    /api/forms/{id}              read with fields
//	PUT    /api/forms/{id}              partial update
//	DELETE /api/forms/{id}              delete
//	PATCH  /api/forms/{id}/publish      set status
//	POST   /api/forms/{id}/duplicate    copy as draft
//	GET    /api/forms/{id}/submissions  list answers
//	GET    /api/forms/{id}/export       YAML download
//
// Builder routes live in builder.go.
package forms

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-forms/internal/auth"
	"github.com/yanizio/adept-forms/internal/component"
	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/respond"
	"github.com/yanizio/adept-forms/internal/store"
)

const (
	maxBody   = 1 << 20
	maxImport = 1 << 20
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the management and builder APIs.
type Component struct{}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "forms" }

// Routes registers the API on r.
func (c *Component) Routes(r chi.Router, d component.Deps) {
	h := &handlers{d: d}

	r.Post("/api/session", h.sessionStart)
	r.Delete("/api/session", h.sessionEnd)

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.RequireUser)

		r.Get("/api/field-types", h.fieldTypes)
		r.Route("/api/forms", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Post("/import", h.importYAML)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.get)
				r.Put("/", h.update)
				r.Delete("/", h.delete)
				r.Patch("/publish", h.publish)
				r.Post("/duplicate", h.duplicate)
				r.Get("/submissions", h.submissions)
				r.Get("/export", h.export)
			})
		})
		h.builderRoutes(r)
	})
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type handlers struct {
	d component.Deps
}

func owner(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

func (h *handlers) sessionStart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	claims, err := h.d.Auth.Parse(in.Token)
	if err != nil {
		respond.JSON(w, http.StatusUnauthorized, respond.Body{Error: "Unauthorized"})
		return
	}
	auth.SetCookie(w, r, in.Token, h.d.Auth.TTL())
	respond.JSON(w, http.StatusOK, map[string]string{"userId": claims.UserID})
}

func (h *handlers) sessionEnd(w http.ResponseWriter, _ *http.Request) {
	auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) fieldTypes(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, field.Types())
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	forms, err := h.d.Forms.List(r.Context(), owner(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, forms)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var in form.CreateInput
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	f, err := h.d.Forms.Create(r.Context(), owner(r), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, f)
}

func (h *handlers) importYAML(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImport))
	if err != nil {
		respond.BadRequest(w, "Import too large")
		return
	}
	d, err := h.d.Forms.Import(r.Context(), owner(r), data)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, d)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.d.Forms.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var in form.UpdateInput
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	id, uid := chi.URLParam(r, "id"), owner(r)
	d, err := h.d.Forms.Update(r.Context(), uid, id, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	// A live builder session now holds stale data; the next open reloads.
	h.d.Sessions.Drop(id, uid)
	respond.JSON(w, http.StatusOK, d)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.d.Forms.Delete(r.Context(), owner(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	h.d.Sessions.DropForm(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) publish(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status store.Status `json:"status"`
	}
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	f, err := h.d.Forms.SetStatus(r.Context(), owner(r), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, f)
}

func (h *handlers) duplicate(w http.ResponseWriter, r *http.Request) {
	d, err := h.d.Forms.Duplicate(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, d)
}

func (h *handlers) submissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.d.Forms.Submissions(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, subs)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	f, out, err := h.d.Forms.Export(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Slug+`.yaml"`)
	_, _ = w.Write(out)
}
