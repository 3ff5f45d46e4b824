// components/forms/builder.go
//
// Builder session API.
//
// Context
// -------
// The editor UI talks to a server-side builder.Session per owner and form.
// Edits arrive as op batches and are auto-saved after a quiet period; the
// response always carries the session state, including the dirty flag and
// the last save time, so the UI can show "Saving…" and "Saved".
//
// Routes
// ------
//
//	GET    /api/builder/{id}          open (or resume) and return state
//	DELETE /api/builder/{id}          save pending edits and close
//	POST   /api/builder/{id}/ops      apply an op batch
//	POST   /api/builder/{id}/text     replace or extend fields from text
//	POST   /api/builder/{id}/save     save now
//	POST   /api/builder/{id}/preview  validate a payload against the draft
package forms

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/logger"
	"github.com/yanizio/adept-forms/internal/respond"
	"github.com/yanizio/adept-forms/internal/textdsl"
	"github.com/yanizio/adept-forms/internal/visibility"
)

func (h *handlers) builderRoutes(r chi.Router) {
	r.Route("/api/builder/{id}", func(r chi.Router) {
		r.Get("/", h.builderOpen)
		r.Delete("/", h.builderClose)
		r.Post("/ops", h.builderOps)
		r.Post("/text", h.builderText)
		r.Post("/save", h.builderSave)
		r.Post("/preview", h.builderPreview)
	})
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) (*builder.Session, bool) {
	s, err := h.d.Sessions.Get(r.Context(), chi.URLParam(r, "id"), owner(r))
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *handlers) builderOpen(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, s.State())
}

func (h *handlers) builderClose(w http.ResponseWriter, r *http.Request) {
	id, uid := chi.URLParam(r, "id"), owner(r)
	s, ok := h.d.Sessions.Peek(id, uid)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if s.State().Dirty {
		if _, err := s.Save(r.Context()); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	h.d.Sessions.Drop(id, uid)
	w.WriteHeader(http.StatusNoContent)
}

type opsRequest struct {
	Ops []builder.Op `json:"ops"`
}

func (h *handlers) builderOps(w http.ResponseWriter, r *http.Request) {
	var in opsRequest
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := s.Apply(in.Ops)
	if err != nil {
		logger.FromContext(r.Context()).Debugw("builder op rejected", "form", s.FormID, "err", err)
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

type textRequest struct {
	Text   string `json:"text"`
	Append bool   `json:"append,omitempty"`
}

type textResponse struct {
	builder.State
	Warnings []string `json:"warnings,omitempty"`
}

func (h *handlers) builderText(w http.ResponseWriter, r *http.Request) {
	var in textRequest
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res := textdsl.Parse(in.Text)
	fields := res.Fields
	if in.Append {
		cur := s.Fields()
		for i := range fields {
			fields[i].Order = len(cur) + i
		}
		fields = append(cur, fields...)
	}
	st, err := s.Apply([]builder.Op{{Kind: builder.OpSetFields, Fields: fields}})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, textResponse{State: st, Warnings: res.Warnings})
}

func (h *handlers) builderSave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := s.Save(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

type previewRequest struct {
	Values map[string]any `json:"values"`
}

type previewResponse struct {
	Valid   bool           `json:"valid"`
	Visible []string       `json:"visible"`
	Data    map[string]any `json:"data,omitempty"`
}

func (h *handlers) builderPreview(w http.ResponseWriter, r *http.Request) {
	var in previewRequest
	if !respond.Decode(w, r, &in, maxBody) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fields := s.Fields()
	clean, err := form.Preview(fields, in.Values)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, previewResponse{
		Valid:   true,
		Visible: visibility.VisibleIDs(fields, visibility.Values(in.Values)),
		Data:    clean,
	})
}
