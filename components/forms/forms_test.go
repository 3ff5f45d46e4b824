// components/forms/forms_test.go
//
// End-to-end handler tests over the in-memory store.
//
// Run: go test ./components/forms -v

package forms

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/adept-forms/internal/auth"
	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/component"
	"github.com/yanizio/adept-forms/internal/form"
	"github.com/yanizio/adept-forms/internal/store/memstore"
)

type harness struct {
	t      *testing.T
	srv    http.Handler
	signer *auth.Signer
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	signer, err := auth.NewSigner([]byte("0123456789abcdef0123456789abcdef"), 0)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	svc := form.NewService(memstore.New(), form.Options{})
	sessions := builder.NewSessions(svc.LoadForBuilder, svc.SaveSnapshot, builder.RegistryOptions{})
	t.Cleanup(sessions.Close)

	r := chi.NewRouter()
	(&Component{}).Routes(r, component.Deps{Forms: svc, Sessions: sessions, Auth: signer})

	tok, _ := signer.Issue("owner-1", "owner@example.com")
	return &harness{t: t, srv: r, signer: signer, token: tok}
}

// do sends body (marshalled unless already []byte) and decodes the reply
// into out when non-nil.
func (h *harness) do(method, path string, body any, out any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			h.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

type formJSON struct {
	ID     string            `json:"id"`
	Slug   string            `json:"slug"`
	Title  string            `json:"title"`
	Status string            `json:"status"`
	Fields []json.RawMessage `json:"fields"`
}

func (h *harness) create(title string) formJSON {
	h.t.Helper()
	var f formJSON
	if rec := h.do("POST", "/api/forms", map[string]any{"title": title}, &f); rec.Code != http.StatusCreated {
		h.t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	return f
}

func TestRequiresSession(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	if rec := h.do("GET", "/api/forms", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list = %d", rec.Code)
	}
}

func TestSessionCookie(t *testing.T) {
	h := newHarness(t)
	tok := h.token
	h.token = ""

	rec := h.do("POST", "/api/session", map[string]string{"token": tok}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session start = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName {
		t.Fatalf("cookie not set: %v", cookies)
	}

	req := httptest.NewRequest("GET", "/api/forms", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth = %d", rec.Code)
	}

	if rec := h.do("POST", "/api/session", map[string]string{"token": "junk"}, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", rec.Code)
	}
}

func TestFormLifecycle(t *testing.T) {
	h := newHarness(t)
	f := h.create("Feedback")
	if f.Slug != "feedback" || f.Status != "draft" {
		t.Fatalf("created %#v", f)
	}

	// Publishing an empty form is refused.
	if rec := h.do("PATCH", "/api/forms/"+f.ID+"/publish", map[string]string{"status": "published"}, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("publish empty = %d", rec.Code)
	}

	update := map[string]any{
		"settings": map[string]any{"theme": "modern"},
		"fields": []map[string]any{
			{"id": "q1", "type": "email", "label": "Email", "order": 0, "config": map[string]any{"required": true}},
		},
	}
	var got formJSON
	if rec := h.do("PUT", "/api/forms/"+f.ID, update, &got); rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}
	if len(got.Fields) != 1 {
		t.Fatalf("fields = %d", len(got.Fields))
	}

	if rec := h.do("PATCH", "/api/forms/"+f.ID+"/publish", map[string]string{"status": "published"}, &got); rec.Code != http.StatusOK || got.Status != "published" {
		t.Fatalf("publish = %d %s", rec.Code, got.Status)
	}

	var dup formJSON
	if rec := h.do("POST", "/api/forms/"+f.ID+"/duplicate", nil, &dup); rec.Code != http.StatusCreated {
		t.Fatalf("duplicate = %d", rec.Code)
	}
	if dup.Title != "Feedback (Copy)" || dup.Status != "draft" || len(dup.Fields) != 1 {
		t.Fatalf("copy = %#v", dup)
	}

	var list []formJSON
	h.do("GET", "/api/forms", nil, &list)
	if len(list) != 2 {
		t.Fatalf("list = %d", len(list))
	}

	if rec := h.do("DELETE", "/api/forms/"+dup.ID, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := h.do("GET", "/api/forms/"+dup.ID, nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted = %d", rec.Code)
	}
}

func TestValidationDetails(t *testing.T) {
	h := newHarness(t)
	var body struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	rec := h.do("POST", "/api/forms", map[string]any{"title": strings.Repeat("x", 201)}, &body)
	if rec.Code != http.StatusBadRequest || len(body.Details) != 1 || body.Details[0].Field != "title" {
		t.Fatalf("got %d %#v", rec.Code, body)
	}
	if rec := h.do("POST", "/api/forms", []byte("{"), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json = %d", rec.Code)
	}
}

func TestForeignFormIsNotFound(t *testing.T) {
	h := newHarness(t)
	f := h.create("Private")

	h.token, _ = h.signer.Issue("someone-else", "")
	for _, p := range []string{"/api/forms/" + f.ID, "/api/forms/" + f.ID + "/submissions", "/api/builder/" + f.ID} {
		if rec := h.do("GET", p, nil, nil); rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d", p, rec.Code)
		}
	}
}

func TestExportImportRoutes(t *testing.T) {
	h := newHarness(t)
	f := h.create("Contact")
	h.do("PUT", "/api/forms/"+f.ID, map[string]any{"fields": []map[string]any{
		{"id": "a", "type": "text", "label": "Name", "order": 0},
	}}, nil)

	rec := h.do("GET", "/api/forms/"+f.ID+"/export", nil, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/yaml" {
		t.Fatalf("export = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "contact.yaml") {
		t.Fatalf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}

	var imported formJSON
	if rec := h.do("POST", "/api/forms/import", rec.Body.Bytes(), &imported); rec.Code != http.StatusCreated {
		t.Fatalf("import = %d %s", rec.Code, rec.Body.String())
	}
	if imported.ID == f.ID || len(imported.Fields) != 1 {
		t.Fatalf("imported = %#v", imported)
	}
}

func TestFieldTypes(t *testing.T) {
	h := newHarness(t)
	var types []map[string]any
	h.do("GET", "/api/field-types", nil, &types)
	if len(types) != 18 {
		t.Fatalf("types = %d", len(types))
	}
}

type stateJSON struct {
	Title  string `json:"title"`
	Fields []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Label string `json:"label"`
	} `json:"fields"`
	Dirty    bool     `json:"hasUnsavedChanges"`
	Warnings []string `json:"warnings"`
}

func TestBuilderRoutes(t *testing.T) {
	h := newHarness(t)
	f := h.create("Survey")
	base := "/api/builder/" + f.ID

	var st stateJSON
	if rec := h.do("GET", base, nil, &st); rec.Code != http.StatusOK || st.Title != "Survey" || st.Dirty {
		t.Fatalf("open = %d %#v", rec.Code, st)
	}

	ops := map[string]any{"ops": []map[string]any{
		{"op": "add", "type": "email"},
		{"op": "set_title", "title": "Customer survey"},
	}}
	if rec := h.do("POST", base+"/ops", ops, &st); rec.Code != http.StatusOK {
		t.Fatalf("ops = %d %s", rec.Code, rec.Body.String())
	}
	if len(st.Fields) != 1 || st.Fields[0].Type != "email" || !st.Dirty {
		t.Fatalf("after ops %#v", st)
	}

	bad := map[string]any{"ops": []map[string]any{{"op": "explode"}}}
	if rec := h.do("POST", base+"/ops", bad, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad op = %d", rec.Code)
	}

	text := map[string]any{"text": "*Name\nFavourite colour? Red, Blue", "append": true}
	if rec := h.do("POST", base+"/text", text, &st); rec.Code != http.StatusOK {
		t.Fatalf("text = %d %s", rec.Code, rec.Body.String())
	}
	if len(st.Fields) != 3 || st.Fields[0].Type != "email" || st.Fields[2].Type != "radio" {
		t.Fatalf("after text %#v", st.Fields)
	}

	if rec := h.do("POST", base+"/save", nil, &st); rec.Code != http.StatusOK || st.Dirty {
		t.Fatalf("save = %d dirty=%v", rec.Code, st.Dirty)
	}

	var saved formJSON
	h.do("GET", "/api/forms/"+f.ID, nil, &saved)
	if saved.Title != "Customer survey" || len(saved.Fields) != 3 {
		t.Fatalf("persisted %#v", saved)
	}

	if rec := h.do("DELETE", base, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("close = %d", rec.Code)
	}
}

func TestBuilderPreview(t *testing.T) {
	h := newHarness(t)
	f := h.create("Preview")
	base := "/api/builder/" + f.ID
	h.do("POST", base+"/text", map[string]any{"text": "*Name"}, nil)

	var out struct {
		Valid   bool           `json:"valid"`
		Visible []string       `json:"visible"`
		Data    map[string]any `json:"data"`
	}
	rec := h.do("POST", base+"/preview", map[string]any{"values": map[string]any{"name": "Ada"}}, &out)
	if rec.Code != http.StatusOK || !out.Valid || len(out.Visible) != 1 || out.Data["name"] != "Ada" {
		t.Fatalf("preview = %d %#v", rec.Code, out)
	}
	if rec := h.do("POST", base+"/preview", map[string]any{"values": map[string]any{}}, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing required = %d", rec.Code)
	}
}
