// internal/form/definition_test.go
//
// YAML export and import.
//
// Run: go test ./internal/form -v

package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

func TestExportImport(t *testing.T) {
	svc, _ := newService(Options{})
	src := seed(t, svc, "Pet survey", true)

	_, out, err := svc.Export(ctx, owner, src.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	y := string(out)
	if !strings.Contains(y, "title: Pet survey") || !strings.Contains(y, "targetFieldId: q1") {
		t.Fatalf("unexpected YAML:\n%s", y)
	}
	if strings.Contains(y, src.Slug) {
		t.Fatalf("slug should not be exported")
	}

	d, err := svc.Import(ctx, "user-2", out)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if d.OwnerID != "user-2" || d.Status != store.StatusDraft || d.Title != "Pet survey" {
		t.Fatalf("unexpected import %#v", d.Form)
	}
	if len(d.Fields) != 3 || d.Fields[1].Condition == nil || d.Fields[1].Condition.TargetFieldID != "q1" {
		t.Fatalf("fields not imported: %#v", d.Fields)
	}
	if opts := d.Fields[0].Options(); len(opts) != 2 || !d.Fields[0].Required {
		t.Fatalf("config lost: %#v", d.Fields[0])
	}
}

func TestParseDocument(t *testing.T) {
	doc := `
title: Contact
fields:
  - type: email
    label: Work email
    config:
      required: true
  - type: rating
    label: Mood
    config:
      maxRating: 10
`
	d, fields, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if d.Title != "Contact" || len(fields) != 2 {
		t.Fatalf("doc = %#v", d)
	}
	if fields[0].ID == "" || !fields[0].Required || fields[1].Order != 1 {
		t.Fatalf("fields = %#v", fields)
	}
	if rc := fields[1].Config.(field.RatingConfig); rc.Max() != 10 {
		t.Fatalf("rating = %#v", rc)
	}

	if _, _, err := ParseDocument([]byte("fields:\n  - type: slider\n")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown type = %v", err)
	}
	if _, _, err := ParseDocument([]byte("title: [")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad yaml = %v", err)
	}
}

func TestImportValidates(t *testing.T) {
	svc, _ := newService(Options{})
	if _, err := svc.Import(ctx, owner, []byte("title: ''\nfields: []\n")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank title = %v", err)
	}
	if _, err := svc.Import(ctx, "", []byte("title: x")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous import = %v", err)
	}
}
