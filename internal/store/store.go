// internal/store/store.go
//
// Record store contract.
//
// Context
// -------
// Forms, their ordered field lists, and submissions live behind Store.  The
// form service, the builder session registry, and the public submit path
// only ever see this interface.  Two implementations ship:
//
//   - sqlstore: sqlx over MySQL, SQLite, or Postgres.
//   - memstore: a mutex-guarded map, for tests and the "memory" driver.
//
// Field lists are always read and written whole.  ReplaceFields deletes
// every field of a form and inserts the new list inside one transaction,
// so readers never see a half-written list.  Two overlapping writers are
// last-writer-wins.
//
// Notes
// -----
// • GetForm combines the ownership and existence checks.  A form owned by
//   someone else is indistinguishable from a missing one.
// • DeleteForm cascades to fields and submissions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/yanizio/adept-forms/internal/field"
)

// ErrNotFound is returned when a row does not exist (or is not owned by
// the caller).
var ErrNotFound = errors.New("record not found")

// ErrSlugTaken is returned when a slug collides with an existing form.
var ErrSlugTaken = errors.New("slug already in use")

// Status is a form's publication state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s == StatusDraft || s == StatusPublished }

// Form is one stored form without its fields.
type Form struct {
	ID          string    `db:"id" json:"id" yaml:"-"`
	OwnerID     string    `db:"owner_id" json:"ownerId" yaml:"-"`
	Title       string    `db:"title" json:"title" yaml:"title"`
	Slug        string    `db:"slug" json:"slug" yaml:"-"`
	Status      Status    `db:"status" json:"status" yaml:"-"`
	Description string    `db:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Settings    Settings  `db:"-" json:"settings" yaml:"settings"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt" yaml:"-"`
}

// FormPatch lists the form attributes to change.  Nil members are left
// alone.  Settings replaces the stored settings wholesale; callers merge
// first.
type FormPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Settings    *Settings
}

// Submission is one accepted answer set.  It is never mutated.
type Submission struct {
	ID          string         `db:"id" json:"id"`
	FormID      string         `db:"form_id" json:"formId"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submittedAt"`
	Data        map[string]any `db:"-" json:"data"`
}

// Store is the record store collaborator.
type Store interface {
	CreateForm(ctx context.Context, f Form) (Form, error)
	GetForm(ctx context.Context, id, ownerID string) (Form, error)
	GetFormBySlug(ctx context.Context, slug string) (Form, error)
	ListForms(ctx context.Context, ownerID string) ([]Form, error)
	UpdateForm(ctx context.Context, id string, p FormPatch) (Form, error)
	DeleteForm(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	ReplaceFields(ctx context.Context, formID string, fields []field.Definition) ([]field.Definition, error)
	GetFields(ctx context.Context, formID string) ([]field.Definition, error)

	CreateSubmission(ctx context.Context, formID string, data map[string]any) (Submission, error)
	ListSubmissions(ctx context.Context, formID string) ([]Submission, error)
}
