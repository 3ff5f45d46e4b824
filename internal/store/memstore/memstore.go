// Package memstore is an in-process store.Store.  It backs the "memory"
// database driver and the service tests.  Everything is lost on restart.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

// Store keeps forms, fields, and submissions in maps guarded by one mutex.
type Store struct {
	mu          sync.RWMutex
	forms       map[string]store.Form
	fields      map[string][]field.Definition
	submissions map[string][]store.Submission

	// FailReplaceFields, when set, is returned by ReplaceFields.  Tests use
	// it to exercise partial-failure paths.
	FailReplaceFields error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		forms:       make(map[string]store.Form),
		fields:      make(map[string][]field.Definition),
		submissions: make(map[string][]store.Submission),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) CreateForm(_ context.Context, f store.Form) (store.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.forms {
		if existing.Slug == f.Slug {
			return store.Form{}, store.ErrSlugTaken
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = store.StatusDraft
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	s.forms[f.ID] = f
	return f, nil
}

func (s *Store) GetForm(_ context.Context, id, ownerID string) (store.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.forms[id]
	if !ok || f.OwnerID != ownerID {
		return store.Form{}, store.ErrNotFound
	}
	return f, nil
}

func (s *Store) GetFormBySlug(_ context.Context, slug string) (store.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.forms {
		if f.Slug == slug {
			return f, nil
		}
	}
	return store.Form{}, store.ErrNotFound
}

func (s *Store) ListForms(_ context.Context, ownerID string) ([]store.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Form
	for _, f := range s.forms {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateForm(_ context.Context, id string, p store.FormPatch) (store.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.forms[id]
	if !ok {
		return store.Form{}, store.ErrNotFound
	}
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Settings != nil {
		f.Settings = *p.Settings
	}
	f.UpdatedAt = time.Now().UTC()
	s.forms[id] = f
	return f, nil
}

func (s *Store) DeleteForm(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.forms[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.forms, id)
	delete(s.fields, id)
	delete(s.submissions, id)
	return nil
}

func (s *Store) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.forms {
		if f.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ReplaceFields(_ context.Context, formID string, fields []field.Definition) ([]field.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReplaceFields != nil {
		return nil, s.FailReplaceFields
	}
	out := make([]field.Definition, len(fields))
	for i, f := range fields {
		d := f.Clone()
		d.PersistedID = uuid.NewString()
		if d.ID == "" {
			d.ID = d.PersistedID
		}
		out[i] = d
	}
	s.fields[formID] = out
	return cloneFields(out), nil
}

func (s *Store) GetFields(_ context.Context, formID string) ([]field.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := cloneFields(s.fields[formID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Store) CreateSubmission(_ context.Context, formID string, data map[string]any) (store.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := store.Submission{
		ID:          uuid.NewString(),
		FormID:      formID,
		SubmittedAt: time.Now().UTC(),
		Data:        data,
	}
	s.submissions[formID] = append(s.submissions[formID], sub)
	return sub, nil
}

func (s *Store) ListSubmissions(_ context.Context, formID string) ([]store.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.submissions[formID]
	out := make([]store.Submission, len(src))
	for i := range src {
		out[i] = src[len(src)-1-i]
	}
	return out, nil
}

func cloneFields(in []field.Definition) []field.Definition {
	out := make([]field.Definition, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}
