// internal/form/service.go
//
// Form service: owner-facing CRUD, publishing, duplication, and the
// builder's load and save hooks.
//
// Context
// -------
// Handlers in components/forms are thin.  They decode a request, call one
// Service method with the authenticated owner id, and map the returned
// error.  Every method that touches a form first loads it through
// store.GetForm with the owner, so a foreign form is indistinguishable from
// a missing one (ErrNotFound).
//
// Workflow
// --------
// • Create sanitizes the title and description, derives a slug with
//   routing.MakeSlug, and falls back to a suffixed slug on collision.
// • Update merges settings key by key and replaces the field list
//   wholesale.  Labels, placeholders, options, and help text are sanitized
//   before storage.
// • SetStatus refuses to publish a form without fields.
// • Duplicate copies title, settings, and fields into a new draft.  A
//   failed field copy is logged and the copy is still returned.
//
// Notes
// -----
// • Key collisions and forward condition references are not errors.  They
//   come back as Warnings on Detail so the builder can show them.
// • Oxford commas, two spaces after periods.
package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept-forms/internal/builder"
	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/logger"
	"github.com/yanizio/adept-forms/internal/ratelimit"
	"github.com/yanizio/adept-forms/internal/routing"
	"github.com/yanizio/adept-forms/internal/sanitize"
	"github.com/yanizio/adept-forms/internal/schema"
	"github.com/yanizio/adept-forms/internal/store"
	"github.com/yanizio/adept-forms/internal/visibility"
)

// DefaultMinFillTime is how fast a human can plausibly fill a rendered form.
const DefaultMinFillTime = 2 * time.Second

// Options wires a Service's collaborators.  Nil members disable the
// feature they back.
type Options struct {
	Limiter     ratelimit.Limiter
	Hooks       Queue
	CSRF        *TokenSigner
	MinFillTime time.Duration
	Now         func() time.Time
}

// Service implements form management and public submission.
type Service struct {
	store   store.Store
	limiter ratelimit.Limiter
	hooks   Queue
	csrf    *TokenSigner
	minFill time.Duration
	now     func() time.Time

	sfg singleflight.Group // public slug lookups
}

// NewService builds a Service over st.
func NewService(st store.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MinFillTime <= 0 {
		opts.MinFillTime = DefaultMinFillTime
	}
	return &Service{
		store:   st,
		limiter: opts.Limiter,
		hooks:   opts.Hooks,
		csrf:    opts.CSRF,
		minFill: opts.MinFillTime,
		now:     opts.Now,
	}
}

// CSRF returns the token signer, or nil when none is configured.
func (s *Service) CSRF() *TokenSigner { return s.csrf }

// Detail is a form with its ordered fields.
type Detail struct {
	store.Form
	Fields   []field.Definition `json:"fields"`
	Warnings []string           `json:"warnings,omitempty"`
}

/*──────────────────────────── read ────────────────────────────*/

// List returns the owner's forms, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]store.Form, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	forms, err := s.store.ListForms(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	if forms == nil {
		forms = []store.Form{}
	}
	return forms, nil
}

// Get returns one owned form with its fields.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Detail, error) {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Detail{}, err
	}
	fields, err := s.store.GetFields(ctx, f.ID)
	if err != nil {
		return Detail{}, fmt.Errorf("get fields: %w", err)
	}
	return detail(f, fields), nil
}

// Submissions lists an owned form's submissions, newest first.
func (s *Service) Submissions(ctx context.Context, ownerID, id string) ([]store.Submission, error) {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubmissions(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	return subs, nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (store.Form, error) {
	if ownerID == "" {
		return store.Form{}, ErrUnauthorized
	}
	f, err := s.store.GetForm(ctx, id, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Form{}, ErrNotFound
	}
	if err != nil {
		return store.Form{}, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

/*──────────────────────────── write ────────────────────────────*/

// Create stores a new draft form with default settings and no fields.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (store.Form, error) {
	if ownerID == "" {
		return store.Form{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return store.Form{}, err
	}
	title := sanitize.Text(in.Title)
	f, err := s.insert(ctx, store.Form{
		OwnerID:     ownerID,
		Title:       title,
		Description: sanitize.Text(in.Description),
		Status:      store.StatusDraft,
		Settings:    store.DefaultSettings(),
	}, routing.MakeSlug(title))
	if err != nil {
		return store.Form{}, err
	}
	logger.FromContext(ctx).Infow("form created", "form", f.ID, "slug", f.Slug, "owner", ownerID)
	return f, nil
}

// insert picks a free slug from base and creates f.  A slug taken between
// the check and the insert gets one suffixed retry.
func (s *Service) insert(ctx context.Context, f store.Form, base string) (store.Form, error) {
	slug, err := routing.UniqueSlug(ctx, base, s.store.SlugExists)
	if err != nil {
		return store.Form{}, fmt.Errorf("check slug: %w", err)
	}
	f.Slug = slug
	out, err := s.store.CreateForm(ctx, f)
	if errors.Is(err, store.ErrSlugTaken) {
		f.Slug = routing.Suffixed(base, s.now())
		out, err = s.store.CreateForm(ctx, f)
	}
	if err != nil {
		return store.Form{}, fmt.Errorf("create form: %w", err)
	}
	return out, nil
}

// Update applies a partial update to an owned form.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (Detail, error) {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Detail{}, err
	}
	if err := in.validate(); err != nil {
		return Detail{}, err
	}

	var patch store.FormPatch
	if in.Title != nil {
		t := sanitize.Text(*in.Title)
		patch.Title = &t
	}
	if in.Description != nil {
		d := sanitize.Text(*in.Description)
		patch.Description = &d
	}
	if in.Settings != nil {
		merged, err := f.Settings.Merge(in.Settings)
		if err != nil {
			return Detail{}, invalid(schema.FieldError{Field: "settings", Message: err.Error()})
		}
		if err := ValidateSettings(merged); err != nil {
			return Detail{}, err
		}
		patch.Settings = &merged
	}

	var fields []field.Definition
	if in.Fields != nil {
		fields = prepareFields(*in.Fields)
	} else if in.Status != nil && *in.Status == store.StatusPublished {
		if fields, err = s.store.GetFields(ctx, f.ID); err != nil {
			return Detail{}, fmt.Errorf("get fields: %w", err)
		}
	}
	if in.Status != nil {
		if *in.Status == store.StatusPublished && len(fields) == 0 {
			return Detail{}, ErrUnpublishable
		}
		patch.Status = in.Status
	}

	if in.Fields != nil {
		if fields, err = s.store.ReplaceFields(ctx, f.ID, fields); err != nil {
			return Detail{}, fmt.Errorf("replace fields: %w", err)
		}
	}
	if f, err = s.store.UpdateForm(ctx, f.ID, patch); err != nil {
		return Detail{}, fmt.Errorf("update form: %w", err)
	}
	if in.Fields == nil && fields == nil {
		if fields, err = s.store.GetFields(ctx, f.ID); err != nil {
			return Detail{}, fmt.Errorf("get fields: %w", err)
		}
	}
	logger.FromContext(ctx).Infow("form updated", "form", f.ID, "fields", len(fields))
	return detail(f, fields), nil
}

// SetStatus publishes or unpublishes an owned form.
func (s *Service) SetStatus(ctx context.Context, ownerID, id string, status store.Status) (store.Form, error) {
	if !status.Valid() {
		return store.Form{}, invalid(schema.FieldError{Field: "status", Message: "Status must be draft or published"})
	}
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return store.Form{}, err
	}
	if status == store.StatusPublished {
		fields, err := s.store.GetFields(ctx, f.ID)
		if err != nil {
			return store.Form{}, fmt.Errorf("get fields: %w", err)
		}
		if len(fields) == 0 {
			return store.Form{}, ErrUnpublishable
		}
	}
	f, err = s.store.UpdateForm(ctx, f.ID, store.FormPatch{Status: &status})
	if err != nil {
		return store.Form{}, fmt.Errorf("update status: %w", err)
	}
	logger.FromContext(ctx).Infow("form status changed", "form", f.ID, "status", status)
	return f, nil
}

// Delete removes an owned form with its fields and submissions.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	f, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteForm(ctx, f.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete form: %w", err)
	}
	logger.FromContext(ctx).Infow("form deleted", "form", f.ID, "owner", ownerID)
	return nil
}

// Duplicate copies an owned form into a new draft.
func (s *Service) Duplicate(ctx context.Context, ownerID, id string) (Detail, error) {
	src, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Detail{}, err
	}
	cp, err := s.insert(ctx, store.Form{
		OwnerID:     ownerID,
		Title:       sanitize.Text(src.Title) + " (Copy)",
		Description: src.Description,
		Status:      store.StatusDraft,
		Settings:    src.Settings,
	}, src.Slug+"-copy")
	if err != nil {
		return Detail{}, err
	}

	fields := make([]field.Definition, len(src.Fields))
	for i, d := range src.Fields {
		d = d.Clone()
		d.PersistedID = ""
		fields[i] = d
	}
	saved, err := s.store.ReplaceFields(ctx, cp.ID, fields)
	if err != nil {
		logger.FromContext(ctx).Errorw("duplicate fields copy failed",
			"source", src.ID, "form", cp.ID, "err", err)
		saved = nil
	}
	logger.FromContext(ctx).Infow("form duplicated", "source", src.ID, "form", cp.ID)
	return detail(cp, saved), nil
}

// Export renders an owned form as a YAML document.  The form is returned
// alongside so callers can name the download.
func (s *Service) Export(ctx context.Context, ownerID, id string) (store.Form, []byte, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return store.Form{}, nil, err
	}
	out, err := MarshalDocument(NewDocument(d.Form, d.Fields))
	if err != nil {
		return store.Form{}, nil, fmt.Errorf("export: %w", err)
	}
	return d.Form, out, nil
}

// Import creates a new draft from a YAML document.
func (s *Service) Import(ctx context.Context, ownerID string, data []byte) (Detail, error) {
	if ownerID == "" {
		return Detail{}, ErrUnauthorized
	}
	doc, fields, err := ParseDocument(data)
	if err != nil {
		return Detail{}, err
	}
	if err := (CreateInput{Title: doc.Title, Description: doc.Description}).validate(); err != nil {
		return Detail{}, err
	}
	if err := ValidateFields(fields); err != nil {
		return Detail{}, err
	}
	settings := doc.Settings
	if settings.ThankYouMessage == "" {
		settings.ThankYouMessage = store.DefaultThankYou
	}
	if err := ValidateSettings(settings); err != nil {
		return Detail{}, err
	}

	title := sanitize.Text(doc.Title)
	f, err := s.insert(ctx, store.Form{
		OwnerID:     ownerID,
		Title:       title,
		Description: sanitize.Text(doc.Description),
		Status:      store.StatusDraft,
		Settings:    settings,
	}, routing.MakeSlug(title))
	if err != nil {
		return Detail{}, err
	}
	saved, err := s.store.ReplaceFields(ctx, f.ID, prepareFields(fields))
	if err != nil {
		return Detail{}, fmt.Errorf("import fields: %w", err)
	}
	logger.FromContext(ctx).Infow("form imported", "form", f.ID, "fields", len(saved))
	return detail(f, saved), nil
}

/*──────────────────────────── builder hooks ────────────────────────────*/

// LoadForBuilder satisfies builder.Loader.
func (s *Service) LoadForBuilder(ctx context.Context, formID, ownerID string) (store.Form, []field.Definition, error) {
	d, err := s.Get(ctx, ownerID, formID)
	if err != nil {
		return store.Form{}, nil, err
	}
	return d.Form, d.Fields, nil
}

// SaveSnapshot satisfies builder.Saver.  It writes the snapshot's title,
// description, settings, and fields, returning the stored fields.
func (s *Service) SaveSnapshot(ctx context.Context, formID, ownerID string, snap builder.Snapshot) ([]field.Definition, error) {
	f, err := s.owned(ctx, ownerID, formID)
	if err != nil {
		return nil, err
	}
	title, desc := snap.Title, snap.Description
	if err := (CreateInput{Title: title, Description: desc}).validate(); err != nil {
		return nil, err
	}
	if err := ValidateFields(snap.Fields); err != nil {
		return nil, err
	}
	if err := ValidateSettings(snap.Settings); err != nil {
		return nil, err
	}

	saved, err := s.store.ReplaceFields(ctx, f.ID, prepareFields(snap.Fields))
	if err != nil {
		return nil, fmt.Errorf("replace fields: %w", err)
	}
	title, desc = sanitize.Text(title), sanitize.Text(desc)
	settings := snap.Settings
	if _, err := s.store.UpdateForm(ctx, f.ID, store.FormPatch{
		Title:       &title,
		Description: &desc,
		Settings:    &settings,
	}); err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}
	return saved, nil
}

// Preview validates payload against an unsaved field list.
func Preview(fields []field.Definition, payload map[string]any) (map[string]any, error) {
	return schema.Compile(fields).Validate(payload)
}

/*──────────────────────────── helpers ────────────────────────────*/

// prepareFields sanitizes user-authored text and renumbers orders densely
// by their current order.
func prepareFields(in []field.Definition) []field.Definition {
	out := make([]field.Definition, len(in))
	for i, d := range in {
		out[i] = d.MapText(sanitize.Text)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

func detail(f store.Form, fields []field.Definition) Detail {
	if fields == nil {
		fields = []field.Definition{}
	}
	return Detail{Form: f, Fields: fields, Warnings: Warnings(fields)}
}

// Warnings lists non-fatal problems with a field list: labels that share a
// value key and conditions that point at a later field.
func Warnings(fields []field.Definition) []string {
	var out []string
	for _, c := range field.DuplicateKeys(fields) {
		out = append(out, fmt.Sprintf("fields %s share the answer key %q", strings.Join(c.FieldIDs, ", "), c.Key))
	}
	for _, r := range visibility.ForwardReferences(fields) {
		out = append(out, fmt.Sprintf("field %s depends on field %s, which is not above it", r.FieldID, r.TargetID))
	}
	return out
}
