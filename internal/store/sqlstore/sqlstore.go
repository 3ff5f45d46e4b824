// internal/store/sqlstore/sqlstore.go
//
// SQL implementation of store.Store.
//
// Context
// -------
// One schema serves MySQL, Postgres (pgx), and SQLite.  Queries are written
// with "?" placeholders and passed through db.Rebind, so the pgx driver sees
// $1, $2, … while the others keep "?".  JSON bags (settings, field config,
// submission data) are stored as TEXT to stay portable.
//
// Tables
// ------
//
//	forms        id, owner_id, title, slug (unique), status, description,
//	             settings, created_at, updated_at
//	form_fields  id, form_id, client_id, field_type, label, placeholder,
//	             is_required, field_order, config
//	submissions  id, form_id, submitted_at, data
//
// Notes
// -----
// • form_fields.client_id keeps the editor's field ID so conditions that
//   name it still resolve after a reload.  form_fields.id is the persisted
//   ID.
// • Cascades are done explicitly in DeleteForm; SQLite ships with foreign
//   keys off.
// • MySQL DSNs need parseTime=true for timestamp scanning.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

// Store is a store.Store backed by *sqlx.DB.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps db.  Call Migrate once at bootstrap.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ store.Store = (*Store)(nil)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS forms (
		id          VARCHAR(36)  NOT NULL PRIMARY KEY,
		owner_id    VARCHAR(64)  NOT NULL,
		title       VARCHAR(200) NOT NULL,
		slug        VARCHAR(191) NOT NULL UNIQUE,
		status      VARCHAR(16)  NOT NULL,
		description TEXT,
		settings    TEXT         NOT NULL,
		created_at  TIMESTAMP    NOT NULL,
		updated_at  TIMESTAMP    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS form_fields (
		id          VARCHAR(36)  NOT NULL PRIMARY KEY,
		form_id     VARCHAR(36)  NOT NULL,
		client_id   VARCHAR(64)  NOT NULL,
		field_type  VARCHAR(32)  NOT NULL,
		label       TEXT         NOT NULL,
		placeholder TEXT,
		is_required BOOLEAN      NOT NULL,
		field_order INTEGER      NOT NULL,
		config      TEXT         NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id           VARCHAR(36) NOT NULL PRIMARY KEY,
		form_id      VARCHAR(36) NOT NULL,
		submitted_at TIMESTAMP   NOT NULL,
		data         TEXT        NOT NULL
	)`,
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

/*──────────────────────────── forms ────────────────────────────*/

const formCols = `id, owner_id, title, slug, status, description, settings, created_at, updated_at`

type formRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	Title       string         `db:"title"`
	Slug        string         `db:"slug"`
	Status      string         `db:"status"`
	Description sql.NullString `db:"description"`
	Settings    string         `db:"settings"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r formRow) toForm() (store.Form, error) {
	f := store.Form{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Slug:        r.Slug,
		Status:      store.Status(r.Status),
		Description: r.Description.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Settings != "" {
		if err := json.Unmarshal([]byte(r.Settings), &f.Settings); err != nil {
			return f, fmt.Errorf("form %s settings: %w", r.ID, err)
		}
	}
	return f, nil
}

func nullable(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func (s *Store) CreateForm(ctx context.Context, f store.Form) (store.Form, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = store.StatusDraft
	}
	now := s.now()
	f.CreatedAt, f.UpdatedAt = now, now

	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return store.Form{}, err
	}
	q := s.db.Rebind(`INSERT INTO forms (` + formCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q,
		f.ID, f.OwnerID, f.Title, f.Slug, string(f.Status), nullable(f.Description),
		string(settings), f.CreatedAt, f.UpdatedAt); err != nil {
		return store.Form{}, fmt.Errorf("insert form: %w", err)
	}
	return f, nil
}

func (s *Store) getOne(ctx context.Context, where string, args ...any) (store.Form, error) {
	var r formRow
	q := s.db.Rebind(`SELECT ` + formCols + ` FROM forms WHERE ` + where + ` LIMIT 1`)
	if err := s.db.GetContext(ctx, &r, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Form{}, store.ErrNotFound
		}
		return store.Form{}, err
	}
	return r.toForm()
}

func (s *Store) GetForm(ctx context.Context, id, ownerID string) (store.Form, error) {
	return s.getOne(ctx, `id = ? AND owner_id = ?`, id, ownerID)
}

func (s *Store) GetFormBySlug(ctx context.Context, slug string) (store.Form, error) {
	return s.getOne(ctx, `slug = ?`, slug)
}

func (s *Store) ListForms(ctx context.Context, ownerID string) ([]store.Form, error) {
	var rows []formRow
	q := s.db.Rebind(`SELECT ` + formCols + ` FROM forms WHERE owner_id = ? ORDER BY created_at DESC`)
	if err := s.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, err
	}
	out := make([]store.Form, 0, len(rows))
	for _, r := range rows {
		f, err := r.toForm()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) UpdateForm(ctx context.Context, id string, p store.FormPatch) (store.Form, error) {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullable(*p.Description))
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.Settings != nil {
		raw, err := json.Marshal(*p.Settings)
		if err != nil {
			return store.Form{}, err
		}
		sets = append(sets, "settings = ?")
		args = append(args, string(raw))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now(), id)

	q := s.db.Rebind(`UPDATE forms SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return store.Form{}, fmt.Errorf("update form: %w", err)
	}
	return s.getOne(ctx, `id = ?`, id)
}

func (s *Store) DeleteForm(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM submissions WHERE form_id = ?`), id); err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM form_fields WHERE form_id = ?`), id); err != nil {
		return fmt.Errorf("delete fields: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM forms WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	q := s.db.Rebind(`SELECT COUNT(*) FROM forms WHERE slug = ?`)
	if err := s.db.GetContext(ctx, &n, q, slug); err != nil {
		return false, err
	}
	return n > 0, nil
}

/*──────────────────────────── fields ────────────────────────────*/

const fieldCols = `id, form_id, client_id, field_type, label, placeholder, is_required, field_order, config`

type fieldRow struct {
	ID          string         `db:"id"`
	FormID      string         `db:"form_id"`
	ClientID    string         `db:"client_id"`
	Type        string         `db:"field_type"`
	Label       string         `db:"label"`
	Placeholder sql.NullString `db:"placeholder"`
	Required    bool           `db:"is_required"`
	Order       int            `db:"field_order"`
	Config      string         `db:"config"`
}

func (r fieldRow) toDefinition() (field.Definition, error) {
	t := field.Type(r.Type)
	if !t.Valid() {
		return field.Definition{}, fmt.Errorf("field %s: unknown type %q", r.ID, r.Type)
	}
	var bag field.Bag
	if r.Config != "" {
		if err := json.Unmarshal([]byte(r.Config), &bag); err != nil {
			return field.Definition{}, fmt.Errorf("field %s config: %w", r.ID, err)
		}
	}
	// Columns win over the bag copies.
	bag.Required = r.Required
	bag.Placeholder = r.Placeholder.String

	id := r.ClientID
	if id == "" {
		id = r.ID
	}
	return field.Definition{
		ID:          id,
		PersistedID: r.ID,
		Type:        t,
		Label:       r.Label,
		Order:       r.Order,
	}.WithBag(bag), nil
}

func (s *Store) ReplaceFields(ctx context.Context, formID string, fields []field.Definition) ([]field.Definition, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM form_fields WHERE form_id = ?`), formID); err != nil {
		return nil, fmt.Errorf("delete fields: %w", err)
	}

	ins := tx.Rebind(`INSERT INTO form_fields (` + fieldCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	out := make([]field.Definition, len(fields))
	for i, f := range fields {
		cfg, err := json.Marshal(f.Bag())
		if err != nil {
			return nil, err
		}
		pid := uuid.NewString()
		if _, err := tx.ExecContext(ctx, ins,
			pid, formID, f.ID, string(f.Type), f.Label, nullable(f.Placeholder),
			f.Required, f.Order, string(cfg)); err != nil {
			return nil, fmt.Errorf("insert field %d: %w", i, err)
		}
		d := f.Clone()
		d.PersistedID = pid
		if d.ID == "" {
			d.ID = pid
		}
		out[i] = d
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetFields(ctx context.Context, formID string) ([]field.Definition, error) {
	var rows []fieldRow
	q := s.db.Rebind(`SELECT ` + fieldCols + ` FROM form_fields WHERE form_id = ? ORDER BY field_order ASC`)
	if err := s.db.SelectContext(ctx, &rows, q, formID); err != nil {
		return nil, err
	}
	out := make([]field.Definition, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDefinition()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

/*──────────────────────────── submissions ────────────────────────────*/

type submissionRow struct {
	ID          string    `db:"id"`
	FormID      string    `db:"form_id"`
	SubmittedAt time.Time `db:"submitted_at"`
	Data        string    `db:"data"`
}

func (s *Store) CreateSubmission(ctx context.Context, formID string, data map[string]any) (store.Submission, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return store.Submission{}, err
	}
	sub := store.Submission{ID: uuid.NewString(), FormID: formID, SubmittedAt: s.now(), Data: data}
	q := s.db.Rebind(`INSERT INTO submissions (id, form_id, submitted_at, data) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, sub.ID, sub.FormID, sub.SubmittedAt, string(raw)); err != nil {
		return store.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, formID string) ([]store.Submission, error) {
	var rows []submissionRow
	q := s.db.Rebind(`SELECT id, form_id, submitted_at, data FROM submissions WHERE form_id = ? ORDER BY submitted_at DESC`)
	if err := s.db.SelectContext(ctx, &rows, q, formID); err != nil {
		return nil, err
	}
	out := make([]store.Submission, 0, len(rows))
	for _, r := range rows {
		sub := store.Submission{ID: r.ID, FormID: r.FormID, SubmittedAt: r.SubmittedAt}
		if err := json.Unmarshal([]byte(r.Data), &sub.Data); err != nil {
			return nil, fmt.Errorf("submission %s data: %w", r.ID, err)
		}
		out = append(out, sub)
	}
	return out, nil
}
