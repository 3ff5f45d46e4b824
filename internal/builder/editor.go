// internal/builder/editor.go
//
// Field collection editor.
//
// Context
// -------
// The Editor owns one form's in-progress field list.  It keeps the list
// sorted by Order with Order equal to the slice index, so after any
// operation the orders are exactly 0..N-1.  Every mutation marks the
// editor dirty and bumps a revision counter; a save clears dirty only if no
// edit landed after its snapshot was taken.
//
// Operations
// ----------
//   - Add(type, at)      insert a defaulted field, shifting order >= at up.
//   - Update(id, patch)  shallow merge; unknown id is a no-op.
//   - Delete(id)         remove and shift later fields down.
//   - Duplicate(id)      clone with a new ID right after the source.
//   - Reorder(from, to)  array move, then renumber by position.
//
// Notes
// -----
// • Editor is not safe for concurrent use.  Session serialises access.
// • Nothing here touches the store.  Persistence happens via Snapshot and
//   the AutoSaver.
package builder

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

// ErrUnknownType is returned by Add for a type outside the catalog.
var ErrUnknownType = errors.New("unknown field type")

// DefaultTitle names a form nobody has titled yet.
const DefaultTitle = "Untitled Form"

// Patch is a partial field update.  Config is merged key by key into the
// field's configuration bag; the other members replace when non-nil.
type Patch struct {
	Label       *string        `json:"label,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Placeholder *string        `json:"placeholder,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// Snapshot is a deep copy of the editor's savable state.
type Snapshot struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Settings    store.Settings     `json:"settings"`
	Fields      []field.Definition `json:"fields"`
	Revision    uint64             `json:"revision"`
}

// State is Snapshot plus the editor-only flags, for clients.
type State struct {
	Snapshot
	Selected  string     `json:"selectedFieldId,omitempty"`
	Dirty     bool       `json:"hasUnsavedChanges"`
	LastSaved *time.Time `json:"lastSaved,omitempty"`
}

// Editor holds one form's field list and metadata while it is edited.
type Editor struct {
	fields      []field.Definition
	selected    string
	dirty       bool
	lastSaved   time.Time
	rev         uint64
	title       string
	description string
	settings    store.Settings

	newID func() string
}

// NewEditor returns an empty editor.  newID may be nil.
func NewEditor(newID func() string) *Editor {
	if newID == nil {
		newID = field.NewID
	}
	return &Editor{title: DefaultTitle, settings: store.DefaultSettings(), newID: newID}
}

// Load replaces the whole state from stored data and leaves the editor
// clean.
func (e *Editor) Load(f store.Form, fields []field.Definition) {
	e.title = f.Title
	e.description = f.Description
	e.settings = f.Settings
	e.fields = normalise(fields)
	e.selected = ""
	e.dirty = false
	e.lastSaved = f.UpdatedAt
}

func (e *Editor) touch() {
	e.dirty = true
	e.rev++
}

// renumber rewrites every Order to its slice index.
func (e *Editor) renumber() {
	for i := range e.fields {
		e.fields[i].Order = i
	}
}

func (e *Editor) indexOf(id string) int {
	for i, f := range e.fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// normalise copies fields, sorts them by Order (stable for ties), and
// renumbers densely.
func normalise(fields []field.Definition) []field.Definition {
	out := make([]field.Definition, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

/*──────────────────────────── operations ────────────────────────────*/

// SetFields replaces the field list, as the text builder does.
func (e *Editor) SetFields(fields []field.Definition) {
	e.fields = normalise(fields)
	if e.selected != "" && e.indexOf(e.selected) < 0 {
		e.selected = ""
	}
	e.touch()
}

// Add inserts a new field of type t at order at, or at the end when at is
// nil.  Out-of-range positions are clamped.  The new field is selected.
func (e *Editor) Add(t field.Type, at *int) (field.Definition, error) {
	if !t.Valid() {
		return field.Definition{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	pos := len(e.fields)
	if at != nil {
		pos = *at
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.fields) {
		pos = len(e.fields)
	}

	d := field.New(t, e.newID(), pos)
	for i := range e.fields {
		if e.fields[i].Order >= pos {
			e.fields[i].Order++
		}
	}
	e.fields = append(e.fields, field.Definition{})
	copy(e.fields[pos+1:], e.fields[pos:])
	e.fields[pos] = d

	e.selected = d.ID
	e.touch()
	return d.Clone(), nil
}

// Update merges p into the field with id.  An unknown id is ignored and
// reports false.  A malformed config patch is an error and changes nothing.
func (e *Editor) Update(id string, p Patch) (bool, error) {
	i := e.indexOf(id)
	if i < 0 {
		return false, nil
	}
	d := e.fields[i]
	if len(p.Config) > 0 {
		merged, err := d.Merge(p.Config)
		if err != nil {
			return false, err
		}
		d = merged
	}
	if p.Label != nil {
		d.Label = *p.Label
	}
	if p.Required != nil {
		d.Required = *p.Required
	}
	if p.Placeholder != nil {
		d.Placeholder = *p.Placeholder
	}
	e.fields[i] = d
	e.touch()
	return true, nil
}

// Delete removes the field with id and closes the gap.  It reports whether
// a field was removed.
func (e *Editor) Delete(id string) bool {
	i := e.indexOf(id)
	if i < 0 {
		return false
	}
	removed := e.fields[i].Order
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	for j := range e.fields {
		if e.fields[j].Order > removed {
			e.fields[j].Order--
		}
	}
	if e.selected == id {
		e.selected = ""
	}
	e.touch()
	return true
}

// Duplicate clones the field with id under a fresh ID and places the copy
// right after the source.  The copy is selected.
func (e *Editor) Duplicate(id string) (field.Definition, bool) {
	i := e.indexOf(id)
	if i < 0 {
		return field.Definition{}, false
	}
	src := e.fields[i]
	d := src.Clone()
	d.ID = e.newID()
	d.PersistedID = ""
	d.Order = src.Order + 1

	for j := range e.fields {
		if e.fields[j].Order > src.Order {
			e.fields[j].Order++
		}
	}
	e.fields = append(e.fields, field.Definition{})
	copy(e.fields[i+2:], e.fields[i+1:])
	e.fields[i+1] = d

	e.selected = d.ID
	e.touch()
	return d.Clone(), true
}

// Reorder moves the field at index from to index to and renumbers.
// Out-of-range indices make it a no-op that reports false.
func (e *Editor) Reorder(from, to int) bool {
	n := len(e.fields)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from != to {
		moved := e.fields[from]
		e.fields = append(e.fields[:from], e.fields[from+1:]...)
		e.fields = append(e.fields, field.Definition{})
		copy(e.fields[to+1:], e.fields[to:])
		e.fields[to] = moved
	}
	e.renumber()
	e.touch()
	return true
}

// Select sets or, with "", clears the selected field.  Unknown ids clear.
func (e *Editor) Select(id string) {
	if id != "" && e.indexOf(id) < 0 {
		id = ""
	}
	e.selected = id
}

// SetTitle changes the form title.
func (e *Editor) SetTitle(title string) {
	e.title = title
	e.touch()
}

// SetDescription changes the form description.
func (e *Editor) SetDescription(desc string) {
	e.description = desc
	e.touch()
}

// UpdateSettings merges patch into the settings.
func (e *Editor) UpdateSettings(patch map[string]any) error {
	s, err := e.settings.Merge(patch)
	if err != nil {
		return err
	}
	e.settings = s
	e.touch()
	return nil
}

/*──────────────────────────── read side ────────────────────────────*/

// Fields returns a deep copy of the field list in order.
func (e *Editor) Fields() []field.Definition {
	out := make([]field.Definition, len(e.fields))
	for i, f := range e.fields {
		out[i] = f.Clone()
	}
	return out
}

// Dirty reports unsaved changes.
func (e *Editor) Dirty() bool { return e.dirty }

// Selected returns the selected field ID, or "".
func (e *Editor) Selected() string { return e.selected }

// Revision increments on every mutation.
func (e *Editor) Revision() uint64 { return e.rev }

// Snapshot copies the savable state.
func (e *Editor) Snapshot() Snapshot {
	return Snapshot{
		Title:       e.title,
		Description: e.description,
		Settings:    e.settings,
		Fields:      e.Fields(),
		Revision:    e.rev,
	}
}

// State returns the snapshot plus editor flags.
func (e *Editor) State() State {
	st := State{Snapshot: e.Snapshot(), Selected: e.selected, Dirty: e.dirty}
	if !e.lastSaved.IsZero() {
		t := e.lastSaved
		st.LastSaved = &t
	}
	return st
}

// MarkSaved records a successful save of the snapshot taken at rev.  Dirty
// clears only when nothing changed since.  saved carries the persisted
// field list so new fields pick up their persisted IDs.
func (e *Editor) MarkSaved(rev uint64, at time.Time, saved []field.Definition) {
	e.lastSaved = at
	byID := make(map[string]string, len(saved))
	for _, f := range saved {
		byID[f.ID] = f.PersistedID
	}
	for i := range e.fields {
		if pid, ok := byID[e.fields[i].ID]; ok && pid != "" {
			e.fields[i].PersistedID = pid
		}
	}
	if rev == e.rev {
		e.dirty = false
	}
}
