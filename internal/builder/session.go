// internal/builder/session.go
//
// One editing session: an Editor plus its AutoSaver behind a single mutex.
//
// Context
// -------
// Clients drive the editor by posting batches of Op events.  Session.Apply
// is the dispatcher: it takes the lock, applies the ops in order, and
// schedules an auto-save when anything changed.  Because every structural
// mutation goes through this one lock, add, delete, and reorder never
// interleave.
//
// Notes
// -----
// • A batch stops at the first failing op.  Ops before it stay applied.
// • Select is not an edit and does not schedule a save.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/store"
)

// ErrBadOp marks a malformed or unknown op.
var ErrBadOp = errors.New("invalid builder op")

// Op kinds.
const (
	OpAdd            = "add"
	OpUpdate         = "update"
	OpDelete         = "delete"
	OpDuplicate      = "duplicate"
	OpReorder        = "reorder"
	OpSelect         = "select"
	OpSetFields      = "set_fields"
	OpSetTitle       = "set_title"
	OpSetDescription = "set_description"
	OpUpdateSettings = "update_settings"
)

// Op is one editor event.  Only the members relevant to Kind are read.
type Op struct {
	Kind        string             `json:"op"`
	ID          string             `json:"id,omitempty"`
	Type        field.Type         `json:"type,omitempty"`
	At          *int               `json:"at,omitempty"`
	Patch       *Patch             `json:"patch,omitempty"`
	From        int                `json:"from,omitempty"`
	To          int                `json:"to,omitempty"`
	Fields      []field.Definition `json:"fields,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Settings    map[string]any     `json:"settings,omitempty"`
}

// Session is one owner's live edit of one form.
type Session struct {
	FormID  string
	OwnerID string

	mu    sync.Mutex
	ed    *Editor
	saver *AutoSaver
	clock Clock

	lastSeen int64 // UnixNano, read by the evictor
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	Clock Clock
	Delay time.Duration
	NewID func() string
}

// NewSession loads form and fields into a fresh editor.  save persists
// snapshots for this form.
func NewSession(f store.Form, fields []field.Definition, save SaveFunc, opts SessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultAutoSaveDelay
	}
	s := &Session{
		FormID:  f.ID,
		OwnerID: f.OwnerID,
		ed:      NewEditor(opts.NewID),
		clock:   opts.Clock,
	}
	s.ed.Load(f, fields)
	s.saver = NewAutoSaver(opts.Clock, opts.Delay, save, s.saved)
	s.touch()
	return s
}

func (s *Session) touch() { atomic.StoreInt64(&s.lastSeen, s.clock.Now().UnixNano()) }

// saved runs after every save attempt, outside s.mu.
func (s *Session) saved(snap Snapshot, fields []field.Definition, err error) {
	if err != nil {
		return
	}
	s.mu.Lock()
	s.ed.MarkSaved(snap.Revision, s.clock.Now(), fields)
	s.mu.Unlock()
}

// Apply runs ops in order and schedules an auto-save if the editor
// changed.  It returns the resulting state.
func (s *Session) Apply(ops []Op) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	before := s.ed.Revision()
	var opErr error
	for i, op := range ops {
		if err := s.apply(op); err != nil {
			opErr = fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
			break
		}
	}
	if s.ed.Revision() != before {
		s.saver.Schedule(s.ed.Snapshot())
	}
	return s.ed.State(), opErr
}

func (s *Session) apply(op Op) error {
	switch op.Kind {
	case OpAdd:
		_, err := s.ed.Add(op.Type, op.At)
		return err
	case OpUpdate:
		if op.Patch == nil {
			return fmt.Errorf("%w: update needs a patch", ErrBadOp)
		}
		_, err := s.ed.Update(op.ID, *op.Patch)
		return err
	case OpDelete:
		s.ed.Delete(op.ID)
	case OpDuplicate:
		s.ed.Duplicate(op.ID)
	case OpReorder:
		s.ed.Reorder(op.From, op.To)
	case OpSelect:
		s.ed.Select(op.ID)
	case OpSetFields:
		for _, f := range op.Fields {
			if err := f.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrBadOp, err)
			}
		}
		s.ed.SetFields(op.Fields)
	case OpSetTitle:
		s.ed.SetTitle(op.Title)
	case OpSetDescription:
		s.ed.SetDescription(op.Description)
	case OpUpdateSettings:
		return s.ed.UpdateSettings(op.Settings)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrBadOp, op.Kind)
	}
	return nil
}

// State returns the current editor state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ed.State()
}

// Fields returns the in-progress field list.
func (s *Session) Fields() []field.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ed.Fields()
}

// Save writes the current state now, bypassing the debounce.
func (s *Session) Save(ctx context.Context) (State, error) {
	s.mu.Lock()
	snap := s.ed.Snapshot()
	s.touch()
	s.mu.Unlock()

	if _, err := s.saver.SaveNow(ctx, snap); err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

// AutoSaver exposes the session's saver, mainly for tests and metrics.
func (s *Session) AutoSaver() *AutoSaver { return s.saver }

// Close ends the session.  A pending auto-save is cancelled, not flushed.
func (s *Session) Close() bool { return s.saver.Close() }
