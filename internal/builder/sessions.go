// internal/builder/sessions.go
//
// Registry of live builder sessions.
//
// Context
// -------
// A builder session is created the first time an owner opens a form in the
// editor and lives in memory until it goes idle.  Sessions lazily load
// their form and fields through Loader, behind a singleflight barrier so a
// burst of requests for the same form loads it once.  Each session gets a
// SaveFunc bound to its form from Saver.
//
// Eviction follows the same two passes as any bounded in-memory cache:
// sessions idle longer than IdleTTL go first, then the least recently used
// while the map holds more than MaxEntries.  Evicting a session cancels its
// pending auto-save.
//
// Notes
// -----
// • Sessions are keyed by owner and form.  Loader enforces ownership, so a
//   foreign form never enters the map.
// • Oxford commas, two spaces after periods.
package builder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/metrics"
	"github.com/yanizio/adept-forms/internal/store"
)

// Defaults used when RegistryOptions leaves a member zero.
const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultMaxSessions   = 500
	DefaultEvictInterval = time.Minute
)

// Loader fetches an owned form and its ordered fields.
type Loader func(ctx context.Context, formID, ownerID string) (store.Form, []field.Definition, error)

// Saver persists a snapshot for one form.
type Saver func(ctx context.Context, formID, ownerID string, snap Snapshot) ([]field.Definition, error)

// RegistryOptions configures NewSessions.
type RegistryOptions struct {
	Clock         Clock
	AutoSaveDelay time.Duration
	IdleTTL       time.Duration
	MaxEntries    int
	EvictInterval time.Duration
	NewID         func() string
}

// Sessions lazily creates, caches, and evicts editing sessions.
type Sessions struct {
	load Loader
	save Saver
	opts RegistryOptions

	sfg  singleflight.Group
	m    sync.Map // key → *Session
	stop chan struct{}
	once sync.Once
}

// NewSessions builds a registry.  Call Run to start background eviction.
func NewSessions(load Loader, save Saver, opts RegistryOptions) *Sessions {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxSessions
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = DefaultEvictInterval
	}
	return &Sessions{load: load, save: save, opts: opts, stop: make(chan struct{})}
}

func key(formID, ownerID string) string { return ownerID + "/" + formID }

// Get returns the session for (formID, ownerID), loading it on demand.
func (r *Sessions) Get(ctx context.Context, formID, ownerID string) (*Session, error) {
	k := key(formID, ownerID)
	if v, ok := r.m.Load(k); ok {
		s := v.(*Session)
		s.touch()
		return s, nil
	}

	v, err, _ := r.sfg.Do(k, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := r.m.Load(k); ok {
			return v.(*Session), nil
		}
		// Shared by every waiter, so one caller's cancellation must not
		// fail the others.
		f, fields, err := r.load(context.WithoutCancel(ctx), formID, ownerID)
		if err != nil {
			metrics.BuilderSessionLoadErrorsTotal.Inc()
			return nil, err
		}
		save := func(ctx context.Context, snap Snapshot) ([]field.Definition, error) {
			return r.save(ctx, formID, ownerID, snap)
		}
		s := NewSession(f, fields, save, SessionOptions{
			Clock: r.opts.Clock,
			Delay: r.opts.AutoSaveDelay,
			NewID: r.opts.NewID,
		})
		r.m.Store(k, s)
		metrics.BuilderSessionLoadTotal.Inc()
		metrics.ActiveBuilderSessions.Inc()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	s.touch()
	return s, nil
}

// Peek returns a loaded session without loading or touching it.
func (r *Sessions) Peek(formID, ownerID string) (*Session, bool) {
	v, ok := r.m.Load(key(formID, ownerID))
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Drop ends and forgets a session.  It reports whether one existed.
func (r *Sessions) Drop(formID, ownerID string) bool {
	return r.remove(key(formID, ownerID), "closed")
}

// DropForm ends every session of formID, whoever owns it.  Used when a
// form is deleted.
func (r *Sessions) DropForm(formID string) {
	r.m.Range(func(k, v any) bool {
		if v.(*Session).FormID == formID {
			r.remove(k.(string), "form deleted")
		}
		return true
	})
}

// Flush saves every session with unsaved edits.  It returns how many saves
// failed.  Shutdown calls it before Close so pending edits survive.
func (r *Sessions) Flush(ctx context.Context) int {
	failed := 0
	r.m.Range(func(_, v any) bool {
		s := v.(*Session)
		if !s.State().Dirty {
			return true
		}
		if _, err := s.Save(ctx); err != nil {
			failed++
			zap.S().Errorw("builder flush failed", "form", s.FormID, "owner", s.OwnerID, "err", err)
		}
		return true
	})
	return failed
}

// Len counts live sessions.
func (r *Sessions) Len() int {
	n := 0
	r.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (r *Sessions) remove(k, reason string) bool {
	v, ok := r.m.LoadAndDelete(k)
	if !ok {
		return false
	}
	s := v.(*Session)
	dropped := s.Close()
	metrics.ActiveBuilderSessions.Dec()
	zap.S().Infow("builder session ended",
		"form", s.FormID, "owner", s.OwnerID, "reason", reason, "unsaved_dropped", dropped)
	return true
}

// Close stops the evictor and ends every session.
func (r *Sessions) Close() {
	r.once.Do(func() { close(r.stop) })
	r.m.Range(func(k, _ any) bool {
		r.remove(k.(string), "shutdown")
		return true
	})
}

func lastSeen(s *Session) int64 { return atomic.LoadInt64(&s.lastSeen) }
