// internal/builder/autosave.go
//
// Debounced auto-save.
//
// Context
// -------
// Every editor mutation hands the AutoSaver a fresh Snapshot through
// Schedule.  Schedule re-arms the debounce timer, so a burst of edits
// produces one save of the last snapshot once the quiet period passes.
//
// At most one save runs at a time.  If the timer fires while a save is in
// flight, the fire is recorded as a trailing save; when the running save
// returns, the newest snapshot is saved next.  Two overlapping writes can
// therefore never land out of order.
//
// Notes
// -----
// • Close cancels a pending (not yet fired) save.  Work scheduled but not
//   saved when a session ends is lost; there is no save-on-exit.
// • SaveNow is the manual "Save" button.  It cancels the pending timer and
//   waits for any in-flight save before writing.
package builder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-forms/internal/field"
	"github.com/yanizio/adept-forms/internal/metrics"
)

// DefaultAutoSaveDelay is the quiet period before an automatic save.
const DefaultAutoSaveDelay = 2 * time.Second

// ErrClosed is returned by SaveNow after Close.
var ErrClosed = errors.New("builder session closed")

// SaveFunc persists a snapshot and returns the stored field list.
type SaveFunc func(ctx context.Context, snap Snapshot) ([]field.Definition, error)

// SavedFunc observes the outcome of every save attempt.
type SavedFunc func(snap Snapshot, saved []field.Definition, err error)

const (
	triggerAuto   = "auto"
	triggerManual = "manual"
)

// AutoSaver coalesces snapshots into serialised saves.
type AutoSaver struct {
	save    SaveFunc
	onSaved SavedFunc
	deb     *Debouncer

	mu       sync.Mutex
	idle     *sync.Cond
	latest   *Snapshot
	inFlight bool
	trailing bool
	closed   bool
}

// NewAutoSaver wires save behind a debouncer of delay on clock c.
// onSaved may be nil.
func NewAutoSaver(c Clock, delay time.Duration, save SaveFunc, onSaved SavedFunc) *AutoSaver {
	if onSaved == nil {
		onSaved = func(Snapshot, []field.Definition, error) {}
	}
	a := &AutoSaver{save: save, onSaved: onSaved}
	a.idle = sync.NewCond(&a.mu)
	a.deb = NewDebouncer(c, delay, a.fire)
	return a
}

// Schedule records snap as the latest state and restarts the quiet period.
func (a *AutoSaver) Schedule(snap Snapshot) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.latest = &snap
	a.mu.Unlock()
	a.deb.Arm()
}

// Pending reports whether a snapshot is waiting to be saved.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest != nil
}

// InFlight reports whether a save is running.
func (a *AutoSaver) InFlight() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// Close cancels any pending save and stops accepting new ones.  It reports
// whether unsaved work was dropped.
func (a *AutoSaver) Close() bool {
	a.deb.Cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	dropped := a.latest != nil
	a.latest = nil
	a.closed = true
	a.idle.Broadcast()
	return dropped
}

func (a *AutoSaver) fire() {
	a.mu.Lock()
	if a.closed || a.latest == nil {
		a.mu.Unlock()
		return
	}
	if a.inFlight {
		a.trailing = true
		a.mu.Unlock()
		return
	}
	a.inFlight = true
	a.mu.Unlock()
	a.run()
}

// run saves the latest snapshot, then keeps going while trailing fires
// arrived during the previous save.
func (a *AutoSaver) run() {
	for {
		a.mu.Lock()
		if a.closed || a.latest == nil {
			a.finish()
			a.mu.Unlock()
			return
		}
		snap := *a.latest
		a.latest = nil
		a.trailing = false
		a.mu.Unlock()

		a.do(context.Background(), snap, triggerAuto)

		a.mu.Lock()
		if !a.trailing {
			a.finish()
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()
	}
}

// finish clears the in-flight flag.  Caller holds a.mu.
func (a *AutoSaver) finish() {
	a.inFlight = false
	a.trailing = false
	a.idle.Broadcast()
}

// SaveNow writes snap immediately, after any in-flight save completes.
// A pending automatic save is superseded.
func (a *AutoSaver) SaveNow(ctx context.Context, snap Snapshot) ([]field.Definition, error) {
	a.deb.Cancel()

	a.mu.Lock()
	for a.inFlight && !a.closed {
		a.idle.Wait()
	}
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	a.inFlight = true
	a.latest = nil
	a.trailing = false
	a.mu.Unlock()

	saved, err := a.do(ctx, snap, triggerManual)

	a.mu.Lock()
	trailing := a.trailing
	a.finish()
	a.mu.Unlock()

	if trailing {
		a.fire()
	}
	return saved, err
}

func (a *AutoSaver) do(ctx context.Context, snap Snapshot, trigger string) ([]field.Definition, error) {
	saved, err := a.save(ctx, snap)
	if err != nil {
		metrics.BuilderSavesTotal.WithLabelValues(trigger, "error").Inc()
		zap.S().Errorw("builder save failed", "trigger", trigger, "revision", snap.Revision, "err", err)
	} else {
		metrics.BuilderSavesTotal.WithLabelValues(trigger, "ok").Inc()
	}
	a.onSaved(snap, saved, err)
	return saved, err
}
