package builder

import (
	"sync"
	"time"
)

// Debouncer runs fn once delay has passed without another Arm.  It holds no
// state beyond the pending timer: Arm (re)starts it, Cancel drops it.
type Debouncer struct {
	clock Clock
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewDebouncer returns an idle Debouncer.
func NewDebouncer(c Clock, delay time.Duration, fn func()) *Debouncer {
	if c == nil {
		c = RealClock{}
	}
	return &Debouncer{clock: c, delay: delay, fn: fn}
}

// Arm starts the quiet period again, replacing any pending fire.
func (d *Debouncer) Arm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending fire.  It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	d.gen++
	return stopped
}

// Pending reports whether a fire is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// fire ignores callbacks from timers that were replaced after they had
// already started running.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}
