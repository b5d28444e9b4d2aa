package annotate

import (
	"sync"
	"time"
)

// Deferred is a single-slot debounced task: scheduling replaces any pending
// run, so a burst of calls coalesces into one execution after a quiet
// period. Stop cancels any pending run permanently; a stopped Deferred
// ignores further scheduling, which keeps torn-down sessions from acting on
// a destroyed renderer.
type Deferred struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	stopped bool
}

func NewDeferred(delay time.Duration) *Deferred {
	return &Deferred{delay: delay}
}

// Schedule queues fn to run after the quiet period, replacing any pending
// task.
func (d *Deferred) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

// Stop cancels any pending task and rejects future scheduling.
func (d *Deferred) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
