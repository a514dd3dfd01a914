package scheduler

import (
	"sync"
	"time"
)

// Deferrer runs deferred actions keyed by reminder id.
type Deferrer interface {
	// After schedules fn to run once after delay, replacing a pending action with the same key.
	After(key int64, delay time.Duration, fn func())
	// Stop cancels every pending action; later After calls are ignored.
	Stop()
}

// TimerDeferrer keeps one time.Timer per key.
type TimerDeferrer struct {
	mu      sync.Mutex
	timers  map[int64]*time.Timer
	stopped bool
}

// NewTimerDeferrer creates an empty TimerDeferrer.
func NewTimerDeferrer() *TimerDeferrer {
	return &TimerDeferrer{timers: make(map[int64]*time.Timer)}
}

// After implements Deferrer.
func (d *TimerDeferrer) After(key int64, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if old, ok := d.timers[key]; ok {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.timers[key] == timer {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = timer
}

// Pending is the number of scheduled actions that haven't fired yet.
func (d *TimerDeferrer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop implements Deferrer.
func (d *TimerDeferrer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
