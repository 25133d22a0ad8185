// Package watch re-runs analysis when the workspace configuration changes.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of change notifications into one callback,
// remembering the most recent path. Editors often write a file several times
// in quick succession; only the settled state matters.
type Debouncer struct {
	window time.Duration
	notify func(path string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// NewDebouncer creates a debouncer with the given settle window.
func NewDebouncer(window time.Duration, notify func(path string)) *Debouncer {
	return &Debouncer{
		window: window,
		notify: notify,
	}
}

// Trigger records the changed path and resets the settle timer. The callback
// fires with the last recorded path once the window elapses with no further
// triggers.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = path
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		settled := d.pending
		d.mu.Unlock()
		d.notify(settled)
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
