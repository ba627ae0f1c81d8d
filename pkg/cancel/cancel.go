// Package cancel provides the cooperative stop signals polled by a row stream.
//
// A soft cancel ends the stream early and keeps the rows read so far. A hard
// interrupt fails the run. Both flags are sticky and safe to set from any
// goroutine.
package cancel

import (
	"context"
	"sync/atomic"
)

// Monitor holds the two stop flags. The zero value is ready to use.
type Monitor struct {
	cancelled   atomic.Bool
	interrupted atomic.Bool
}

// New returns a monitor with both flags clear.
func New() *Monitor {
	return &Monitor{}
}

// Cancel requests a soft stop.
func (m *Monitor) Cancel() {
	m.cancelled.Store(true)
}

// Interrupt requests a hard stop.
func (m *Monitor) Interrupt() {
	m.interrupted.Store(true)
}

// Cancelled reports whether a soft stop was requested.
func (m *Monitor) Cancelled() bool {
	return m != nil && m.cancelled.Load()
}

// Interrupted reports whether a hard stop was requested.
func (m *Monitor) Interrupted() bool {
	return m != nil && m.interrupted.Load()
}

// WatchContext interrupts m when ctx is done. The returned function stops
// watching and waits for the watcher to exit; call it once the stream is
// closed.
func (m *Monitor) WatchContext(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			m.Interrupt()
		case <-done:
		}
	}()
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			close(done)
		}
		<-exited
	}
}
