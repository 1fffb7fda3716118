package game

import (
	"sync"
	"time"
)

// RestartTimer fires a callback after a configurable duration unless stopped.
// It backs the delayed round-restart so a torn-down room can cancel the
// pending attempt. It is safe for concurrent use.
type RestartTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewRestartTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Precondition: duration >= 0; onFire must not be nil.
// Postcondition: Returns a running RestartTimer; onFire will be called unless Stop is called first.
func NewRestartTimer(duration time.Duration, onFire func()) *RestartTimer {
	rt := &RestartTimer{}
	rt.timer = time.AfterFunc(duration, func() {
		rt.mu.Lock()
		stopped := rt.stopped
		rt.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return rt
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onFire will not be called after Stop returns.
func (rt *RestartTimer) Stop() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stopped = true
	rt.timer.Stop()
}
