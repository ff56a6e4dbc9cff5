// Package stream serves the live camera feed and rate-limits how often
// qualifying card detections trigger the heavy crop-and-verify path.
package stream

import (
	"sync"
	"time"
)

// Throttle enforces a cooldown between detection attempts. ShouldAttempt
// never touches the timer; only Mark, called on a qualifying detection,
// starts a new cooldown window. A frame with no qualifying detection
// therefore leaves the window where it was.
type Throttle struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time

	// now is swappable for tests
	now func() time.Time
}

// NewThrottle creates a throttle with the given cooldown
func NewThrottle(cooldown time.Duration) *Throttle {
	return &Throttle{
		cooldown: cooldown,
		now:      time.Now,
	}
}

// ShouldAttempt reports whether the cooldown has elapsed and detection may
// run on the current frame. It does not modify the timer.
func (t *Throttle) ShouldAttempt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last.IsZero() || t.now().Sub(t.last) >= t.cooldown
}

// Mark starts a new cooldown window. Call it only for a qualifying
// detection so that empty frames keep detection running at full rate.
func (t *Throttle) Mark() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = t.now()
}
