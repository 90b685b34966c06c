package presence

import (
	"sync"
	"time"
)

// DefaultThrottle bounds how often a typing signal is sent per thread.
// The wire behavior the server sees is unchanged; this only trims the
// per-keystroke chatter.
const DefaultThrottle = 750 * time.Millisecond

// Throttle rate-limits outbound typing signals per thread key.
type Throttle struct {
	mu   sync.Mutex
	min  time.Duration
	last map[string]time.Time
	now  func() time.Time
}

// NewThrottle creates a throttle with the given minimum interval between
// sends for the same key. Zero means DefaultThrottle.
func NewThrottle(min time.Duration) *Throttle {
	if min <= 0 {
		min = DefaultThrottle
	}
	return &Throttle{
		min:  min,
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow reports whether a signal for key may be sent now, and records the
// send if so.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.min {
		return false
	}
	t.last[key] = now
	return true
}
