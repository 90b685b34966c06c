// Package presence tracks ephemeral signals: who is typing where. Typing
// state is never reconciled against server snapshots; a signal is only
// superseded by a newer one for the same key or expired by a local timer.
package presence

import (
	"sync"
	"time"
)

// DefaultDecay is how long a typing indicator stays visible after the
// last signal.
const DefaultDecay = 1200 * time.Millisecond

type signal struct {
	author string
	seq    uint64
	timer  *time.Timer
}

// Tracker holds per-thread typing indicators keyed by thread identifier
// (or the global composer key).
type Tracker struct {
	mu       sync.Mutex
	self     string
	decay    time.Duration
	signals  map[string]*signal
	seq      uint64
	onChange func(key string)
}

// NewTracker creates a tracker. Signals authored by self are suppressed:
// the local user's own typing is never rendered back to them. A decay of
// zero means DefaultDecay.
func NewTracker(self string, decay time.Duration) *Tracker {
	if decay <= 0 {
		decay = DefaultDecay
	}
	return &Tracker{
		self:    self,
		decay:   decay,
		signals: make(map[string]*signal),
	}
}

// OnChange registers a hook fired whenever the typist for a key changes,
// including expiry.
func (t *Tracker) OnChange(fn func(key string)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// RecordTyping records that author is typing under key, superseding any
// prior unexpired signal for the same key and restarting the decay timer.
// The superseded signal's timer is cancelled so it cannot clear the newer
// indicator early.
func (t *Tracker) RecordTyping(key, author string) {
	if author == "" || author == t.self {
		return
	}

	t.mu.Lock()
	if prev, ok := t.signals[key]; ok {
		prev.timer.Stop()
	}
	t.seq++
	seq := t.seq
	sig := &signal{author: author, seq: seq}
	sig.timer = time.AfterFunc(t.decay, func() { t.expire(key, seq) })
	t.signals[key] = sig
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(key)
	}
}

// expire clears the signal for key, but only if it is still the one the
// firing timer belongs to.
func (t *Tracker) expire(key string, seq uint64) {
	t.mu.Lock()
	sig, ok := t.signals[key]
	if !ok || sig.seq != seq {
		t.mu.Unlock()
		return
	}
	delete(t.signals, key)
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(key)
	}
}

// Typist returns who is currently typing under key, if anyone.
func (t *Tracker) Typist(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sig, ok := t.signals[key]
	if !ok {
		return "", false
	}
	return sig.author, true
}

// Stop cancels all pending decay timers.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, sig := range t.signals {
		sig.timer.Stop()
		delete(t.signals, key)
	}
}
