package match

import (
	"sync"
	"time"
)

// TurnTimer is the re-armable inactivity timer owned by a match. The
// expiry callback fires at most once; Rearm and Stop after expiry are safe
// no-ops, as is a pending fire after Stop. The timer never decides what a
// timeout means; the callback is supplied by the lobby.
type TurnTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
	armed    bool
	stopped  bool
	fired    bool
}

// NewTurnTimer returns an unarmed timer.
func NewTurnTimer() *TurnTimer {
	return &TurnTimer{}
}

// Arm starts the timer with the given duration and expiry callback.
// Arming an already armed timer is a no-op.
func (t *TurnTimer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.armed || t.stopped {
		return
	}
	t.armed = true
	t.duration = d
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.stopped || t.fired {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()
		fn()
	})
}

// Rearm pushes the expiry out by the full duration again. No-op on an
// unarmed, stopped or already-expired timer.
func (t *TurnTimer) Rearm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armed || t.stopped || t.fired {
		return
	}
	t.timer.Reset(t.duration)
}

// Stop durably disarms the timer. A fire already in flight becomes a
// no-op. Stop is idempotent.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
