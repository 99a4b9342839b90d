package logic

import "time"

// Button debounces a momentary push-button and reports presses.
type Button struct {
	debounceDuration time.Duration
	stable           bool
	pending          bool
	pendingSince     time.Time
	hasPending       bool
}

// NewButton creates a button debouncer. The button starts released.
func NewButton(debounceDuration time.Duration) *Button {
	return &Button{debounceDuration: debounceDuration}
}

// Process takes a raw reading and returns true exactly once per debounced
// press (released -> pressed transition).
func (b *Button) Process(pressed bool, now time.Time) bool {
	if pressed == b.stable {
		b.hasPending = false
		return false
	}

	if !b.hasPending || b.pending != pressed {
		b.pending = pressed
		b.pendingSince = now
		b.hasPending = true
	}

	if now.Sub(b.pendingSince) < b.debounceDuration {
		return false
	}

	b.stable = pressed
	b.hasPending = false
	return pressed
}
