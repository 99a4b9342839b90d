package logic

import (
	"testing"
	"time"
)

func TestButtonPress(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewButton(50 * time.Millisecond)

	steps := []struct {
		at      time.Duration
		pressed bool
		want    bool
	}{
		{0, false, false},
		{10 * time.Millisecond, true, false},  // bounce starts
		{20 * time.Millisecond, false, false}, // bounce
		{30 * time.Millisecond, true, false},  // pending again
		{70 * time.Millisecond, true, false},  // 40ms held
		{80 * time.Millisecond, true, true},   // 50ms held: press
		{200 * time.Millisecond, true, false}, // still held, no repeat
		{300 * time.Millisecond, false, false},
		{400 * time.Millisecond, false, false}, // released
		{500 * time.Millisecond, true, false},
		{550 * time.Millisecond, true, true}, // second press
	}

	for i, s := range steps {
		if got := b.Process(s.pressed, now.Add(s.at)); got != s.want {
			t.Errorf("step %d (t=%v pressed=%v): got %v, want %v", i, s.at, s.pressed, got, s.want)
		}
	}
}

func TestButtonZeroDebounce(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewButton(0)

	if !b.Process(true, now) {
		t.Error("expected immediate press with zero debounce")
	}
	if b.Process(true, now) {
		t.Error("expected no repeat while held")
	}
	if b.Process(false, now) {
		t.Error("release is not a press")
	}
	if !b.Process(true, now) {
		t.Error("expected second press")
	}
}
