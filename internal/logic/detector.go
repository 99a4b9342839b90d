package logic

import "time"

// Heart-rate thresholds in beats per minute.
const (
	BradycardiaBelow = 60
	TachycardiaAbove = 100
)

// Classify maps a BPM reading to a rhythm. The front end reports 0 when the
// electrodes are off.
func Classify(bpm int) Rhythm {
	switch {
	case bpm <= 0:
		return RhythmNoSignal
	case bpm < BradycardiaBelow:
		return RhythmBradycardia
	case bpm > TachycardiaAbove:
		return RhythmTachycardia
	default:
		return RhythmNormal
	}
}

// RhythmState tracks debounce state for the rhythm classification.
type RhythmState struct {
	// Current stable (debounced) rhythm
	Stable Rhythm
	// Pending rhythm during debounce
	Pending Rhythm
	// Time when pending rhythm was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Detector tracks the debounced rhythm and stream statistics.
type Detector struct {
	debounceDuration time.Duration
	rhythm           RhythmState
	startTime        time.Time
	counts           Counts
	lastHeartbeat    time.Time
}

// NewDetector creates a new rhythm detector with the given debounce duration.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(debounceDuration time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceDuration: debounceDuration,
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes a decoded sample and returns any events that should be emitted.
// Events are only returned after baseline is established and on rhythm transitions.
func (d *Detector) Process(s Sample, now time.Time) []Event {
	d.counts.Samples++

	r := &d.rhythm
	next := Classify(s.BPM)

	if !r.Baselined {
		if r.Pending != next {
			r.Pending = next
			r.PendingSince = now
		}
		if now.Sub(r.PendingSince) >= d.debounceDuration {
			r.Stable = next
			r.Baselined = true
			r.Pending = ""
		}
		return nil
	}

	if next == r.Stable {
		r.Pending = ""
		return nil
	}

	if r.Pending != next {
		r.Pending = next
		r.PendingSince = now
	}

	if now.Sub(r.PendingSince) < d.debounceDuration {
		return nil
	}

	r.Stable = next
	r.Pending = ""
	d.counts.RhythmEvents++
	return []Event{{
		Timestamp: now,
		Type:      EventRhythm,
		Rhythm:    next,
		BPM:       s.BPM,
	}}
}

// RecordDecodeError counts a malformed line.
func (d *Detector) RecordDecodeError() {
	d.counts.DecodeErrors++
}

// RecordConnect counts a successful connection.
func (d *Detector) RecordConnect() {
	d.counts.Connects++
}

// RecordDisconnect counts a disconnection.
func (d *Detector) RecordDisconnect() {
	d.counts.Disconnects++
}

// Reset forgets the rhythm baseline. Counts survive.
func (d *Detector) Reset() {
	d.rhythm = RhythmState{}
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.rhythm.Baselined
}

// CurrentRhythm returns the stable rhythm, or "" before baseline.
func (d *Detector) CurrentRhythm() Rhythm {
	return d.rhythm.Stable
}

// Counts returns a copy of the stream statistics.
func (d *Detector) Counts() Counts {
	return d.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
	}
}
