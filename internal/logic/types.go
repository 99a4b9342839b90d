// Package logic contains pure business logic for ECG stream handling.
// This package has NO external dependencies (no serial, Bluetooth, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Display configuration. Fixed in the reference hardware.
const (
	SweepWindowPoints = 250 // width of one sweep (number of points)
	YMin              = 0
	YMax              = 4095 // 12-bit ADC full scale
)

// ConnectionState is the lifecycle state of the link to the ECG front end.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateConnecting   ConnectionState = "CONNECTING"
	StateConnected    ConnectionState = "CONNECTED"
	StateFailed       ConnectionState = "FAILED"
)

// Rhythm is a coarse heart-rate classification.
type Rhythm string

const (
	RhythmNoSignal    Rhythm = "NO_SIGNAL"
	RhythmBradycardia Rhythm = "BRADYCARDIA"
	RhythmNormal      Rhythm = "NORMAL"
	RhythmTachycardia Rhythm = "TACHYCARDIA"
)

// EventType represents a state transition event.
type EventType string

const (
	EventConnected     EventType = "CONNECTED"
	EventDisconnected  EventType = "DISCONNECTED"
	EventConnectFailed EventType = "CONNECT_FAILED"
	EventRhythm        EventType = "RHYTHM"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Rhythm    Rhythm
	BPM       int
	Reason    string // connection events only
}

// Sample is one decoded line from the front end.
type Sample struct {
	ECG float32
	BPM int
}

// Counts tracks stream statistics since startup.
type Counts struct {
	Samples      int
	DecodeErrors int
	Connects     int
	Disconnects  int
	RhythmEvents int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
}
