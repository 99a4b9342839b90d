// Package status provides a thread-safe view of monitor state for the HTTP
// handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ecg-monitor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Port        string
	Baud        int
	BLE         string // BLE device address (empty = serial transport)
	Broker      string
	HTTPPort    string
	TickMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	ButtonPin   int // -1 = no button
}

// Transport describes the configured link.
func (c Config) Transport() string {
	if c.BLE != "" {
		return "ble"
	}
	return "serial"
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type: the Sweep slice is owned by the snapshot.
type Snapshot struct {
	State         logic.ConnectionState
	BPM           int
	Rhythm        logic.Rhythm
	Counts        logic.Counts
	Sweep         []logic.Point
	WriteHead     int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateDisconnected,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the connection state, heart rate and stream statistics.
// Called from runLoop on every tick.
func (t *Tracker) Update(state logic.ConnectionState, bpm int, rhythm logic.Rhythm, counts logic.Counts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.BPM = bpm
	t.snap.Rhythm = rhythm
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetSweep stores a copy of the sweep trace. The caller may reuse points.
func (t *Tracker) SetSweep(points []logic.Point, writeHead int) {
	cp := make([]logic.Point, len(points))
	copy(cp, points)

	t.mu.Lock()
	t.snap.Sweep = cp
	t.snap.WriteHead = writeHead
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Sweep != nil {
		s.Sweep = make([]logic.Point, len(t.snap.Sweep))
		copy(s.Sweep, t.snap.Sweep)
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
