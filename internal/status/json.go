package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Connection    string     `json:"connection"`
	BPM           int        `json:"bpm"`
	Rhythm        string     `json:"rhythm"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of stream statistics.
type CountsJSON struct {
	Samples      int `json:"samples"`
	DecodeErrors int `json:"decode_errors"`
	Connects     int `json:"connects"`
	Disconnects  int `json:"disconnects"`
	RhythmEvents int `json:"rhythm_events"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Transport   string `json:"transport"`
	Port        string `json:"port,omitempty"`
	Baud        int    `json:"baud,omitempty"`
	BLE         string `json:"ble,omitempty"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	TickMs      int64  `json:"tick_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	ButtonPin   int    `json:"button_pin"`
}

// SweepJSON is the JSON envelope for the sweep trace.
// Unwritten slots are encoded as null.
type SweepJSON struct {
	Sweep SweepInner `json:"sweep"`
}

// SweepInner contains the trace and its write head.
type SweepInner struct {
	WriteHead int        `json:"write_head"`
	YMin      float32    `json:"y_min"`
	YMax      float32    `json:"y_max"`
	BPM       int        `json:"bpm"`
	Values    []*float32 `json:"values"`
}

func buildInner(snap Snapshot) StatusInner {
	rhythm := string(snap.Rhythm)
	if rhythm == "" {
		rhythm = "UNKNOWN"
	}

	inner := StatusInner{
		Connection:    string(snap.State),
		BPM:           snap.BPM,
		Rhythm:        rhythm,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Samples:      snap.Counts.Samples,
			DecodeErrors: snap.Counts.DecodeErrors,
			Connects:     snap.Counts.Connects,
			Disconnects:  snap.Counts.Disconnects,
			RhythmEvents: snap.Counts.RhythmEvents,
		},
		Config: ConfigJSON{
			Transport:   snap.Config.Transport(),
			BLE:         snap.Config.BLE,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			TickMs:      snap.Config.TickMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			ButtonPin:   snap.Config.ButtonPin,
		},
	}
	if snap.Config.BLE == "" {
		inner.Config.Port = snap.Config.Port
		inner.Config.Baud = snap.Config.Baud
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatSweepJSON returns the sweep trace in slot order.
func FormatSweepJSON(snap Snapshot, yMin, yMax float32) []byte {
	values := make([]*float32, len(snap.Sweep))
	for i, p := range snap.Sweep {
		if math.IsNaN(float64(p.Value)) {
			continue
		}
		v := p.Value
		values[i] = &v
	}

	data, _ := json.Marshal(SweepJSON{Sweep: SweepInner{
		WriteHead: snap.WriteHead,
		YMin:      yMin,
		YMax:      yMax,
		BPM:       snap.BPM,
		Values:    values,
	}})
	return data
}
