package status

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/ecg-monitor/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Port: "/dev/rfcomm0", Baud: 9600, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.State != logic.StateDisconnected {
		t.Errorf("State: got %q, want DISCONNECTED", snap.State)
	}
	if snap.Config.Baud != 9600 {
		t.Errorf("Config.Baud: got %d, want 9600", snap.Config.Baud)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Sweep != nil {
		t.Error("expected no sweep initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.StateConnected, 72, logic.RhythmNormal, logic.Counts{Samples: 300, DecodeErrors: 2})

	snap := tr.Snapshot()
	if snap.State != logic.StateConnected {
		t.Errorf("State: got %q, want CONNECTED", snap.State)
	}
	if snap.BPM != 72 {
		t.Errorf("BPM: got %d, want 72", snap.BPM)
	}
	if snap.Rhythm != logic.RhythmNormal {
		t.Errorf("Rhythm: got %q, want NORMAL", snap.Rhythm)
	}
	if snap.Counts.Samples != 300 || snap.Counts.DecodeErrors != 2 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetSweepCopies(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	pts := []logic.Point{{Index: 0, Value: 100}, {Index: 1, Value: 200}}

	tr.SetSweep(pts, 2)
	pts[0].Value = 999

	snap := tr.Snapshot()
	if snap.Sweep[0].Value != 100 {
		t.Errorf("tracker shares caller's slice: got %v", snap.Sweep[0].Value)
	}
	if snap.WriteHead != 2 {
		t.Errorf("WriteHead: got %d, want 2", snap.WriteHead)
	}

	snap.Sweep[1].Value = 0
	if tr.Snapshot().Sweep[1].Value != 200 {
		t.Error("snapshot shares tracker's slice")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.StateConnected, 80, logic.RhythmNormal, logic.Counts{Samples: 1})

	snap1 := tr.Snapshot()

	tr.Update(logic.StateDisconnected, 0, "", logic.Counts{Samples: 1, Disconnects: 1})

	if snap1.State != logic.StateConnected {
		t.Error("snapshot should be a copy; State was modified")
	}
	if snap1.BPM != 80 {
		t.Error("snapshot should be a copy; BPM was modified")
	}
}

func TestConfigTransport(t *testing.T) {
	if got := (Config{Port: "/dev/rfcomm0"}).Transport(); got != "serial" {
		t.Errorf("serial config: got %q", got)
	}
	if got := (Config{BLE: "AA:BB:CC:DD:EE:FF"}).Transport(); got != "ble" {
		t.Errorf("ble config: got %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		State:         logic.StateConnected,
		BPM:           64,
		Rhythm:        logic.RhythmNormal,
		Counts:        logic.Counts{Samples: 5, DecodeErrors: 1, Connects: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			Port: "/dev/rfcomm0", Baud: 9600, Broker: "tcp://localhost:1883", HTTPPort: ":80",
			TickMs: 20, DebounceMs: 3000, HeartbeatMs: 900000, ButtonPin: -1,
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Connection != "CONNECTED" {
		t.Errorf("Connection: got %q, want CONNECTED", s.Connection)
	}
	if s.BPM != 64 {
		t.Errorf("BPM: got %d, want 64", s.BPM)
	}
	if s.Rhythm != "NORMAL" {
		t.Errorf("Rhythm: got %q, want NORMAL", s.Rhythm)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.Samples != 5 || s.Counts.DecodeErrors != 1 || s.Counts.Connects != 1 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Config.Transport != "serial" || s.Config.Port != "/dev/rfcomm0" || s.Config.Baud != 9600 {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Config.ButtonPin != -1 {
		t.Errorf("ButtonPin: got %d, want -1", s.Config.ButtonPin)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected no event/reason for web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONBLEOmitsSerialFields(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
		Config:    Config{Port: "/dev/rfcomm0", Baud: 9600, BLE: "AA:BB:CC:DD:EE:FF"},
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	cfg := raw["status"]["config"].(map[string]interface{})
	if cfg["transport"] != "ble" {
		t.Errorf("transport: got %v", cfg["transport"])
	}
	if _, ok := cfg["port"]; ok {
		t.Error("port should be omitted for BLE")
	}
	if _, ok := cfg["baud"]; ok {
		t.Error("baud should be omitted for BLE")
	}
}

func TestFormatJSONUnknownRhythm(t *testing.T) {
	snap := Snapshot{
		State:     logic.StateDisconnected,
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Rhythm != "UNKNOWN" {
		t.Errorf("Rhythm: got %q, want UNKNOWN", parsed.Status.Rhythm)
	}
	if parsed.Status.Connection != "DISCONNECTED" {
		t.Errorf("Connection: got %q, want DISCONNECTED", parsed.Status.Connection)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		State:     logic.StateConnected,
		BPM:       55,
		Rhythm:    logic.RhythmBradycardia,
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Rhythm != "BRADYCARDIA" {
		t.Errorf("Rhythm: got %q, want BRADYCARDIA", parsed.Status.Rhythm)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 30, 0, 0, time.UTC),
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event %q reason %q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatSweepJSON(t *testing.T) {
	nan := float32(math.NaN())
	snap := Snapshot{
		BPM: 70,
		Sweep: []logic.Point{
			{Index: 0, Value: 1000},
			{Index: 1, Value: 2048.5},
			{Index: 2, Value: nan},
			{Index: 3, Value: nan},
		},
		WriteHead: 2,
	}

	data := FormatSweepJSON(snap, logic.YMin, logic.YMax)

	want := `{"sweep":{"write_head":2,"y_min":0,"y_max":4095,"bpm":70,"values":[1000,2048.5,null,null]}}`
	if string(data) != want {
		t.Errorf("sweep JSON:\ngot  %s\nwant %s", data, want)
	}
}

func TestFormatSweepJSONEmpty(t *testing.T) {
	data := FormatSweepJSON(Snapshot{}, logic.YMin, logic.YMax)

	var parsed SweepJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(parsed.Sweep.Values) != 0 {
		t.Errorf("expected no values, got %d", len(parsed.Sweep.Values))
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	pts := make([]logic.Point, logic.SweepWindowPoints)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.StateConnected, 60+i%40, logic.RhythmNormal, logic.Counts{Samples: i})
			tr.SetSweep(pts, i%logic.SweepWindowPoints)
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
