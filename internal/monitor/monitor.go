// Package monitor owns the connection lifecycle and the presentation state.
// A Monitor is driven from a single goroutine: it is the only consumer of
// session events and the only writer of the sweep display and BPM.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/ecg-monitor/internal/logic"
	"github.com/sweeney/ecg-monitor/internal/session"
	"github.com/sweeney/ecg-monitor/internal/source"
)

// ErrAlreadyConnected is returned by Connect while a session is active.
var ErrAlreadyConnected = errors.New("monitor: already connected")

// stopTimeout bounds how long Disconnect waits for the read loop to exit.
const stopTimeout = time.Second

// Dialer opens a new byte source for a connection.
type Dialer func(ctx context.Context) (source.Source, error)

// Monitor connects to the front end and applies decoded samples.
// Not safe for concurrent use.
type Monitor struct {
	dial     Dialer
	cfg      session.Config
	now      func() time.Time
	detector *logic.Detector

	state   logic.ConnectionState
	display *logic.Display
	sess    *session.Session
	cancel  context.CancelFunc
}

// New creates a disconnected Monitor.
func New(dial Dialer, cfg session.Config, detector *logic.Detector, now func() time.Time) *Monitor {
	return &Monitor{
		dial:     dial,
		cfg:      cfg,
		now:      now,
		detector: detector,
		state:    logic.StateDisconnected,
		display:  logic.NewDisplay(logic.SweepWindowPoints),
	}
}

// Connect dials the source and starts a session. The returned event is
// CONNECTED on success or CONNECT_FAILED with the dial error.
func (m *Monitor) Connect(ctx context.Context) (logic.Event, error) {
	if m.sess != nil {
		return logic.Event{}, ErrAlreadyConnected
	}

	m.state = logic.StateConnecting
	src, err := m.dial(ctx)
	if err != nil {
		m.state = logic.StateFailed
		return logic.Event{
			Timestamp: m.now(),
			Type:      logic.EventConnectFailed,
			Reason:    err.Error(),
		}, fmt.Errorf("connect: %w", err)
	}

	m.display.Reset()
	m.detector.Reset()

	sctx, cancel := context.WithCancel(ctx)
	m.sess = session.New(src, m.cfg)
	m.cancel = cancel
	m.sess.Start(sctx)
	m.state = logic.StateConnected
	m.detector.RecordConnect()

	return logic.Event{Timestamp: m.now(), Type: logic.EventConnected}, nil
}

// Disconnect stops the active session, closes its source and resets the
// display. It returns false if there was no session.
func (m *Monitor) Disconnect(reason string) (logic.Event, bool) {
	if m.sess == nil {
		m.state = logic.StateDisconnected
		return logic.Event{}, false
	}

	m.cancel()
	select {
	case <-m.sess.Done():
	case <-time.After(stopTimeout):
		log.Printf("monitor: read loop did not stop within %v", stopTimeout)
	}
	if err := m.sess.Source().Close(); err != nil {
		log.Printf("monitor: close source: %v", err)
	}

	m.sess = nil
	m.cancel = nil
	m.state = logic.StateDisconnected
	m.display.Reset()
	m.detector.Reset()
	m.detector.RecordDisconnect()

	return logic.Event{
		Timestamp: m.now(),
		Type:      logic.EventDisconnected,
		Reason:    reason,
	}, true
}

// Toggle connects when idle and disconnects when connected, like a
// connect/disconnect button.
func (m *Monitor) Toggle(ctx context.Context) (logic.Event, error) {
	if m.sess != nil {
		ev, _ := m.Disconnect("user")
		return ev, nil
	}
	return m.Connect(ctx)
}

// Events returns the active session's event stream, or nil when
// disconnected (a nil channel blocks forever in a select).
func (m *Monitor) Events() <-chan session.Event {
	if m.sess == nil {
		return nil
	}
	return m.sess.Events()
}

// Handle applies one session event and returns any rhythm events.
// Events are ignored unless connected.
func (m *Monitor) Handle(ev session.Event) []logic.Event {
	if m.state != logic.StateConnected {
		return nil
	}
	if ev.Err != nil {
		m.detector.RecordDecodeError()
		log.Printf("monitor: %v", ev.Err)
		return nil
	}
	m.display.Apply(ev.Sample)
	return m.detector.Process(ev.Sample, m.now())
}

// SessionEnded handles the close of the Events channel. A session only ends
// on its own when the transport fails, which is treated as a disconnect.
func (m *Monitor) SessionEnded() (logic.Event, bool) {
	if m.sess == nil {
		return logic.Event{}, false
	}
	reason := "read failure"
	if err := m.sess.Err(); err != nil {
		log.Printf("monitor: %v", err)
		if source.IsDisconnect(err) {
			reason = "link lost"
		}
	}
	return m.Disconnect(reason)
}

// State returns the connection state.
func (m *Monitor) State() logic.ConnectionState {
	return m.state
}

// BPM returns the most recent BPM, 0 when disconnected.
func (m *Monitor) BPM() int {
	return m.display.BPM()
}

// Sweep returns a copy of the sweep trace and its write head.
func (m *Monitor) Sweep() ([]logic.Point, int) {
	return m.display.Snapshot(), m.display.WriteHead()
}

// Rhythm returns the debounced rhythm, or "" before baseline.
func (m *Monitor) Rhythm() logic.Rhythm {
	return m.detector.CurrentRhythm()
}

// Counts returns stream statistics.
func (m *Monitor) Counts() logic.Counts {
	return m.detector.Counts()
}
