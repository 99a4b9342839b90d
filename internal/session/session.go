// Package session runs the background read loop of one connection: raw
// bytes from a source are framed into lines, decoded, and handed to the
// consumer in order over a channel.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/ecg-monitor/internal/frame"
	"github.com/sweeney/ecg-monitor/internal/logic"
	"github.com/sweeney/ecg-monitor/internal/source"
)

// ErrTransportRead wraps any error returned by the source.
var ErrTransportRead = errors.New("transport read failed")

// Defaults for Config fields left at zero.
const (
	DefaultReadSize     = 1024
	DefaultPollInterval = 5 * time.Millisecond
	DefaultMaxLineBytes = 4096
	DefaultQueueSize    = 256
)

// Config tunes the read loop.
type Config struct {
	ReadSize     int           // bytes per Read call
	PollInterval time.Duration // wait when the source has no data
	MaxLineBytes int           // discard buffered bytes past this without a newline
	QueueSize    int           // event channel capacity
}

func (c Config) withDefaults() Config {
	if c.ReadSize <= 0 {
		c.ReadSize = DefaultReadSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}

// Event is delivered once per extracted line, in stream order.
// Err is nil for a decoded sample, or a *logic.DecodeError for a malformed line.
type Event struct {
	Line   string
	Sample logic.Sample
	Err    error
}

// Session owns one connection's source and line buffer.
type Session struct {
	src    source.Source
	cfg    Config
	framer *frame.Framer
	events chan Event
	done   chan struct{}
	err    error
}

// New creates a session reading from src. Call Start to begin reading.
func New(src source.Source, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		src:    src,
		cfg:    cfg,
		framer: frame.New(),
		events: make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the read loop. It stops when ctx is cancelled or the
// source fails; Events is then closed and Err reports why.
func (s *Session) Start(ctx context.Context) {
	go func() {
		s.err = s.run(ctx)
		// done before events: a consumer that sees Events closed can read Err.
		close(s.done)
		close(s.events)
	}()
}

// Events returns the ordered event stream. It is closed when the loop ends.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed after the read loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error once Done is closed: nil after
// cancellation, or an error wrapping ErrTransportRead.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Source returns the underlying byte source.
func (s *Session) Source() source.Source {
	return s.src
}

func (s *Session) run(ctx context.Context) error {
	buf := make([]byte, s.cfg.ReadSize)
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if !s.src.Available() {
			select {
			case <-ctx.Done():
				return nil
			case <-poll.C:
			}
			continue
		}

		n, err := s.src.Read(buf)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransportRead, err)
		}
		if n == 0 {
			continue
		}

		s.framer.Append(buf[:n])
		for {
			line, ok := s.framer.Next()
			if !ok {
				break
			}
			if !s.deliver(ctx, decode(line)) {
				return nil
			}
		}

		if s.framer.Buffered() > s.cfg.MaxLineBytes {
			log.Printf("session: %d bytes without newline, discarding", s.framer.Buffered())
			s.framer.Reset()
		}
	}
}

// deliver hands ev to the consumer, blocking while the queue is full.
// It returns false if ctx was cancelled first.
func (s *Session) deliver(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func decode(line string) Event {
	sample, err := logic.Decode(line)
	return Event{Line: line, Sample: sample, Err: err}
}
