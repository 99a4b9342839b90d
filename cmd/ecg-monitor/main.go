// Command ecg-monitor reads the ECG front end over Bluetooth, keeps the sweep
// display and heart rate current, and publishes link and rhythm events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/sweeney/ecg-monitor/internal/gpio"
	"github.com/sweeney/ecg-monitor/internal/logic"
	"github.com/sweeney/ecg-monitor/internal/monitor"
	"github.com/sweeney/ecg-monitor/internal/mqtt"
	"github.com/sweeney/ecg-monitor/internal/session"
	"github.com/sweeney/ecg-monitor/internal/source"
	"github.com/sweeney/ecg-monitor/internal/status"
	"github.com/sweeney/ecg-monitor/internal/web"
)

const (
	buttonDebounce = 50 * time.Millisecond
	probeTimeout   = 5 * time.Second
)

type options struct {
	port        string
	baud        int
	ble         string
	broker      string
	httpAddr    string
	tick        time.Duration
	debounce    time.Duration
	heartbeat   time.Duration
	pinButton   int
	maxLine     int
	autoconnect bool
	probe       bool
}

func main() {
	var o options
	flag.StringVar(&o.port, "port", source.DefaultSerialPort, "Serial device bound to the HC-05 (RFCOMM)")
	flag.IntVar(&o.baud, "baud", source.DefaultBaudRate, "Serial baud rate")
	flag.StringVar(&o.ble, "ble", "", "BLE UART device address (overrides -port)")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.DurationVar(&o.tick, "tick", 20*time.Millisecond, "Button poll and status refresh interval")
	flag.DurationVar(&o.debounce, "debounce", 3*time.Second, "How long a rhythm must persist before it is reported")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.IntVar(&o.pinButton, "pin-button", gpio.DefaultPinButton, "BCM pin number for the connect button (-1 to disable)")
	flag.IntVar(&o.maxLine, "max-line", session.DefaultMaxLineBytes, "Discard buffered input past this many bytes without a newline")
	flag.BoolVar(&o.autoconnect, "autoconnect", true, "Connect at startup")
	flag.BoolVar(&o.probe, "probe", false, "Print the first decoded sample and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	dial, err := newDialer(o)
	if err != nil {
		return err
	}
	sessCfg := session.Config{MaxLineBytes: o.maxLine}

	// Probe mode
	if o.probe {
		return probe(context.Background(), dial, sessCfg, os.Stdout)
	}

	// Initialize connect button
	var button gpio.Reader
	if o.pinButton >= 0 {
		r, err := gpio.NewRealReader(o.pinButton)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer r.Close()
		button = r
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(o.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	startTime := time.Now()
	tracker := status.NewTracker(startTime, status.Config{
		Port:        o.port,
		Baud:        o.baud,
		BLE:         o.ble,
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		TickMs:      o.tick.Milliseconds(),
		DebounceMs:  o.debounce.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		ButtonPin:   o.pinButton,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	detector := logic.NewDetector(o.debounce, startTime)
	mon := monitor.New(dial, sessCfg, detector, time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if o.autoconnect {
		connect(ctx, mon, publisher)
	}

	log.Printf("started: transport=%s tick=%v debounce=%v broker=%s heartbeat=%v",
		tracker.Snapshot().Config.Transport(), o.tick, o.debounce, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctx, mon, detector, publisher, publisher, tracker, button, o.heartbeat, time.Now, ticker.C, sigCh)
}

// newDialer picks the transport. BLE needs the host adapter enabled once
// up front; serial opens the device on every connect.
func newDialer(o options) (monitor.Dialer, error) {
	if o.ble != "" {
		adapter := bluetooth.DefaultAdapter
		if err := adapter.Enable(); err != nil {
			return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
		}
		return func(ctx context.Context) (source.Source, error) {
			return source.OpenBLE(adapter, o.ble, source.DefaultBLEBufferSize)
		}, nil
	}
	return func(ctx context.Context) (source.Source, error) {
		return source.OpenSerial(o.port, o.baud)
	}, nil
}

// probe connects once, prints the first decoded sample and disconnects.
func probe(ctx context.Context, dial monitor.Dialer, cfg session.Config, out io.Writer) error {
	src, err := dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	s := session.New(src, cfg)
	s.Start(ctx)
	for ev := range s.Events() {
		if ev.Err != nil {
			log.Printf("probe: %v", ev.Err)
			continue
		}
		fmt.Fprintf(out, "ECG: %g, BPM: %d\n", ev.Sample.ECG, ev.Sample.BPM)
		return nil
	}
	if err := s.Err(); err != nil {
		return err
	}
	return errors.New("no sample received")
}

func runLoop(ctx context.Context, mon *monitor.Monitor, detector *logic.Detector, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, button gpio.Reader, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	btn := logic.NewButton(buttonDebounce)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refreshTracker(tracker, mon, mqttStatus)
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			if ev, ok := mon.Disconnect("shutdown"); ok {
				publishEvent(publisher, ev)
			}
			return nil

		case ev, ok := <-mon.Events():
			if !ok {
				if dev, ok := mon.SessionEnded(); ok {
					publishEvent(publisher, dev)
				}
				continue
			}
			for _, e := range mon.Handle(ev) {
				publishEvent(publisher, e)
			}

		case <-tick:
			t := now()

			if button != nil {
				pressed, err := button.Read()
				if err != nil {
					log.Printf("gpio read error: %v", err)
				} else if btn.Process(pressed, t) {
					log.Printf("button pressed (state=%s)", mon.State())
					ev, err := mon.Toggle(ctx)
					if err != nil {
						log.Printf("toggle: %v", err)
					}
					if ev.Type != "" {
						publishEvent(publisher, ev)
					}
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				refreshTracker(tracker, mon, mqttStatus)
			}

			if hbData := detector.CheckHeartbeat(t, heartbeat); hbData != nil {
				c := mon.Counts()
				log.Printf("heartbeat: uptime=%v state=%s bpm=%d samples=%d decode_errors=%d",
					hbData.Uptime, mon.State(), mon.BPM(), c.Samples, c.DecodeErrors)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// connect performs one connection attempt and publishes its outcome.
func connect(ctx context.Context, mon *monitor.Monitor, publisher mqtt.Publisher) {
	ev, err := mon.Connect(ctx)
	if err != nil {
		log.Printf("connect: %v", err)
	}
	if ev.Type != "" {
		publishEvent(publisher, ev)
	}
}

func publishEvent(publisher mqtt.Publisher, ev logic.Event) {
	switch ev.Type {
	case logic.EventRhythm:
		log.Printf("event: %s (%s, bpm=%d)", ev.Type, ev.Rhythm, ev.BPM)
	case logic.EventConnected:
		log.Printf("event: %s", ev.Type)
	default:
		log.Printf("event: %s (%s)", ev.Type, ev.Reason)
	}
	if err := publisher.Publish(ev); err != nil {
		// Don't crash on publish failure
		log.Printf("publish error: %v", err)
	}
}

func refreshTracker(tracker *status.Tracker, mon *monitor.Monitor, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(mon.State(), mon.BPM(), mon.Rhythm(), mon.Counts())
	pts, head := mon.Sweep()
	tracker.SetSweep(pts, head)
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}
