package source

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/smallnest/ringbuffer"
	"tinygo.org/x/bluetooth"
)

// Nordic UART Service, as exposed by most BLE serial bridge modules.
var (
	uartService = mustParseUUID("6e400001-b5a3-f393-e0a9-e50e24dcca9e")
	uartTX      = mustParseUUID("6e400003-b5a3-f393-e0a9-e50e24dcca9e") // notify: device -> host
)

var errNotFound = errors.New("not found")

// DefaultBLEBufferSize is the notification queue size in bytes.
const DefaultBLEBufferSize = 4096

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}

// BLESource reads the TX notifications of a BLE UART peripheral.
// Notifications are queued in a ring buffer until Read drains them.
type BLESource struct {
	device bluetooth.Device
	charTx bluetooth.DeviceCharacteristic

	rbuf    *ringbuffer.RingBuffer
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// OpenBLE connects to the peripheral at addr and subscribes to its UART TX
// characteristic.
func OpenBLE(adapter *bluetooth.Adapter, addr string, bufSize int) (*BLESource, error) {
	var mac bluetooth.Address
	if err := mac.UnmarshalText([]byte(addr)); err != nil {
		return nil, fmt.Errorf("parse address %q: %w", addr, err)
	}

	device, err := adapter.Connect(mac, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	svcs, err := device.DiscoverServices([]bluetooth.UUID{uartService})
	if err == nil && len(svcs) == 0 {
		err = errNotFound
	}
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("discover uart service on %s: %w", addr, err)
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{uartTX})
	if err == nil && len(chars) == 0 {
		err = errNotFound
	}
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("discover uart tx characteristic on %s: %w", addr, err)
	}

	s := &BLESource{
		device: device,
		charTx: chars[0],
		rbuf:   ringbuffer.New(bufSize),
	}
	if err := s.charTx.EnableNotifications(s.enqueue); err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("enable tx notifications on %s: %w", addr, err)
	}
	return s, nil
}

// enqueue runs on the Bluetooth stack's callback goroutine.
func (s *BLESource) enqueue(value []byte) {
	n, err := s.rbuf.Write(value)
	if err != nil {
		s.dropped.Add(int64(len(value) - n))
	}
}

// Available reports whether notification bytes are queued.
func (s *BLESource) Available() bool {
	return !s.rbuf.IsEmpty()
}

// Read drains queued notification bytes.
func (s *BLESource) Read(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrPortClosed
	}
	n, err := s.rbuf.Read(p)
	if err == ringbuffer.ErrIsEmpty {
		return 0, nil
	}
	return n, err
}

// Dropped returns the number of bytes lost because the queue was full.
func (s *BLESource) Dropped() int64 {
	return s.dropped.Load()
}

// Close unsubscribes and disconnects from the peripheral.
func (s *BLESource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if n := s.dropped.Load(); n > 0 {
		log.Printf("ble: dropped %d bytes, notification queue full", n)
	}

	var result error
	if err := s.charTx.EnableNotifications(nil); err != nil {
		result = multierror.Append(result, fmt.Errorf("disable notifications: %w", err))
	}
	if err := s.device.Disconnect(); err != nil {
		result = multierror.Append(result, fmt.Errorf("disconnect: %w", err))
	}
	return result
}
