package source

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Serial link defaults for an HC-05 in data mode.
const (
	DefaultSerialPort = "/dev/rfcomm0"
	DefaultBaudRate   = 9600
)

// serialReadTimeout bounds a single Read so the session can observe
// cancellation between reads.
const serialReadTimeout = 100 * time.Millisecond

// SerialSource reads from a serial device such as a bound RFCOMM channel.
type SerialSource struct {
	port serial.Port
	path string
}

// OpenSerial opens the serial device at path with 8N1 framing.
func OpenSerial(path string, baud int) (*SerialSource, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return &SerialSource{port: port, path: path}, nil
}

// Available always reports true: the port has no poll, and Read returns
// after at most serialReadTimeout with no data.
func (s *SerialSource) Available() bool {
	return true
}

// Read reads whatever bytes arrived, waiting at most serialReadTimeout.
func (s *SerialSource) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", s.path, err)
	}
	return n, nil
}

// Close closes the serial device.
func (s *SerialSource) Close() error {
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// IsDisconnect reports whether err means the device went away, as opposed
// to a configuration or permission problem.
func IsDisconnect(err error) bool {
	if errors.Is(err, ErrPortClosed) {
		return true
	}
	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return false
	}
	switch portErr.Code() {
	case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
		return true
	default:
		return false
	}
}
