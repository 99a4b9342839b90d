// Package source provides the raw byte stream from the ECG front end.
// Real implementations wrap an RFCOMM serial device or a BLE UART service.
// The fake implementation allows testing without a radio link.
package source

import "errors"

// ErrPortClosed is returned by Read after Close.
var ErrPortClosed = errors.New("source: port is closed")

// Source is a byte stream with a non-blocking availability poll.
type Source interface {
	// Available reports whether Read is likely to return data without
	// waiting. It may be approximate.
	Available() bool

	// Read reads up to len(p) bytes. Returning 0 bytes with a nil error is
	// allowed and means no data arrived yet. Any error ends the connection.
	Read(p []byte) (int, error)

	// Close releases the link.
	Close() error
}
