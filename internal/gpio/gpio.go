// Package gpio provides the connect/disconnect push-button input with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the button state.
type Reader interface {
	// Read returns true while the button is held down.
	// The button pulls the line to ground: raw 0 = pressed.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPinButton is the BCM pin the button is wired to.
const DefaultPinButton = 17
