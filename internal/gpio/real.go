//go:build linux

package gpio

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the button from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	pin  *gpiocdev.Line
}

// NewRealReader requests the button pin on gpiochip0.
func NewRealReader(pin int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Pull-up so an open button reads 1 and a press reads 0.
	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, pin: line}, nil
}

// Read returns true while the button is pressed.
func (r *RealReader) Read() (bool, error) {
	raw, err := r.pin.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return raw == 0, nil
}

// Close releases GPIO resources.
// The pin is returned to input with pull-down (the Pi boot default) first.
func (r *RealReader) Close() error {
	var result error

	if r.pin != nil {
		if err := r.pin.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			result = multierror.Append(result, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := r.pin.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close button pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close chip: %w", err))
		}
	}
	return result
}
