package logic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed is matched by every DecodeError.
var ErrMalformed = errors.New("malformed sample line")

// DecodeError reports a line that is not of the form "<float>,<int>".
type DecodeError struct {
	Line string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed sample line %q", e.Line)
}

// Is makes errors.Is(err, ErrMalformed) true for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}

// Decode parses a trimmed line of the form "<ecg>,<bpm>".
// The ECG field must be a finite float and the BPM field a signed 32-bit
// integer. Anything else yields a *DecodeError and a zero Sample.
func Decode(line string) (Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return Sample{}, &DecodeError{Line: line}
	}

	ecg, err := strconv.ParseFloat(parts[0], 32)
	if err != nil || math.IsNaN(ecg) || math.IsInf(ecg, 0) {
		return Sample{}, &DecodeError{Line: line}
	}

	bpm, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return Sample{}, &DecodeError{Line: line}
	}

	return Sample{ECG: float32(ecg), BPM: int(bpm)}, nil
}
