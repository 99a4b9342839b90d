package logic

import (
	"fmt"
	"math"
)

// Point is one slot of a sweep snapshot. Value is NaN for slots not written
// since the last reset.
type Point struct {
	Index int
	Value float32
}

// SweepBuffer is a fixed-size display buffer overwritten in place, like an
// oscilloscope trace: old data behind the write head stays visible until the
// next lap overwrites it.
// Not safe for concurrent use — caller must synchronize.
type SweepBuffer struct {
	slots     []float32
	writeHead int // next slot to overwrite
}

// NewSweepBuffer creates a reset sweep buffer of width w.
func NewSweepBuffer(w int) *SweepBuffer {
	if w <= 0 {
		panic(fmt.Sprintf("logic: invalid sweep width %d", w))
	}
	s := &SweepBuffer{slots: make([]float32, w)}
	s.Reset()
	return s
}

// Reset marks every slot as unwritten and rewinds the write head.
func (s *SweepBuffer) Reset() {
	nan := float32(math.NaN())
	for i := range s.slots {
		s.slots[i] = nan
	}
	s.writeHead = 0
}

// Push clamps v into [YMin, YMax], stores it at the write head and advances
// the head, wrapping without clearing.
func (s *SweepBuffer) Push(v float32) {
	if s.writeHead < 0 || s.writeHead >= len(s.slots) {
		panic(fmt.Sprintf("logic: sweep write head %d out of range [0, %d)", s.writeHead, len(s.slots)))
	}
	s.slots[s.writeHead] = clamp(v)
	s.writeHead++
	if s.writeHead == len(s.slots) {
		s.writeHead = 0
	}
}

// Snapshot returns a copy of all slots in slot order, independent of the
// write head position.
func (s *SweepBuffer) Snapshot() []Point {
	pts := make([]Point, len(s.slots))
	for i, v := range s.slots {
		pts[i] = Point{Index: i, Value: v}
	}
	return pts
}

// WriteHead returns the index of the next slot to be overwritten.
func (s *SweepBuffer) WriteHead() int {
	return s.writeHead
}

// Len returns the fixed width of the buffer.
func (s *SweepBuffer) Len() int {
	return len(s.slots)
}

func clamp(v float32) float32 {
	// NaN is reserved for unwritten slots.
	if math.IsNaN(float64(v)) || v < YMin {
		return YMin
	}
	if v > YMax {
		return YMax
	}
	return v
}

// Display is the presentation state: the sweep trace plus the latest BPM.
// Everything a viewer needs can be rebuilt from Snapshot and BPM.
type Display struct {
	sweep *SweepBuffer
	bpm   int
}

// NewDisplay creates a Display with a sweep of width w.
func NewDisplay(w int) *Display {
	return &Display{sweep: NewSweepBuffer(w)}
}

// Apply pushes the sample's ECG value and records its BPM.
func (d *Display) Apply(s Sample) {
	d.sweep.Push(s.ECG)
	d.bpm = s.BPM
}

// SetBPM sets the current BPM independently of the trace.
func (d *Display) SetBPM(bpm int) {
	d.bpm = bpm
}

// BPM returns the most recent BPM.
func (d *Display) BPM() int {
	return d.bpm
}

// Snapshot returns a copy of the sweep trace.
func (d *Display) Snapshot() []Point {
	return d.sweep.Snapshot()
}

// WriteHead returns the sweep write head.
func (d *Display) WriteHead() int {
	return d.sweep.WriteHead()
}

// Reset clears the trace and zeroes the BPM.
func (d *Display) Reset() {
	d.sweep.Reset()
	d.bpm = 0
}
