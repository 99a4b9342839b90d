// Package frame splits a chunked byte stream into newline-delimited lines.
// Splitting works on raw bytes; text is only produced once a complete line
// has been isolated, so multi-byte characters split across chunks survive.
// This package has NO external dependencies and does no I/O.
package frame

import (
	"bytes"
	"strings"
)

// Framer accumulates raw chunks and releases complete, trimmed lines.
// Not safe for concurrent use; one connection session owns it.
type Framer struct {
	buf []byte
}

// New creates an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Append adds a chunk of bytes to the line buffer. The chunk may be empty,
// end mid-line, or contain any number of newlines.
func (f *Framer) Append(chunk []byte) {
	f.buf = append(f.buf, chunk...)
}

// Next returns the next complete line with surrounding whitespace trimmed.
// It returns false when no terminated line is buffered; the partial line
// stays buffered until a later Append completes it. Empty lines are skipped.
func (f *Framer) Next() (string, bool) {
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return "", false
		}
		line := strings.TrimSpace(string(f.buf[:i]))
		f.consume(i + 1)
		if line == "" {
			continue
		}
		return line, true
	}
}

// Lines drains every complete line currently buffered.
func (f *Framer) Lines() []string {
	var lines []string
	for {
		line, ok := f.Next()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

// Buffered returns the number of bytes waiting for a terminator.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Reset discards any buffered bytes.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}

// consume removes the first n bytes, compacting in place so the backing
// array is reused across lines.
func (f *Framer) consume(n int) {
	rest := copy(f.buf, f.buf[n:])
	f.buf = f.buf[:rest]
}
