package source

import "sync"

// FakeSource is a test double that returns scripted chunks.
// Safe for use from a reader goroutine while a test pushes more chunks.
type FakeSource struct {
	mu sync.Mutex

	// chunks waiting to be read, one per Read call
	chunks [][]byte

	// returned once all chunks have been read
	readErr error

	closed bool
	reads  int
}

// NewFakeSource creates a FakeSource with the given chunks.
func NewFakeSource(chunks ...string) *FakeSource {
	f := &FakeSource{}
	for _, c := range chunks {
		f.chunks = append(f.chunks, []byte(c))
	}
	return f
}

// Push queues another chunk.
func (f *FakeSource) Push(chunk string) {
	f.mu.Lock()
	f.chunks = append(f.chunks, []byte(chunk))
	f.mu.Unlock()
}

// FailAfterChunks makes Read return err once the queued chunks are drained.
func (f *FakeSource) FailAfterChunks(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// Available reports whether a chunk or error is pending.
func (f *FakeSource) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && (len(f.chunks) > 0 || f.readErr != nil)
}

// Read returns the next chunk. A chunk larger than p is split across reads.
func (f *FakeSource) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrPortClosed
	}
	f.reads++

	if len(f.chunks) == 0 {
		if f.readErr != nil {
			return 0, f.readErr
		}
		return 0, nil
	}

	n := copy(p, f.chunks[0])
	if n < len(f.chunks[0]) {
		f.chunks[0] = f.chunks[0][n:]
	} else {
		f.chunks = f.chunks[1:]
	}
	return n, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeSource) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reads returns the number of Read calls made.
func (f *FakeSource) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}
