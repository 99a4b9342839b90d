package source

import (
	"errors"
	"testing"
)

func TestFakeSourceRead(t *testing.T) {
	f := NewFakeSource("100,70\n", "200,")

	if !f.Available() {
		t.Fatal("expected data available")
	}

	buf := make([]byte, 64)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf[:n]) != "100,70\n" {
		t.Errorf("chunk 0: got %q", buf[:n])
	}

	n, _ = f.Read(buf)
	if string(buf[:n]) != "200," {
		t.Errorf("chunk 1: got %q", buf[:n])
	}

	if f.Available() {
		t.Error("expected no data available")
	}
	n, err = f.Read(buf)
	if n != 0 || err != nil {
		t.Errorf("exhausted read: got (%d, %v), want (0, nil)", n, err)
	}
	if f.Reads() != 3 {
		t.Errorf("reads: got %d, want 3", f.Reads())
	}
}

func TestFakeSourceSplitsLargeChunk(t *testing.T) {
	f := NewFakeSource("abcdef")
	buf := make([]byte, 4)

	n, _ := f.Read(buf)
	if string(buf[:n]) != "abcd" {
		t.Errorf("first read: got %q", buf[:n])
	}
	n, _ = f.Read(buf)
	if string(buf[:n]) != "ef" {
		t.Errorf("second read: got %q", buf[:n])
	}
}

func TestFakeSourcePush(t *testing.T) {
	f := NewFakeSource()
	if f.Available() {
		t.Fatal("expected nothing available")
	}
	f.Push("71\n")
	if !f.Available() {
		t.Fatal("expected pushed data available")
	}
}

func TestFakeSourceFailAfterChunks(t *testing.T) {
	readErr := errors.New("link lost")
	f := NewFakeSource("1,1\n")
	f.FailAfterChunks(readErr)

	buf := make([]byte, 16)
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("queued chunk should be read first: %v", err)
	}
	if !f.Available() {
		t.Error("pending error should count as available")
	}
	if _, err := f.Read(buf); !errors.Is(err, readErr) {
		t.Errorf("expected link lost, got %v", err)
	}
}

func TestFakeSourceClose(t *testing.T) {
	f := NewFakeSource("1,1\n")
	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
	if f.Available() {
		t.Error("closed source should not report data")
	}
	if _, err := f.Read(make([]byte, 4)); !errors.Is(err, ErrPortClosed) {
		t.Errorf("expected ErrPortClosed, got %v", err)
	}
}

func TestIsDisconnect(t *testing.T) {
	if !IsDisconnect(ErrPortClosed) {
		t.Error("ErrPortClosed should be a disconnect")
	}
	if IsDisconnect(errors.New("boom")) {
		t.Error("plain error should not be a disconnect")
	}
	if IsDisconnect(nil) {
		t.Error("nil should not be a disconnect")
	}
}
