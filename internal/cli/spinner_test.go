package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, true, "Traversing...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.SetMessage("Traversing... 3 loaded")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Traversing...") {
		t.Errorf("spinner output missing message: %q", got)
	}
	if !strings.Contains(got, "3 loaded") {
		t.Errorf("spinner output missing updated message: %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("spinner did not clear its line: %q", got)
	}
}

func TestSpinnerSilentWhenDisabled(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, false, "Traversing...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if got := out.String(); got != "" {
		t.Errorf("disabled spinner wrote %q", got)
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerTo(ctx, &syncBuffer{}, true, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerTo(ctx, &syncBuffer{}, true, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, true, "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newSpinnerTo(context.Background(), &syncBuffer{}, true, "never started").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop without Start blocked")
	}
}

func TestSpinnerStopWithSuccess(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Done!")
}
