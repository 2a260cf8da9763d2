package audioout

import (
	"errors"
	"sync"
)

// ErrCaptureClosed is returned by a Capture once Close has been called.
var ErrCaptureClosed = errors.New("audioout: capture closed")

// Capture is an in-memory chunk sink for tests. It copies every chunk it
// receives; an optional limit makes it start failing after N chunks so
// tests can exercise the writer-failure path.
type Capture struct {
	mu     sync.Mutex
	chunks [][]int16
	limit  int
	closed bool
}

// NewCapture returns a sink accepting unlimited chunks.
func NewCapture() *Capture {
	return &Capture{limit: -1}
}

// NewCaptureLimit returns a sink that accepts limit chunks and then
// returns ErrCaptureClosed.
func NewCaptureLimit(limit int) *Capture {
	return &Capture{limit: limit}
}

func (c *Capture) WriteChunk(samples []int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCaptureClosed
	}
	if c.limit >= 0 && len(c.chunks) >= c.limit {
		return ErrCaptureClosed
	}
	chunk := make([]int16, len(samples))
	copy(chunk, samples)
	c.chunks = append(c.chunks, chunk)
	return nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Chunks returns everything written so far.
func (c *Capture) Chunks() [][]int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]int16, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Last returns the most recent chunk, or nil.
func (c *Capture) Last() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.chunks) == 0 {
		return nil
	}
	return c.chunks[len(c.chunks)-1]
}
