package executor

import "sync"

// capture collects combined output in arrival order. When limit is positive only
// the last limit bytes are kept.
type capture struct {
	mu      sync.Mutex
	limit   int
	buf     []byte
	dropped int64
}

func newCapture(limit uint64) *capture {
	return &capture{limit: int(limit)}
}

func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf = append(c.buf, p...)
	if c.limit > 0 && len(c.buf) > c.limit {
		excess := len(c.buf) - c.limit
		c.dropped += int64(excess)
		c.buf = append(c.buf[:0], c.buf[excess:]...)
	}

	return len(p), nil
}

func (c *capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return string(c.buf)
}

func (c *capture) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dropped
}
