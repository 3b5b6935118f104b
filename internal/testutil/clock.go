package testutil

import (
	"sync"
	"time"
)

// Clock provides a thread-safe deterministic wall clock for tests.
//
// Each call to Now returns the current instant and then advances the clock
// by a fixed step, so receipt timestamps (and therefore receipt hashes) are
// reproducible across runs. Reset enables test reuse with identical output.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu      sync.Mutex
	start   time.Time
	step    time.Duration
	current time.Time
}

// NewClock creates a deterministic clock starting at start.
//
// Every call to Now advances the clock by step.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start, step: step, current: start}
}

// Now returns the current instant and advances the clock by one step.
//
// Thread-safe: uses mutex to protect the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.current
	c.current = c.current.Add(c.step)
	return t
}

// Current returns the instant the next Now call would return, without
// advancing the clock.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Reset rewinds the clock to its start instant.
//
// Used for test reuse. After Reset(), Now returns the start instant again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.start
}
