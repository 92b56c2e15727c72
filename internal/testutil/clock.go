// Package testutil holds deterministic stand-ins for the clock and id
// sources, so replay traces and stored runs are byte-identical across runs.
package testutil

import "sync/atomic"

// DeterministicClock is a logical clock for trace sequence numbers.
// The first call to Next returns 1. Safe for concurrent use.
type DeterministicClock struct {
	seq atomic.Int64
}

// NewDeterministicClock returns a clock at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *DeterministicClock) Current() int64 {
	return c.seq.Load()
}

// Reset puts the clock back to 0.
func (c *DeterministicClock) Reset() {
	c.seq.Store(0)
}
