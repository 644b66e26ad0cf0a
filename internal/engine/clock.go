package engine

import "sync/atomic"

// Epoch tags a load request. The container accepts a result only if it
// carries the epoch the container currently expects; anything older belongs
// to a superseded query and is discarded.
type Epoch int64

// Clock issues strictly increasing epochs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start; the next epoch is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new epoch.
func (c *Clock) Next() Epoch {
	return Epoch(c.seq.Add(1))
}

// Current returns the last issued epoch without advancing.
func (c *Clock) Current() Epoch {
	return Epoch(c.seq.Load())
}
