package sim

import "sync/atomic"

// Clock is the monotonic frame counter. Every frame the world runs gets a
// strictly increasing frame number; snapshot batches and traces are stamped
// with it so recorded state orders deterministically without wall time.
//
// Thread-safety: safe for concurrent reads via atomics, though the world's
// single-threaded frame loop means only one goroutine calls Tick.
type Clock struct {
	frame   atomic.Uint64
	elapsed atomic.Uint64 // accumulated sim time in nanoseconds
}

// NewClock creates a clock at frame 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific frame.
// Used when continuing a run against an existing journal.
func NewClockAt(frame uint64) *Clock {
	c := NewClock()
	c.frame.Store(frame)
	return c
}

// Tick advances the clock by one frame of dt seconds and returns the new
// frame number.
func (c *Clock) Tick(dt float64) uint64 {
	c.elapsed.Add(uint64(dt * 1e9))
	return c.frame.Add(1)
}

// Frame returns the current frame number without advancing.
func (c *Clock) Frame() uint64 {
	return c.frame.Load()
}

// Elapsed returns total accumulated sim time in seconds.
func (c *Clock) Elapsed() float64 {
	return float64(c.elapsed.Load()) / 1e9
}

// Reset returns the clock to frame 0.
func (c *Clock) Reset() {
	c.frame.Store(0)
	c.elapsed.Store(0)
}
