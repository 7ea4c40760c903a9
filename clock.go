package linkbridge

import (
	"sync/atomic"
	"time"
)

// SystemClock reports monotonic nanoseconds since it was created.
type SystemClock struct {
	epoch time.Time
}

// NewSystemClock creates a clock anchored at the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

// HostTime returns nanoseconds elapsed since the clock was created.
func (c *SystemClock) HostTime() int64 {
	return int64(time.Since(c.epoch))
}

// SecondsToHostTime returns 1e9.
func (c *SystemClock) SecondsToHostTime() float64 {
	return float64(time.Second)
}

// ManualClock only moves when told to. It drives offline rendering.
type ManualClock struct {
	now            atomic.Int64
	ticksPerSecond float64
}

// NewManualClock creates a clock at tick 0 with the given resolution.
func NewManualClock(ticksPerSecond float64) *ManualClock {
	return &ManualClock{ticksPerSecond: ticksPerSecond}
}

// HostTime returns the current tick.
func (c *ManualClock) HostTime() int64 {
	return c.now.Load()
}

// SecondsToHostTime returns the ticks per second the clock was created with.
func (c *ManualClock) SecondsToHostTime() float64 {
	return c.ticksPerSecond
}

// Advance moves the clock forward by ticks and returns the new time.
func (c *ManualClock) Advance(ticks int64) int64 {
	return c.now.Add(ticks)
}

// Set moves the clock to an absolute tick.
func (c *ManualClock) Set(tick int64) {
	c.now.Store(tick)
}
