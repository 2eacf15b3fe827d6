package core

import "time"

// Instant is a point on a Clock's monotonic timeline, measured from its epoch.
type Instant time.Duration

// Seconds returns the instant as fractional seconds since the clock epoch.
func (i Instant) Seconds() float64 {
	return time.Duration(i).Seconds()
}

// Add returns the instant shifted by d.
func (i Instant) Add(d time.Duration) Instant {
	return i + Instant(d)
}

// Clock is the compositor time base used to pace frame work.
type Clock interface {
	Now() Instant
	// Wait blocks the calling goroutine until the given instant has passed.
	Wait(until Instant)
}

// MonotonicClock is a Clock backed by the runtime's monotonic time.
type MonotonicClock struct {
	epoch time.Time
}

func NewClock() *MonotonicClock {
	return &MonotonicClock{
		epoch: time.Now(),
	}
}

func (c *MonotonicClock) Now() Instant {
	return Instant(time.Since(c.epoch))
}

func (c *MonotonicClock) Wait(until Instant) {
	remaining := time.Duration(until - c.Now())
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	<-t.C
}

// Elapsed returns the time elapsed since the clock was created.
func (c *MonotonicClock) Elapsed() time.Duration {
	return time.Since(c.epoch)
}
