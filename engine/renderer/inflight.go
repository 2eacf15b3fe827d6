package renderer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/spaghettifunk/anima-skybox/engine/core"
)

/**
 * @brief Bounds the number of frames submitted to the GPU and not yet
 * completed. Acquire is called by the render loop, Release by the command
 * buffer completion handler on whatever goroutine the GPU reports from.
 */
type InFlightLimiter struct {
	sem         *semaphore.Weighted
	capacity    int
	outstanding atomic.Int64
}

func NewInFlightLimiter(capacity int) *InFlightLimiter {
	return &InFlightLimiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks while capacity frames are outstanding.
func (l *InFlightLimiter) Acquire() {
	// The background context never cancels, so Acquire cannot fail.
	_ = l.sem.Acquire(context.Background(), 1)
	l.outstanding.Add(1)
}

// TryAcquire acquires without blocking and reports whether it succeeded.
func (l *InFlightLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.outstanding.Add(1)
	return true
}

// Release returns one frame's slot. Releasing more than was acquired is
// logged and ignored.
func (l *InFlightLimiter) Release() {
	for {
		n := l.outstanding.Load()
		if n <= 0 {
			core.LogError("in-flight limiter released more times than acquired")
			return
		}
		if l.outstanding.CompareAndSwap(n, n-1) {
			break
		}
	}
	l.sem.Release(1)
}

// Outstanding returns the number of frames currently in flight.
func (l *InFlightLimiter) Outstanding() int {
	return int(l.outstanding.Load())
}

func (l *InFlightLimiter) Capacity() int {
	return l.capacity
}
