package core

import (
	"testing"
	"time"
)

func TestMonotonicClockWait(t *testing.T) {
	c := NewClock()
	target := c.Now().Add(20 * time.Millisecond)
	c.Wait(target)
	if now := c.Now(); now < target {
		t.Errorf("Wait returned at %v, before target %v", time.Duration(now), time.Duration(target))
	}
}

func TestMonotonicClockWaitInThePast(t *testing.T) {
	c := NewClock()
	start := time.Now()
	c.Wait(Instant(0))
	if time.Since(start) > 50*time.Millisecond {
		t.Error("waiting for a past instant should return immediately")
	}
}

func TestInstantSeconds(t *testing.T) {
	i := Instant(1500 * time.Millisecond)
	if i.Seconds() != 1.5 {
		t.Errorf("Seconds() = %v, want 1.5", i.Seconds())
	}
}
