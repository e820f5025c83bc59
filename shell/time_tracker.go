package shell

import (
	"math"

	"github.com/Carmen-Shannon/oxy-xr/xr"
)

const (
	// MaxDeltaNanos caps a single simulation step at half a second. Steps larger
	// than this (or negative ones) indicate a compositor timing glitch and are
	// replaced with DefaultDeltaNanos.
	MaxDeltaNanos int64 = 500_000_000

	// DefaultDeltaNanos is the 1/60 s fallback step used when the raw delta is
	// outside the accepted range.
	DefaultDeltaNanos int64 = 16_666_666
)

// TimeDelta is one simulation time step derived from consecutive predicted
// display timestamps.
type TimeDelta struct {
	// FirstFrame is true on the tracker's first observation; no time has elapsed
	// and Nanos/Secs are zero.
	FirstFrame bool
	// Nanos is the clamped step in nanoseconds, always in [0, MaxDeltaNanos].
	Nanos int64
	// Secs is Nanos expressed in seconds. Because Nanos never exceeds
	// MaxDeltaNanos it fits a float32 without meaningful precision loss.
	Secs float32
}

// TimeTracker converts the compositor's opaque monotonic timestamps into bounded,
// monotonic simulation-time deltas. The zero value is ready to use.
type TimeTracker struct {
	lastTime  xr.Time
	hasLast   bool
	elapsedNS int64
}

// Delta records displayTime and returns the simulation step since the previous
// call. The first call yields a FirstFrame delta and only records the baseline.
// The subtraction wraps rather than panics for any pair of int64 timestamps, and
// out-of-range results (negative, or above MaxDeltaNanos) are replaced with
// DefaultDeltaNanos so one bad timestamp cannot destabilize simulation stepping.
//
// Parameters:
//   - displayTime: the compositor-predicted display timestamp for this frame
//
// Returns:
//   - TimeDelta: the step to advance simulation by
func (t *TimeTracker) Delta(displayTime xr.Time) TimeDelta {
	last := t.lastTime
	hadLast := t.hasLast
	t.lastTime = displayTime
	t.hasLast = true

	if !hadLast {
		return TimeDelta{FirstFrame: true}
	}

	// Two's-complement subtraction wraps in Go, matching the opaque wrapping
	// counter semantics of the timestamp source.
	nanos := int64(displayTime) - int64(last)
	if nanos < 0 || nanos > MaxDeltaNanos {
		nanos = DefaultDeltaNanos
	}

	// The accumulator would take centuries of runtime to overflow; if it ever
	// does, reset to zero rather than wrap or crash.
	if t.elapsedNS > math.MaxInt64-nanos {
		t.elapsedNS = 0
	} else {
		t.elapsedNS += nanos
	}

	return TimeDelta{Nanos: nanos, Secs: float32(nanos) / 1e9}
}

// ElapsedNanos returns the accumulated simulation time in nanoseconds.
func (t *TimeTracker) ElapsedNanos() int64 {
	return t.elapsedNS
}

// ElapsedSeconds returns the accumulated simulation time in seconds.
func (t *TimeTracker) ElapsedSeconds() float64 {
	return float64(t.elapsedNS) / 1e9
}
