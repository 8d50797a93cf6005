//go:build linux

package bsp

import "golang.org/x/sys/unix"

// MonotonicClock implements Timer on Linux using CLOCK_MONOTONIC directly,
// sidestepping wall-clock adjustments that would otherwise corrupt ARQ
// deadlines (spec.md §5, "monotonic quarter-millisecond tick").
type MonotonicClock struct {
	originSec  int64
	originNsec int64
}

// NewMonotonicClock captures the current monotonic time as tick zero.
func NewMonotonicClock() *MonotonicClock {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	return &MonotonicClock{originSec: int64(ts.Sec), originNsec: int64(ts.Nsec)}
}

// GetTickQuarterMS returns elapsed quarter-milliseconds since the clock was
// created.
func (c *MonotonicClock) GetTickQuarterMS() uint64 {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)

	deltaSec := int64(ts.Sec) - c.originSec
	deltaNsec := int64(ts.Nsec) - c.originNsec

	totalNsec := deltaSec*1e9 + deltaNsec
	return uint64(totalNsec / (250 * 1000))
}
