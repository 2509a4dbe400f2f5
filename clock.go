package otterreceiver

import "time"

// ClockProperties are written once, at sink initialisation, via
// `OTF2_GlobalDefWriter_WriteClockProperties`, with the clock resolution,
// an epoch, and an "unknown" upper bound for trace length.
type ClockProperties struct {
	TicksPerSecond uint64
	Epoch          uint64
	Length         uint64 // unknown upper bound; see UnknownClockLength
}

// UnknownClockLength is UINT64_MAX, used when the eventual trace duration
// cannot be predicted at initialisation time.
const UnknownClockLength = ^uint64(0)

// Clock is the monotonic nanosecond timestamp source shared by every
// Location. Go's time.Now() already carries a monotonic reading alongside
// the wall-clock one, so a single global start time plus time.Since gives
// a steady, non-decreasing nanosecond counter per process (P7) without
// needing to shell out to CLOCK_MONOTONIC directly.
type Clock struct {
	start time.Time
}

// NewClock captures the process epoch and derives the properties that
// should be written to the trace exactly once.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns a monotonically non-decreasing nanosecond timestamp.
func (c *Clock) Now() uint64 {
	return uint64(time.Since(c.start).Nanoseconds())
}

// Properties returns the clock properties to record at sink init. The
// resolution of Go's monotonic clock isn't queryable, so we fall back
// to reporting one tick per nanosecond.
func (c *Clock) Properties() ClockProperties {
	return ClockProperties{
		TicksPerSecond: 1_000_000_000,
		Epoch:          uint64(c.start.UnixNano()),
		Length:         UnknownClockLength,
	}
}
