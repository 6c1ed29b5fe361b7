package kernel

import "time"

// Ticks counts timer interrupts. It wraps at 2^32.
type Ticks uint32

// MaxSleep is the longest sleep or timeout that can be requested.
//
// Deadlines are compared with a signed difference, so a deadline further
// than half the counter range away would look like it is in the past.
const MaxSleep Ticks = 1<<31 - 1

// due reports whether deadline has been reached at time now.
func due(now, deadline Ticks) bool {
	return int32(now-deadline) >= 0
}

// TicksFor converts d to ticks of the given period, rounding up so that a
// sleep is never shorter than requested. Results that do not fit are clamped.
func TicksFor(d, period time.Duration) Ticks {
	if d <= 0 || period <= 0 {
		return 0
	}
	n := d / period
	if d%period != 0 {
		n++
	}
	if n > time.Duration(^Ticks(0)) {
		return ^Ticks(0)
	}
	return Ticks(n)
}

// Ms converts milliseconds to ticks (ceiling).
func (s *Scheduler) Ms(ms uint32) Ticks {
	return TicksFor(time.Duration(ms)*time.Millisecond, s.cfg.TickPeriod)
}

// Us converts microseconds to ticks (ceiling).
func (s *Scheduler) Us(us uint32) Ticks {
	return TicksFor(time.Duration(us)*time.Microsecond, s.cfg.TickPeriod)
}

// Duration converts an arbitrary duration to ticks (ceiling).
func (s *Scheduler) Duration(d time.Duration) Ticks {
	return TicksFor(d, s.cfg.TickPeriod)
}

// TickPeriod returns the configured time between ticks.
func (s *Scheduler) TickPeriod() time.Duration { return s.cfg.TickPeriod }
