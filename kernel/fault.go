package kernel

import "strconv"

// FaultCode discriminates unrecoverable conditions.
type FaultCode uint8

const (
	FaultNone FaultCode = iota
	// FaultStackOverflow means a stack guard word was overwritten.
	FaultStackOverflow
	// FaultStartActive means Start was called on a task that is not dormant.
	FaultStartActive
	// FaultStopSelf means a task tried to stop itself.
	FaultStopSelf
	// FaultNoTask means a blocking primitive was called outside of a task.
	FaultNoTask
	// FaultSleepRange means a sleep or timeout exceeded MaxSleep.
	FaultSleepRange
	// FaultForeignTask means the task is not in this scheduler's table.
	FaultForeignTask
	// FaultNoEntry means a task was started without an entry point.
	FaultNoEntry
	// FaultPanic means task code panicked.
	FaultPanic
	// FaultStopping means a task blocked while Stop was unwinding it.
	FaultStopping

	// FaultUser is the first code available to drivers raising their own
	// faults through Scheduler.Fatal.
	FaultUser FaultCode = 0x80
)

func (c FaultCode) String() string {
	switch c {
	case FaultNone:
		return "none"
	case FaultStackOverflow:
		return "stack overflow"
	case FaultStartActive:
		return "start of active task"
	case FaultStopSelf:
		return "task stopped itself"
	case FaultNoTask:
		return "blocking call outside task"
	case FaultSleepRange:
		return "sleep out of range"
	case FaultForeignTask:
		return "unknown task"
	case FaultNoEntry:
		return "no entry point"
	case FaultPanic:
		return "panic"
	case FaultStopping:
		return "blocking call while stopping"
	}
	if c >= FaultUser {
		return "user fault " + strconv.Itoa(int(c-FaultUser))
	}
	return "fault " + strconv.Itoa(int(c))
}

// Fault describes an unrecoverable condition handed to the fatal hook.
type Fault struct {
	Code FaultCode
	// Task is the index of the offending task, -1 for the main stack or when
	// no task is involved.
	Task int
	Name string
	Tick Ticks
	// Value holds the recovered value for FaultPanic.
	Value any
}

func (f Fault) Error() string {
	s := "kernel: " + f.Code.String()
	switch {
	case f.Name != "":
		s += " in task " + strconv.Quote(f.Name)
	case f.Task < 0 && f.Code == FaultStackOverflow:
		s += " in main stack"
	}
	if f.Value != nil {
		switch v := f.Value.(type) {
		case error:
			s += ": " + v.Error()
		case string:
			s += ": " + v
		}
	}
	return s
}

// Halted reports whether a fault stopped the scheduler.
func (s *Scheduler) Halted() bool { return s.halted }

// Fatal raises a fault on behalf of a collaborating driver. It does not
// return when called from a task.
func (s *Scheduler) Fatal(code FaultCode) {
	f := Fault{Code: code, Task: -1}
	if t := s.current; t != nil {
		f.Task = t.index
		f.Name = t.name
	}
	s.raise(f)
}

// raise routes f to the fatal hook exactly once. Once the hook returns the
// scheduler is halted: a task context is parked forever and the run loop
// stops dispatching.
func (s *Scheduler) raise(f Fault) {
	s.irq.Disable()
	if !s.halted {
		s.halted = true
		f.Tick = s.now
		s.trace(Event{Kind: EventFault, Task: s.current, Tick: s.now})
		s.cfg.Fatal(f)
	}
	// A context being discarded finishes unwinding; Stop parks its caller.
	if t := s.current; t != nil && !t.discarding {
		s.sw.Halt(t)
	}
}

func defaultFatal(f Fault) {
	panic(f.Error())
}
