// Package kernel is a cooperative task scheduler for single-core targets:
// round-robin dispatch, tick-driven sleeps, predicate waits and stack guards,
// all synchronized by masking interrupts.
package kernel

import "fmt"

// EventKind identifies a run loop event.
type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventResume
	EventSuspend
	EventExit
	EventIdle
	EventFault
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventResume:
		return "resume"
	case EventSuspend:
		return "suspend"
	case EventExit:
		return "exit"
	case EventIdle:
		return "idle"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event is reported to Config.Trace.
type Event struct {
	Kind EventKind
	Task *Task
	Tick Ticks
}

// Stats are run loop counters.
type Stats struct {
	Passes   uint64
	Idles    uint64
	Ticks    uint64
	Wakes    uint64
	Switches uint64
}

// Scheduler is the cooperative run loop and the state shared with the tick
// interrupt. There is one per program; every field is read and written only
// with interrupts disabled.
type Scheduler struct {
	cfg Config
	irq Interrupts
	sw  Switcher

	tasks   []*Task
	current *Task

	now      Ticks
	sleepers *Task

	didWork bool
	halted  bool

	stats Stats
}

// New creates a scheduler dispatching tasks in the given order and starts the
// auto-start tasks. It panics if the static configuration is invalid.
func New(cfg Config, tasks ...*Task) *Scheduler {
	s, err := NewChecked(cfg, tasks...)
	if err != nil {
		panic(err)
	}
	return s
}

// NewChecked is New returning configuration errors instead of panicking.
func NewChecked(cfg Config, tasks ...*Task) (*Scheduler, error) {
	if err := cfg.validate(tasks); err != nil {
		return nil, err
	}
	if cfg.Switcher == nil {
		cfg.Switcher = NewGoSwitcher()
	}
	if cfg.Fatal == nil {
		cfg.Fatal = defaultFatal
	}
	s := &Scheduler{
		cfg:   cfg,
		irq:   cfg.Interrupts,
		sw:    cfg.Switcher,
		tasks: tasks,
	}
	if cfg.Idle == nil {
		s.cfg.Idle = s.irq.Enable
	}

	paintGuard(cfg.MainStack, cfg.GuardWords)
	for i, t := range tasks {
		t.owner = s
		t.index = i
		paintGuard(t.stack, cfg.GuardWords)
	}
	for _, t := range tasks {
		if t.autoStart {
			s.Start(t)
		}
	}
	return s, nil
}

// Tasks returns the task table in dispatch order.
func (s *Scheduler) Tasks() []*Task { return s.tasks }

// Current returns the running task, or nil in scheduler context.
func (s *Scheduler) Current() *Task { return s.current }

// Stats returns a snapshot of the run loop counters.
func (s *Scheduler) Stats() Stats {
	was := s.disable()
	st := s.stats
	s.restore(was)
	return st
}

// Run dispatches tasks forever.
func (s *Scheduler) Run() {
	for !s.halted {
		s.RunOnce()
	}
	select {}
}

// RunOnce performs one iteration of the run loop: a dispatch pass, followed
// by the idle hook if the pass did no work. It returns whether work was done.
func (s *Scheduler) RunOnce() bool {
	work := s.Step()
	if s.halted {
		return false
	}
	if !work {
		s.stats.Idles++
		s.trace(Event{Kind: EventIdle, Tick: s.now})
		s.cfg.Idle()
	}
	return work
}

// Step runs every runnable task once, in declaration order, and reports
// whether any of them did work. Interrupts are disabled on return.
func (s *Scheduler) Step() bool {
	if s.halted {
		return false
	}
	if s.current != nil {
		panic(fmt.Sprintf("kernel: dispatch from task %q", s.current.name))
	}
	s.irq.Disable()
	s.didWork = false
	s.stats.Passes++

	for _, t := range s.tasks {
		switch t.state {
		case TaskPending:
			s.current = t
			t.state = TaskRunning
			t.dispatches++
			s.stats.Switches++
			s.trace(Event{Kind: EventStart, Task: t, Tick: s.now})
			s.sw.Start(t, s.launch(t))
		case TaskSuspended:
			s.current = t
			t.state = TaskRunning
			t.dispatches++
			s.stats.Switches++
			s.trace(Event{Kind: EventResume, Task: t, Tick: s.now})
			s.sw.Resume(t)
		default:
			continue
		}
		s.current = nil
		s.irq.Disable()
		if s.halted {
			return false
		}
		if t.state == TaskDormant {
			s.trace(Event{Kind: EventExit, Task: t, Tick: s.now})
		} else {
			s.trace(Event{Kind: EventSuspend, Task: t, Tick: s.now})
		}
		if s.cfg.GuardCheck == CheckEverySwitch && !s.checkTask(t) {
			return false
		}
	}

	switch s.cfg.GuardCheck {
	case CheckEverySwitch:
		if !s.checkMain() {
			return false
		}
	case CheckEveryPass:
		if !s.CheckGuards() {
			return false
		}
	}
	return s.didWork
}

// launch wraps the task entry. It runs on the task's context.
func (s *Scheduler) launch(t *Task) func() {
	fn := t.entry
	return func() {
		defer func() {
			if r := recover(); r != nil {
				if s.halted {
					panic(r)
				}
				s.raise(Fault{Code: FaultPanic, Task: t.index, Name: t.name, Value: r})
			}
		}()
		s.markWork()
		fn(s)
		s.irq.Disable()
		t.state = TaskDormant
		t.entry = nil
	}
}

// yield suspends the current task t. Interrupts must be disabled; they are
// disabled again when yield returns.
func (s *Scheduler) yield(t *Task) {
	t.state = TaskSuspended
	s.sw.Yield(t)
}

// markWork records that the running task made progress and re-enables
// interrupts.
func (s *Scheduler) markWork() {
	s.didWork = true
	s.irq.Enable()
}

func (s *Scheduler) disable() bool {
	was := s.irq.Enabled()
	if was {
		s.irq.Disable()
	}
	return was
}

func (s *Scheduler) restore(was bool) {
	if was {
		s.irq.Enable()
	}
}

func (s *Scheduler) trace(e Event) {
	if s.cfg.Trace != nil {
		s.cfg.Trace(e)
	}
}
