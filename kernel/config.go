package kernel

import (
	"errors"
	"fmt"
	"time"
)

// Interrupts is the platform's single-core interrupt mask. It is the only
// synchronization primitive the kernel uses.
type Interrupts interface {
	Disable()
	Enable()
	Enabled() bool
}

// GuardCheck selects how often stack guards are verified.
type GuardCheck uint8

const (
	// CheckEverySwitch verifies a task's guard each time it switches back
	// to the scheduler, and the main stack's guard after every pass.
	CheckEverySwitch GuardCheck = iota
	// CheckEveryPass verifies all guards once per dispatch pass.
	CheckEveryPass
	// CheckNever disables verification. Guards are still painted.
	CheckNever
)

// Config is the static configuration of a scheduler.
type Config struct {
	// TickPeriod is the time between two calls to Tick.
	TickPeriod time.Duration

	Interrupts Interrupts

	// Idle is called with interrupts disabled when a full pass did no work.
	// It must enable interrupts and wait for the next one atomically. If nil,
	// interrupts are enabled and the loop spins.
	Idle func()

	// Fatal is called once with the first unrecoverable fault. It is not
	// expected to return. If nil, the fault panics.
	Fatal func(Fault)

	// GuardWords is the number of canary words at the low end of every
	// task stack and of MainStack.
	GuardWords int
	GuardCheck GuardCheck
	// MainStack optionally lets the scheduler guard its own stack.
	MainStack []uintptr

	// Switcher performs context switches. Defaults to NewGoSwitcher().
	Switcher Switcher

	// Trace receives run loop events from scheduler context.
	Trace func(Event)
}

var (
	ErrTickPeriod    = errors.New("kernel: tick period must be positive")
	ErrInterrupts    = errors.New("kernel: interrupt controller required")
	ErrGuardWords    = errors.New("kernel: negative guard word count")
	ErrNilTask       = errors.New("kernel: nil task")
	ErrStackTooSmall = errors.New("kernel: stack too small for guard")
)

func (c *Config) validate(tasks []*Task) error {
	if c.TickPeriod <= 0 {
		return ErrTickPeriod
	}
	if c.Interrupts == nil {
		return ErrInterrupts
	}
	if c.GuardWords < 0 {
		return ErrGuardWords
	}
	if c.MainStack != nil && len(c.MainStack) <= c.GuardWords {
		return fmt.Errorf("main stack: %w", ErrStackTooSmall)
	}

	names := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t == nil {
			return fmt.Errorf("task %d: %w", i, ErrNilTask)
		}
		if t.owner != nil {
			return fmt.Errorf("kernel: task %q already belongs to a scheduler", t.name)
		}
		if t.run == nil {
			return fmt.Errorf("kernel: task %q has no entry point", t.name)
		}
		if len(t.stack) <= c.GuardWords {
			return fmt.Errorf("task %q: %w (%d words, guard %d)", t.name, ErrStackTooSmall, len(t.stack), c.GuardWords)
		}
		if _, dup := names[t.name]; dup {
			return fmt.Errorf("kernel: duplicate task name %q", t.name)
		}
		names[t.name] = struct{}{}
	}
	return nil
}
