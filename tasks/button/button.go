// Package button turns edges on an active-low push button into press and
// hold events.
package button

import (
	"errors"
	"fmt"

	"ember/hal"
	"ember/kernel"
)

// DebounceMs is the settle time after every edge.
const DebounceMs = 2

// Event is a classified button action.
type Event uint8

const (
	// Press is a release before the hold time elapsed.
	Press Event = iota
	// Hold is a button still down when the hold time elapsed.
	Hold
)

func (e Event) String() string {
	if e == Hold {
		return "hold"
	}
	return "press"
}

var ErrNoInterrupt = errors.New("button: pin cannot interrupt")

// Button is the state shared between the pin interrupt and the button task.
// The interrupt only sets flags; the task reads and clears them inside wait
// predicates, which run with interrupts disabled.
type Button struct {
	name   string
	holdMs uint32

	down     bool
	pressed  bool
	released bool

	presses uint64
	holds   uint64

	notify func(Event)
}

// New configures pin as a pulled-up input interrupting on both edges.
// notify, if set, runs on the button task after each event.
func New(pin hal.GPIOPin, holdMs uint32, notify func(Event)) (*Button, error) {
	if pin == nil {
		return nil, errors.New("button: nil pin")
	}
	irq, ok := pin.(hal.GPIOInterrupter)
	if !ok || pin.Caps()&hal.GPIOCapInterrupt == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInterrupt, pin.Name())
	}
	if err := pin.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
		return nil, fmt.Errorf("button: configure %s: %w", pin.Name(), err)
	}
	b := &Button{name: pin.Name(), holdMs: holdMs, notify: notify}
	if level, err := pin.Read(); err == nil {
		b.down = !level
	}
	if err := irq.SetInterrupt(hal.EdgeBoth, b.ISR); err != nil {
		return nil, fmt.Errorf("button: interrupt %s: %w", pin.Name(), err)
	}
	return b, nil
}

// Name returns the pin name.
func (b *Button) Name() string { return b.name }

// ISR records an edge. It runs in interrupt context.
func (b *Button) ISR(level bool) {
	b.down = !level
	if b.down {
		b.pressed = true
	} else {
		b.released = true
	}
}

// WaitForEvent blocks the calling task until the button is pressed and then
// released or held. A button already down on entry must be released first.
func (b *Button) WaitForEvent(s *kernel.Scheduler) Event {
	b.waitForRelease(s)

	s.Wait(func() bool {
		if !b.pressed {
			return false
		}
		b.pressed = false
		b.released = false
		return true
	})
	s.SleepMs(DebounceMs)

	released := s.WaitTimeout(s.Ms(b.holdMs), func() bool {
		return b.released || !b.down
	})
	if !released {
		return Hold
	}
	return Press
}

func (b *Button) waitForRelease(s *kernel.Scheduler) {
	was := false
	s.Wait(func() bool {
		if b.down {
			was = true
			return false
		}
		return true
	})
	if was {
		s.SleepMs(DebounceMs)
	}
}

// Run is the task entry: it classifies events forever.
func (b *Button) Run(s *kernel.Scheduler) {
	for {
		e := b.WaitForEvent(s)
		if e == Hold {
			b.holds++
		} else {
			b.presses++
		}
		if b.notify != nil {
			b.notify(e)
		}
	}
}

// Presses returns the number of short presses seen.
func (b *Button) Presses() uint64 { return b.presses }

// Holds returns the number of holds seen.
func (b *Button) Holds() uint64 { return b.holds }
