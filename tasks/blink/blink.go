// Package blink toggles an LED at a fixed rate.
package blink

import (
	"ember/hal"
	"ember/kernel"
)

// Blinker drives an LED from its own task.
type Blinker struct {
	led      hal.LED
	periodMs uint32
	on       bool
	toggles  uint64
}

// New returns a blinker that toggles led every periodMs milliseconds.
func New(led hal.LED, periodMs uint32) *Blinker {
	if periodMs == 0 {
		periodMs = 1
	}
	return &Blinker{led: led, periodMs: periodMs}
}

// Run is the task entry.
func (b *Blinker) Run(s *kernel.Scheduler) {
	for {
		b.toggle()
		s.SleepMs(b.periodMs)
	}
}

func (b *Blinker) toggle() {
	b.on = !b.on
	b.toggles++
	if b.led == nil {
		return
	}
	if b.on {
		b.led.High()
	} else {
		b.led.Low()
	}
}

// On reports the LED state last written.
func (b *Blinker) On() bool { return b.on }

// Toggles returns how often the LED changed state.
func (b *Blinker) Toggles() uint64 { return b.toggles }
