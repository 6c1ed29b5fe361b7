// Package status prints a periodic status line with the uptime and button
// counters. A poke prints one early.
package status

import (
	"fmt"
	"time"

	"ember/console"
	"ember/hal"
	"ember/kernel"
)

// Counter reports button event totals.
type Counter interface {
	Presses() uint64
	Holds() uint64
}

// Config wires the task to its outputs. Nil outputs are skipped.
type Config struct {
	IntervalMs uint32
	Logger     hal.Logger
	Console    *console.Console
	Buttons    Counter
}

// Status is the status task.
type Status struct {
	cfg   Config
	dirty bool
	lines uint64
	last  string
}

func New(cfg Config) *Status {
	if cfg.IntervalMs == 0 {
		cfg.IntervalMs = 1000
	}
	return &Status{cfg: cfg}
}

// Poke requests a status line before the next interval. It must be called
// from task context.
func (st *Status) Poke() { st.dirty = true }

// Run is the task entry. The line number lives in the task's Ctx slot, so a
// restarted task numbers from one again.
func (st *Status) Run(s *kernel.Scheduler) {
	interval := s.Ms(st.cfg.IntervalMs)
	next := s.Deadline(interval)
	for {
		if s.WaitUntil(next, func() bool { return st.dirty }) {
			st.dirty = false
		} else {
			next += interval
		}
		n := s.Ctx() + 1
		s.SetCtx(n)
		st.print(s, n)
	}
}

func (st *Status) print(s *kernel.Scheduler, n uint64) {
	up := time.Duration(s.CurrentTime()) * s.TickPeriod()
	line := fmt.Sprintf("status %d: up %s", n, up)
	if b := st.cfg.Buttons; b != nil {
		line += fmt.Sprintf(" presses %d holds %d", b.Presses(), b.Holds())
	}
	st.lines = n
	st.last = line

	if l := st.cfg.Logger; l != nil {
		l.WriteLineString(line)
	}
	if c := st.cfg.Console; c != nil {
		c.Println(line)
		_ = c.Flush()
	}
}

// Lines returns the number of the last line printed.
func (st *Status) Lines() uint64 { return st.lines }

// Last returns the last line printed.
func (st *Status) Last() string { return st.last }
