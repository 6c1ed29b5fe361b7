// Package ktest runs a scheduler deterministically for tests of code built
// on the kernel: no real interrupts, and one tick per idle iteration.
package ktest

import (
	"testing"
	"time"

	"ember/kernel"

	"github.com/stretchr/testify/require"
)

// IRQ is an interrupt mask with no interrupt source behind it. Tests call
// handlers directly from the goroutine driving the run loop.
type IRQ struct {
	enabled bool
}

func (q *IRQ) Disable()      { q.enabled = false }
func (q *IRQ) Enable()       { q.enabled = true }
func (q *IRQ) Enabled() bool { return q.enabled }

// Rig owns a scheduler whose idle hook delivers exactly one tick, so an idle
// iteration of the run loop equals one timer period.
type Rig struct {
	T      testing.TB
	IRQ    *IRQ
	K      *kernel.Scheduler
	Faults []kernel.Fault
	Idles  int
}

// New builds a rig. A zero TickPeriod defaults to one millisecond; the
// interrupt, idle and fatal hooks of cfg are replaced.
func New(t testing.TB, cfg kernel.Config, tasks ...*kernel.Task) *Rig {
	t.Helper()
	r := &Rig{T: t, IRQ: &IRQ{enabled: true}}
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = time.Millisecond
	}
	cfg.Interrupts = r.IRQ
	cfg.Idle = func() {
		r.Idles++
		r.IRQ.Enable()
		r.K.Tick()
	}
	cfg.Fatal = func(f kernel.Fault) { r.Faults = append(r.Faults, f) }
	k, err := kernel.NewChecked(cfg, tasks...)
	require.NoError(t, err)
	r.K = k
	return r
}

// Until runs the loop until done reports true, failing after max
// iterations.
func (r *Rig) Until(max int, done func() bool) {
	r.T.Helper()
	for i := 0; i < max; i++ {
		if done() {
			return
		}
		r.K.RunOnce()
	}
	require.True(r.T, done(), "condition not reached after %d iterations", max)
}

// Steps runs n loop iterations.
func (r *Rig) Steps(n int) {
	for i := 0; i < n; i++ {
		r.K.RunOnce()
	}
}

// Settle runs the loop until it idles once, so every task has blocked.
func (r *Rig) Settle() {
	r.T.Helper()
	idles := r.Idles
	r.Until(1000, func() bool { return r.Idles > idles })
}

// Stack returns a task stack of n words.
func Stack(n int) []uintptr { return make([]uintptr, n) }
