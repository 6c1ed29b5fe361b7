//go:build !tinygo

package hal

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// maxCatchUp bounds the ticks delivered by one catchUp call after the host
// stalled (window dragged, debugger stop).
const maxCatchUp = 250

// hostTimer delivers the tick interrupt either from a time.Ticker or, in
// manual mode, only when Step or catchUp is called.
type hostTimer struct {
	irq    *hostIRQ
	manual bool

	mu     sync.Mutex
	isr    func() bool
	period time.Duration
	stop   chan struct{}

	count atomic.Uint64

	last time.Time
	acc  time.Duration
}

func newHostTimer(irq *hostIRQ, manual bool) *hostTimer {
	return &hostTimer{irq: irq, manual: manual}
}

func (t *hostTimer) Start(period time.Duration, isr func() bool) error {
	if period <= 0 {
		return fmt.Errorf("hal: invalid timer period %v", period)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isr != nil {
		return ErrTimerRunning
	}
	t.isr = isr
	t.period = period
	if t.manual {
		return nil
	}

	stop := make(chan struct{})
	t.stop = stop
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.fire(isr)
			}
		}
	}()
	return nil
}

func (t *hostTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.isr = nil
}

// Ticks returns how many interrupts were delivered.
func (t *hostTimer) Ticks() uint64 { return t.count.Load() }

// Step delivers n interrupts now.
func (t *hostTimer) Step(n int) {
	isr := t.handler()
	if isr == nil {
		return
	}
	for i := 0; i < n; i++ {
		t.fire(isr)
	}
}

// catchUp delivers the interrupts owed for the wall time elapsed since the
// previous call.
func (t *hostTimer) catchUp() {
	t.mu.Lock()
	isr, period := t.isr, t.period
	now := time.Now()
	if isr == nil || t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.mu.Unlock()
		return
	}
	t.acc += now.Sub(t.last)
	t.last = now
	n := int(t.acc / period)
	t.acc %= period
	t.mu.Unlock()

	if n > maxCatchUp {
		n = maxCatchUp
	}
	for i := 0; i < n; i++ {
		t.fire(isr)
	}
}

func (t *hostTimer) handler() func() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isr
}

func (t *hostTimer) fire(isr func() bool) {
	t.irq.Interrupt(isr)
	t.count.Add(1)
}
