//go:build tinygo && baremetal

package hal

import (
	"fmt"
	"runtime/interrupt"
	"time"
)

// tinyGoIRQ masks interrupts with PRIMASK. The tick "interrupt" is a
// goroutine, so Idle blocks on a channel and lets the TinyGo scheduler sleep
// the core until the timer goroutine runs.
type tinyGoIRQ struct {
	state  interrupt.State
	masked bool
	wake   chan struct{}
}

func newTinyGoIRQ() *tinyGoIRQ {
	return &tinyGoIRQ{wake: make(chan struct{}, 1)}
}

func (c *tinyGoIRQ) Disable() {
	if c.masked {
		return
	}
	c.state = interrupt.Disable()
	c.masked = true
}

func (c *tinyGoIRQ) Enable() {
	if !c.masked {
		return
	}
	c.masked = false
	interrupt.Restore(c.state)
}

func (c *tinyGoIRQ) Enabled() bool { return !c.masked }

func (c *tinyGoIRQ) Idle() {
	c.Enable()
	<-c.wake
}

// interrupt runs isr with interrupts masked. It is called from goroutines
// only; hardware handlers must not touch channels.
func (c *tinyGoIRQ) interrupt(isr func() bool) {
	st := interrupt.Disable()
	woke := isr()
	interrupt.Restore(st)
	if woke {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
}

// tinyGoTimer counts elapsed periods on a goroutine. Goroutines only run
// while the CPU flow idles, so it delivers every period that elapsed since
// its last turn.
type tinyGoTimer struct {
	irq  *tinyGoIRQ
	isr  func() bool
	stop chan struct{}
}

func newTinyGoTimer(irq *tinyGoIRQ) *tinyGoTimer {
	return &tinyGoTimer{irq: irq}
}

func (t *tinyGoTimer) Start(period time.Duration, isr func() bool) error {
	if period <= 0 {
		return fmt.Errorf("hal: invalid timer period %v", period)
	}
	if t.isr != nil {
		return ErrTimerRunning
	}
	t.isr = isr
	t.stop = make(chan struct{})
	go t.loop(period, isr, t.stop)
	return nil
}

func (t *tinyGoTimer) Stop() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.isr = nil
}

func (t *tinyGoTimer) loop(period time.Duration, isr func() bool, stop chan struct{}) {
	last := time.Now()
	for {
		time.Sleep(period)
		select {
		case <-stop:
			return
		default:
		}
		now := time.Now()
		n := now.Sub(last) / period
		last = last.Add(n * period)
		for ; n > 0; n-- {
			t.irq.interrupt(isr)
		}
	}
}
