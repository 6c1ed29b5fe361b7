//go:build !tinygo

package hal

import "sync"

// hostIRQ models the interrupt mask of a single-core CPU on top of
// goroutines. mu is held for as long as interrupts are disabled, so a
// handler running through Interrupt waits until the CPU unmasks. masked is
// only touched by the CPU flow.
type hostIRQ struct {
	mu     sync.Mutex
	masked bool

	wake chan struct{}
	quit chan struct{}
	once sync.Once
}

func newHostIRQ() *hostIRQ {
	return &hostIRQ{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

func (c *hostIRQ) Disable() {
	if c.masked {
		return
	}
	c.mu.Lock()
	c.masked = true
}

func (c *hostIRQ) Enable() {
	if !c.masked {
		return
	}
	c.masked = false
	c.mu.Unlock()
}

func (c *hostIRQ) Enabled() bool { return !c.masked }

// Idle enables interrupts and blocks until a handler returns true. A wake
// token left by an earlier handler makes it return at once. Once the
// controller is closed the CPU sleeps for good.
func (c *hostIRQ) Idle() {
	c.Enable()
	select {
	case <-c.wake:
	case <-c.quit:
		select {}
	}
}

// Interrupt runs isr as an interrupt handler. It must not be called from
// the CPU flow while interrupts are disabled.
func (c *hostIRQ) Interrupt(isr func() bool) {
	c.mu.Lock()
	woke := isr()
	c.mu.Unlock()
	if woke {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
}

// Close powers the CPU down: its next Idle never returns.
func (c *hostIRQ) Close() {
	c.once.Do(func() { close(c.quit) })
}
