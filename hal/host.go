//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig describes the simulated board.
type HostConfig struct {
	// Out receives log lines and serial output. Defaults to os.Stdout.
	Out io.Writer
	// In feeds the serial port. Nil means no input.
	In io.Reader

	Width, Height int

	// ManualTime keeps the tick timer from free-running: interrupts are only
	// delivered by Step (simulator) or by the window's frame clock.
	ManualTime bool

	// Buttons names the interrupt-capable input pins. Defaults to "BTN".
	Buttons []string

	// LogLED writes a log line on every LED change.
	LogLED bool
}

// Host is the desktop implementation of HAL.
type Host struct {
	logger *hostLogger
	led    *hostLED
	gpio   GPIO
	fb     *hostFramebuffer
	irq    *hostIRQ
	timer  *hostTimer
	serial Serial
}

// New returns a host HAL implementation.
func New() HAL {
	return NewHost(HostConfig{})
}

// NewHost returns a host board built from cfg.
func NewHost(cfg HostConfig) *Host {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 320, 240
	}
	if cfg.Buttons == nil {
		cfg.Buttons = []string{"BTN"}
	}

	logger := &hostLogger{w: cfg.Out}
	irq := newHostIRQ()
	led := &hostLED{logger: logger, log: cfg.LogLED}

	pins := []GPIOPin{newLEDPin("LED", led)}
	for _, name := range cfg.Buttons {
		pins = append(pins, newVirtualPin(name, GPIOCapInput|GPIOCapPullUp|GPIOCapPullDown|GPIOCapInterrupt, irq.Interrupt))
	}
	for i := 0; i < 4; i++ {
		pins = append(pins, newVirtualPin(fmt.Sprintf("GPIO%d", i+1), GPIOCapInput|GPIOCapOutput|GPIOCapPullUp|GPIOCapPullDown, irq.Interrupt))
	}

	return &Host{
		logger: logger,
		led:    led,
		gpio:   newVirtualGPIO(pins),
		fb:     newHostFramebuffer(cfg.Width, cfg.Height),
		irq:    irq,
		timer:  newHostTimer(irq, cfg.ManualTime),
		serial: &hostSerial{r: cfg.In, w: cfg.Out},
	}
}

func (h *Host) Logger() Logger   { return h.logger }
func (h *Host) LED() LED         { return h.led }
func (h *Host) GPIO() GPIO       { return h.gpio }
func (h *Host) Display() Display { return hostDisplay{fb: h.fb} }
func (h *Host) Serial() Serial   { return h.serial }
func (h *Host) IRQ() IRQ         { return h.irq }
func (h *Host) Timer() Timer     { return h.timer }

// Step delivers n timer interrupts. It is meant for ManualTime boards and
// must not be called by the CPU flow while interrupts are disabled.
func (h *Host) Step(n int) { h.timer.Step(n) }

// Ticks returns the number of timer interrupts delivered so far.
func (h *Host) Ticks() uint64 { return h.timer.Ticks() }

// LEDOn reports the LED level.
func (h *Host) LEDOn() bool { return h.led.On() }

// Close stops the timer and parks the CPU flow in its next Idle.
func (h *Host) Close() {
	h.timer.Stop()
	h.irq.Close()
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	on     bool
	log    bool
	logger *hostLogger
}

func (l *hostLED) High() { l.set(true) }
func (l *hostLED) Low()  { l.set(false) }

func (l *hostLED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *hostLED) set(on bool) {
	l.mu.Lock()
	l.on = on
	l.mu.Unlock()
	if !l.log {
		return
	}
	if on {
		l.logger.WriteLineString("led: HIGH")
	} else {
		l.logger.WriteLineString("led: LOW")
	}
}
