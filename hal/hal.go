package hal

import (
	"errors"
	"io"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrTimerRunning   = errors.New("hal: timer already running")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Serial is a byte stream to the outside world, usually the debug UART.
type Serial interface {
	io.Reader
	io.Writer
}

// IRQ is the interrupt controller of a single-core CPU.
//
// Disable, Enable and Enabled are only called from the CPU's own flow of
// control (the run loop and the tasks it dispatches). Interrupt handlers
// never run while interrupts are disabled.
type IRQ interface {
	Disable()
	Enable()
	Enabled() bool
	// Idle is called with interrupts disabled. It enables them and returns
	// after a handler asked for the CPU to wake up.
	Idle()
}

// Timer delivers a periodic interrupt.
type Timer interface {
	// Start calls isr from interrupt context every period. The handler's
	// result tells whether the CPU must leave Idle.
	Start(period time.Duration, isr func() bool) error
	Stop()
}

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	GPIO() GPIO
	Display() Display
	Serial() Serial
	IRQ() IRQ
	Timer() Timer
}
