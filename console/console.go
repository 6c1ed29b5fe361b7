// Package console draws text on the board's framebuffer: a scrolling
// terminal for task output and a static screen for fatal faults.
package console

import (
	"errors"
	"fmt"

	"ember/hal"

	"tinygo.org/x/tinyterm"
)

var ErrNoFramebuffer = errors.New("console: no framebuffer")

const (
	fontHeight = glyphHeight
	fontOffset = glyphHeight - 1
)

// Console is a text terminal over a framebuffer. Output becomes visible on
// Flush.
type Console struct {
	fb hal.Framebuffer
	d  *Display
	t  *tinyterm.Terminal
}

// New returns a cleared console on fb.
func New(fb hal.Framebuffer) (*Console, error) {
	if fb == nil {
		return nil, ErrNoFramebuffer
	}
	if fb.Format() != hal.PixelFormatRGB565 {
		return nil, fmt.Errorf("console: unsupported pixel format %d", fb.Format())
	}
	c := &Console{fb: fb, d: NewDisplay(fb)}
	c.reset()
	return c, nil
}

// FromHAL returns a console on the board's display.
func FromHAL(h hal.HAL) (*Console, error) {
	d := h.Display()
	if d == nil {
		return nil, ErrNoFramebuffer
	}
	return New(d.Framebuffer())
}

func (c *Console) reset() {
	c.fb.ClearRGB(0, 0, 0)
	c.t = tinyterm.NewTerminal(c.d)
	c.t.Configure(&tinyterm.Config{
		Font:              Font6x8,
		FontHeight:        fontHeight,
		FontOffset:        fontOffset,
		UseSoftwareScroll: true,
	})
}

// Size returns the console size in characters.
func (c *Console) Size() (cols, rows int) {
	return c.fb.Width() / glyphWidth, c.fb.Height() / fontHeight
}

func (c *Console) Write(p []byte) (int, error) { return c.t.Write(p) }

func (c *Console) Printf(format string, args ...any) {
	_, _ = c.t.Printf(format, args...)
}

func (c *Console) Println(args ...any) {
	_, _ = c.t.Println(args...)
}

// Clear blanks the screen and homes the cursor.
func (c *Console) Clear() {
	c.reset()
}

// Flush presents the framebuffer.
func (c *Console) Flush() error {
	return c.d.Display()
}
