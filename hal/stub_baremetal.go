//go:build tinygo && baremetal

package hal

// ramFramebuffer is a framebuffer with no panel behind it. Drawing works,
// Present reports that nothing can show it.
type ramFramebuffer struct {
	w   int
	h   int
	buf []byte
}

func newRAMFramebuffer(w, h int) *ramFramebuffer {
	return &ramFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *ramFramebuffer) Width() int          { return f.w }
func (f *ramFramebuffer) Height() int         { return f.h }
func (f *ramFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *ramFramebuffer) StrideBytes() int    { return f.w * 2 }
func (f *ramFramebuffer) Buffer() []byte      { return f.buf }

func (f *ramFramebuffer) ClearRGB(r, g, b uint8) {
	pixel := RGB565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = byte(pixel)
		f.buf[i+1] = byte(pixel >> 8)
	}
}

func (f *ramFramebuffer) Present() error { return ErrNotImplemented }
