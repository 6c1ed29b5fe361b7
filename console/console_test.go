package console

import (
	"image/color"
	"testing"

	"ember/hal"
	"ember/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newFakeFB(w, h int) *fakeFB {
	return &fakeFB{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *fakeFB) Width() int              { return f.w }
func (f *fakeFB) Height() int             { return f.h }
func (f *fakeFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFB) StrideBytes() int        { return f.w * 2 }
func (f *fakeFB) Buffer() []byte          { return f.buf }
func (f *fakeFB) Present() error          { f.presents++; return nil }

func (f *fakeFB) pixel(x, y int) uint16 {
	o := y*f.w*2 + x*2
	return uint16(f.buf[o]) | uint16(f.buf[o+1])<<8
}

func (f *fakeFB) ClearRGB(r, g, b uint8) {
	p := hal.RGB565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i], f.buf[i+1] = byte(p), byte(p>>8)
	}
}

// lit counts pixels in rows [y0, y1) that differ from black.
func (f *fakeFB) lit(y0, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := 0; x < f.w; x++ {
			if f.pixel(x, y) != 0 {
				n++
			}
		}
	}
	return n
}

var white = color.RGBA{255, 255, 255, 255}

func TestDisplaySetPixelClips(t *testing.T) {
	fb := newFakeFB(4, 3)
	d := NewDisplay(fb)

	d.SetPixel(1, 2, color.RGBA{R: 255, A: 255})
	assert.Equal(t, uint16(0xF800), fb.pixel(1, 2))
	assert.Equal(t, byte(0x00), fb.buf[(2*4+1)*2])
	assert.Equal(t, byte(0xF8), fb.buf[(2*4+1)*2+1])

	for _, p := range [][2]int16{{-1, 0}, {4, 0}, {0, -1}, {0, 3}} {
		d.SetPixel(p[0], p[1], white)
	}
	assert.Equal(t, 1, fb.lit(0, 3))
}

func TestDisplayFillRectangleClips(t *testing.T) {
	fb := newFakeFB(8, 8)
	d := NewDisplay(fb)

	require.NoError(t, d.FillRectangle(-2, 6, 4, 10, white))
	assert.Equal(t, 4, fb.lit(0, 8))
	assert.Equal(t, uint16(0xFFFF), fb.pixel(1, 7))
	assert.Zero(t, fb.pixel(2, 7))

	require.NoError(t, d.FillRectangle(9, 9, 3, 3, white))
	require.NoError(t, d.FillRectangle(0, 0, 0, 5, white))
	assert.Equal(t, 4, fb.lit(0, 8))
}

func TestDisplayScrollUp(t *testing.T) {
	fb := newFakeFB(2, 4)
	d := NewDisplay(fb)
	d.SetPixel(0, 3, white)

	require.NoError(t, d.ScrollUp(2, color.RGBA{}))
	assert.Equal(t, uint16(0xFFFF), fb.pixel(0, 1))
	assert.Equal(t, 1, fb.lit(0, 4))

	require.NoError(t, d.ScrollUp(10, white))
	assert.Equal(t, 8, fb.lit(0, 4))
}

type recorder struct {
	pixels map[[2]int16]bool
}

func (r *recorder) Size() (int16, int16)              { return 100, 100 }
func (r *recorder) SetPixel(x, y int16, _ color.RGBA) { r.pixels[[2]int16{x, y}] = true }
func (r *recorder) Display() error                    { return nil }

func TestFontGlyph(t *testing.T) {
	r := &recorder{pixels: map[[2]int16]bool{}}
	Font6x8.GetGlyph('|').Draw(r, 10, 20, white)

	want := map[[2]int16]bool{}
	for y := int16(13); y <= 19; y++ {
		want[[2]int16{12, y}] = true
	}
	assert.Equal(t, want, r.pixels)

	info := Font6x8.GetGlyph('A').Info()
	assert.EqualValues(t, 6, info.XAdvance)
	assert.EqualValues(t, 8, Font6x8.GetYAdvance())
	assert.Equal(t, glyphIndex('?'), glyphIndex('é'))
	assert.Equal(t, glyphIndex('?'), glyphIndex('\n'))
	assert.Len(t, glyphData, (lastRune-firstRune+1)*glyphCols)
}

func TestConsolePrintsAndFlushes(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoFramebuffer)

	fb := newFakeFB(64, 16)
	c, err := New(fb)
	require.NoError(t, err)

	cols, rows := c.Size()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 2, rows)

	c.Println("hi")
	assert.NotZero(t, fb.lit(0, 8))
	assert.Zero(t, fb.lit(8, 16))
	assert.Zero(t, fb.presents)

	require.NoError(t, c.Flush())
	assert.Equal(t, 1, fb.presents)

	c.Clear()
	assert.Zero(t, fb.lit(0, 16))
}

// colors returns the distinct non-black pixel values in rows [y0, y1).
func (f *fakeFB) colors(y0, y1 int) map[uint16]bool {
	seen := map[uint16]bool{}
	for y := y0; y < y1; y++ {
		for x := 0; x < f.w; x++ {
			if p := f.pixel(x, y); p != 0 {
				seen[p] = true
			}
		}
	}
	return seen
}

func TestConsoleColors(t *testing.T) {
	fb := newFakeFB(64, 16)
	c, err := New(fb)
	require.NoError(t, err)

	tests := []struct {
		text string
		want uint16
	}{
		{text: "|", want: hal.RGB565(0xFF, 0xFF, 0xFF)},
		{text: "\x1b[31m|", want: hal.RGB565(0x80, 0, 0)},
		{text: "\x1b[1m\x1b[31m|", want: hal.RGB565(0xFF, 0, 0)},
		{text: "\x1b[32m\x1b[0m|", want: hal.RGB565(0xFF, 0xFF, 0xFF)},
	}
	for _, tt := range tests {
		c.Clear()
		c.Printf("%s", tt.text)
		assert.Equal(t, map[uint16]bool{tt.want: true}, fb.colors(0, 8), "%q", tt.text)
	}
}

func TestConsoleScrolls(t *testing.T) {
	fb := newFakeFB(12, 16)
	c, err := New(fb)
	require.NoError(t, err)
	c.Println("a")
	c.Println("b")
	c.Printf("c")

	ref := newFakeFB(12, 16)
	rc, err := New(ref)
	require.NoError(t, err)
	rc.Println("b")

	assert.Equal(t, ref.buf[:12*8*2], fb.buf[:12*8*2])
	assert.NotZero(t, fb.lit(8, 16))
}

func TestFaultLines(t *testing.T) {
	lines := FaultLines(kernel.Fault{Code: kernel.FaultStackOverflow, Task: 1, Name: "button", Tick: 42})
	assert.Equal(t, []string{
		"*** FATAL ***",
		"fault: stack overflow (1)",
		"task: 1 button",
		"tick: 42",
	}, lines)

	lines = FaultLines(kernel.Fault{Code: kernel.FaultPanic, Task: -1, Value: "boom"})
	assert.Contains(t, lines, "task: main")
	assert.Contains(t, lines, "value: boom")
}

func TestFaultScreen(t *testing.T) {
	assert.ErrorIs(t, FaultScreen(nil, kernel.Fault{}), ErrNoFramebuffer)

	fb := newFakeFB(120, 64)
	require.NoError(t, FaultScreen(fb, kernel.Fault{Code: kernel.FaultPanic, Task: 0, Name: "blink"}))
	assert.Equal(t, 1, fb.presents)
	assert.Equal(t, hal.RGB565(0x80, 0, 0), fb.pixel(119, 63))

	text := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 120; x++ {
			if fb.pixel(x, y) == 0xFFFF {
				text++
			}
		}
	}
	assert.NotZero(t, text)
}

func TestDrawLinesWrapsAndClips(t *testing.T) {
	d := NewDisplay(newFakeFB(30, 64))
	assert.Equal(t, 3, DrawLines(d, 0, 0, []string{"abcdefghij", ""}, white))
	assert.Equal(t, 3, DrawLines(d, 0, 0, []string{"abcdefghijk"}, white))

	short := NewDisplay(newFakeFB(30, 16))
	assert.Equal(t, 2, DrawLines(short, 0, 0, []string{"abcdefghijk"}, white))
	assert.Zero(t, DrawLines(NewDisplay(newFakeFB(4, 16)), 0, 0, []string{"a"}, white))
}

func TestTakeRunes(t *testing.T) {
	tests := []struct {
		in         string
		n          int
		head, tail string
	}{
		{"abc", 2, "ab", "c"},
		{"abc", 5, "abc", ""},
		{"äöü", 2, "äö", "ü"},
		{"abc", 0, "", "abc"},
	}
	for _, tt := range tests {
		head, tail := takeRunes(tt.in, tt.n)
		assert.Equal(t, tt.head, head, tt.in)
		assert.Equal(t, tt.tail, tail, tt.in)
	}
}
