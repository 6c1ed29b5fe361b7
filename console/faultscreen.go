package console

import (
	"fmt"
	"image/color"
	"unicode/utf8"

	"ember/hal"
	"ember/kernel"

	"tinygo.org/x/tinyfont"
)

var (
	faultBG = [3]uint8{0x80, 0, 0}
	faultFG = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// FaultLines formats f for the fault screen.
func FaultLines(f kernel.Fault) []string {
	lines := []string{
		"*** FATAL ***",
		fmt.Sprintf("fault: %s (%d)", f.Code, uint8(f.Code)),
	}
	switch {
	case f.Name != "":
		lines = append(lines, fmt.Sprintf("task: %d %s", f.Task, f.Name))
	case f.Task < 0:
		lines = append(lines, "task: main")
	default:
		lines = append(lines, fmt.Sprintf("task: %d", f.Task))
	}
	lines = append(lines, fmt.Sprintf("tick: %d", f.Tick))
	if f.Value != nil {
		lines = append(lines, fmt.Sprintf("value: %v", f.Value))
	}
	return lines
}

// FaultScreen paints f on fb and presents it. It does not touch any state
// other than the framebuffer, so it is safe to call from the fatal hook.
func FaultScreen(fb hal.Framebuffer, f kernel.Fault) error {
	if fb == nil {
		return ErrNoFramebuffer
	}
	fb.ClearRGB(faultBG[0], faultBG[1], faultBG[2])
	DrawLines(NewDisplay(fb), 0, 0, FaultLines(f), faultFG)
	return fb.Present()
}

// DrawLines draws lines from (x0, y0), wrapping long ones at the right edge
// and dropping what does not fit below. It returns the number of rows drawn.
func DrawLines(d *Display, x0, y0 int16, lines []string, fg color.RGBA) int {
	w, h := d.Size()
	cols := (w - x0) / glyphWidth
	if cols <= 0 {
		return 0
	}
	rows := 0
	y := y0
	for _, line := range lines {
		for first := true; first || line != ""; first = false {
			if y+fontHeight > h {
				return rows
			}
			var chunk string
			chunk, line = takeRunes(line, int(cols))
			drawText(d, x0, y, chunk, fg)
			y += fontHeight
			rows++
		}
	}
	return rows
}

func drawText(d *Display, x, y int16, s string, fg color.RGBA) {
	for _, r := range s {
		tinyfont.DrawChar(d, Font6x8, x, y+fontOffset, r, fg)
		x += glyphWidth
	}
}

// takeRunes splits s after n runes.
func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 {
		return "", s
	}
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
