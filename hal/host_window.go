//go:build !tinygo && cgo

package hal

import (
	"fmt"
	"image"

	"ember/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	// Scale is the window size multiplier. Defaults to 2.
	Scale int
	Board HostConfig
}

// RunWindow starts a desktop window that displays the framebuffer and maps
// the space bar to the first button. The tick timer follows the window's
// frame clock. It blocks until the window closes.
func RunWindow(boot func(HAL) error, cfg WindowConfig) error {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	cfg.Board.ManualTime = true
	h := NewHost(cfg.Board)
	defer h.Close()

	g := &hostGame{h: h, errc: make(chan error, 1)}
	if len(cfg.Board.Buttons) > 0 {
		g.button = FindPin(h.gpio, cfg.Board.Buttons[0])
	} else {
		g.button = FindPin(h.gpio, "BTN")
	}
	go func() {
		g.errc <- boot(h)
	}()

	ebiten.SetWindowTitle("Ember (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*cfg.Scale, h.fb.height*cfg.Scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *Host
	button  GPIOPin
	pressed bool
	errc    chan error

	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	frame   uint64
}

func (g *hostGame) Update() error {
	select {
	case err := <-g.errc:
		if err != nil {
			return fmt.Errorf("boot: %w", err)
		}
		return ebiten.Termination
	default:
	}

	pressed := ebiten.IsKeyPressed(ebiten.KeySpace)
	if d, ok := g.button.(GPIODriver); ok && pressed != g.pressed {
		g.pressed = pressed
		// Buttons pull up and read low while pressed.
		if err := d.Drive(!pressed); err != nil {
			return err
		}
	}
	g.h.timer.catchUp()
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil || g.img.Bounds().Dx() != fb.width || g.img.Bounds().Dy() != fb.height {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.frame = ^uint64(0)
	}

	if frame := fb.snapshotRGB565(g.scratch); frame != g.frame {
		g.frame = frame
		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
			r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
			j := (i / 2) * 4
			dst[j+0] = r
			dst[j+1] = gg
			dst[j+2] = b
			dst[j+3] = 0xFF
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
