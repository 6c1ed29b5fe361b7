package status

import (
	"testing"

	"ember/console"
	"ember/hal"
	"ember/kernel"
	"ember/kernel/ktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lines struct{ got []string }

func (l *lines) WriteLineString(s string) { l.got = append(l.got, s) }
func (l *lines) WriteLineBytes(b []byte)  { l.got = append(l.got, string(b)) }

type counts struct{ presses, holds uint64 }

func (c *counts) Presses() uint64 { return c.presses }
func (c *counts) Holds() uint64   { return c.holds }

type fb struct {
	buf      []byte
	presents int
}

func (f *fb) Width() int              { return 120 }
func (f *fb) Height() int             { return 32 }
func (f *fb) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fb) StrideBytes() int        { return 240 }
func (f *fb) Buffer() []byte          { return f.buf }
func (f *fb) ClearRGB(r, g, b uint8)  {}
func (f *fb) Present() error          { f.presents++; return nil }

func setup(t *testing.T, cfg Config) (*ktest.Rig, *Status, *kernel.Task) {
	t.Helper()
	st := New(cfg)
	task := kernel.NewTask("status", ktest.Stack(64), st.Run, kernel.AutoStart())
	return ktest.New(t, kernel.Config{}, task), st, task
}

func TestStatusPrintsEveryInterval(t *testing.T) {
	log := &lines{}
	c := &counts{presses: 2, holds: 1}
	r, st, _ := setup(t, Config{IntervalMs: 10, Logger: log, Buttons: c})

	r.Until(100, func() bool { return st.Lines() == 3 })
	assert.Equal(t, []string{
		"status 1: up 10ms presses 2 holds 1",
		"status 2: up 20ms presses 2 holds 1",
		"status 3: up 30ms presses 2 holds 1",
	}, log.got)
	assert.Equal(t, log.got[2], st.Last())
	assert.Empty(t, r.Faults)
}

func TestStatusPokePrintsEarly(t *testing.T) {
	log := &lines{}
	r, st, _ := setup(t, Config{IntervalMs: 10, Logger: log})

	r.Until(100, func() bool { return r.K.CurrentTime() == 4 })
	st.Poke()
	r.Until(5, func() bool { return st.Lines() == 1 })
	assert.Equal(t, "status 1: up 4ms", st.Last())

	// The schedule is not shifted by the poke.
	r.Until(100, func() bool { return st.Lines() == 2 })
	assert.Equal(t, "status 2: up 10ms", st.Last())
}

func TestStatusRestartNumbersFromOne(t *testing.T) {
	r, st, task := setup(t, Config{IntervalMs: 5})

	r.Until(100, func() bool { return st.Lines() == 2 })
	r.K.Stop(task)
	r.K.Start(task)
	r.Until(100, func() bool { return st.Lines() == 1 })
	assert.Equal(t, "status 1: up 15ms", st.Last())
}

func TestStatusDrawsOnConsole(t *testing.T) {
	f := &fb{buf: make([]byte, 240*32)}
	con, err := console.New(f)
	require.NoError(t, err)
	r, st, _ := setup(t, Config{IntervalMs: 2, Console: con})

	r.Until(100, func() bool { return st.Lines() == 2 })
	assert.Equal(t, 2, f.presents)
	lit := 0
	for _, b := range f.buf {
		if b != 0 {
			lit++
		}
	}
	assert.NotZero(t, lit)
}
