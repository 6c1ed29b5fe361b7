package blink

import (
	"testing"

	"ember/kernel"
	"ember/kernel/ktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type led struct{ levels []bool }

func (l *led) High() { l.levels = append(l.levels, true) }
func (l *led) Low()  { l.levels = append(l.levels, false) }

func TestBlinkerTogglesEveryPeriod(t *testing.T) {
	l := &led{}
	b := New(l, 5)
	r := ktest.New(t, kernel.Config{}, kernel.NewTask("blink", ktest.Stack(64), b.Run, kernel.AutoStart()))

	r.K.RunOnce()
	require.Equal(t, []bool{true}, l.levels)

	var at []kernel.Ticks
	seen := len(l.levels)
	r.Until(100, func() bool {
		if len(l.levels) != seen {
			seen = len(l.levels)
			at = append(at, r.K.CurrentTime())
		}
		return len(l.levels) == 4
	})
	assert.Equal(t, []kernel.Ticks{5, 10, 15}, at)
	assert.Equal(t, []bool{true, false, true, false}, l.levels)
	assert.Equal(t, uint64(4), b.Toggles())
	assert.False(t, b.On())
	assert.Empty(t, r.Faults)
}

func TestBlinkerWithoutLED(t *testing.T) {
	b := New(nil, 0)
	r := ktest.New(t, kernel.Config{}, kernel.NewTask("blink", ktest.Stack(64), b.Run, kernel.AutoStart()))
	r.Steps(5)
	assert.Equal(t, uint64(3), b.Toggles())
}
