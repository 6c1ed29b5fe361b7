package button

import (
	"testing"

	"ember/hal"
	"ember/kernel"
	"ember/kernel/ktest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePin struct {
	caps    hal.GPIOCaps
	level   bool
	pull    hal.GPIOPull
	edge    hal.Edge
	handler func(bool)
}

func (p *fakePin) Name() string       { return "BTN" }
func (p *fakePin) Caps() hal.GPIOCaps { return p.caps }
func (p *fakePin) Configure(mode hal.GPIOMode, pull hal.GPIOPull) error {
	p.pull = pull
	return nil
}
func (p *fakePin) Read() (bool, error) { return p.level, nil }
func (p *fakePin) Write(bool) error    { return hal.ErrNotImplemented }

func (p *fakePin) SetInterrupt(edge hal.Edge, handler func(bool)) error {
	p.edge, p.handler = edge, handler
	return nil
}

// set changes the level and runs the handler like the interrupt would.
func (p *fakePin) set(level bool) {
	if p.level == level {
		return
	}
	p.level = level
	p.handler(level)
}

func newPin() *fakePin {
	return &fakePin{caps: hal.GPIOCapInput | hal.GPIOCapPullUp | hal.GPIOCapInterrupt, level: true}
}

func setup(t *testing.T, pin *fakePin, holdMs uint32) (*ktest.Rig, *Button, *[]Event) {
	t.Helper()
	var events []Event
	b, err := New(pin, holdMs, func(e Event) { events = append(events, e) })
	require.NoError(t, err)
	r := ktest.New(t, kernel.Config{}, kernel.NewTask("button", ktest.Stack(64), b.Run, kernel.AutoStart()))
	r.Settle()
	return r, b, &events
}

func TestNewConfiguresPin(t *testing.T) {
	pin := newPin()
	b, err := New(pin, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "BTN", b.Name())
	assert.Equal(t, hal.GPIOPullUp, pin.pull)
	assert.Equal(t, hal.EdgeBoth, pin.edge)
	assert.NotNil(t, pin.handler)

	_, err = New(&fakePin{caps: hal.GPIOCapInput}, 10, nil)
	assert.ErrorIs(t, err, ErrNoInterrupt)

	_, err = New(nil, 10, nil)
	assert.Error(t, err)
}

func TestShortPress(t *testing.T) {
	pin := newPin()
	r, b, events := setup(t, pin, 10)

	start := r.K.CurrentTime()
	pin.set(false)
	r.Until(100, func() bool { return r.K.CurrentTime() == start+5 })
	assert.Empty(t, *events)

	pin.set(true)
	r.Until(10, func() bool { return b.Presses() == 1 })
	assert.Equal(t, []Event{Press}, *events)
	assert.Zero(t, b.Holds())
	assert.Empty(t, r.Faults)
}

func TestHold(t *testing.T) {
	pin := newPin()
	r, b, events := setup(t, pin, 10)

	start := r.K.CurrentTime()
	pin.set(false)
	r.Until(100, func() bool { return b.Holds() == 1 })
	assert.Equal(t, start+DebounceMs+10, r.K.CurrentTime())
	assert.Equal(t, []Event{Hold}, *events)

	// Still held: no further events until released and pressed again.
	r.Steps(50)
	assert.Equal(t, []Event{Hold}, *events)

	pin.set(true)
	r.Steps(10)
	pin.set(false)
	r.Steps(3)
	pin.set(true)
	r.Until(20, func() bool { return b.Presses() == 1 })
	assert.Equal(t, []Event{Hold, Press}, *events)
}

func TestTapBetweenDispatches(t *testing.T) {
	pin := newPin()
	r, b, events := setup(t, pin, 10)

	pin.set(false)
	pin.set(true)
	r.Until(20, func() bool { return b.Presses() == 1 })
	assert.Equal(t, []Event{Press}, *events)
}

func TestButtonDownAtStartMustBeReleased(t *testing.T) {
	pin := newPin()
	pin.level = false
	r, b, events := setup(t, pin, 10)

	r.Steps(50)
	assert.Empty(t, *events)

	pin.set(true)
	r.Steps(5)
	pin.set(false)
	pin.set(true)
	r.Until(20, func() bool { return b.Presses() == 1 })
	assert.Equal(t, []Event{Press}, *events)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "press", Press.String())
	assert.Equal(t, "hold", Hold.String())
}
