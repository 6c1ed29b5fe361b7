//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHostIRQInterruptWaitsForUnmask(t *testing.T) {
	c := newHostIRQ()
	c.Disable()
	if c.Enabled() {
		t.Fatal("expected masked")
	}

	var ran atomic.Bool
	done := make(chan struct{})
	go func() {
		c.Interrupt(func() bool {
			ran.Store(true)
			return false
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Fatal("handler ran while masked")
	}
	c.Enable()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
	if !ran.Load() {
		t.Fatal("handler did not run")
	}
}

func TestHostIRQIdleWakesOnRequest(t *testing.T) {
	c := newHostIRQ()

	idled := make(chan struct{})
	c.Disable()
	go func() {
		c.Idle()
		close(idled)
	}()

	c.Interrupt(func() bool { return false })
	select {
	case <-idled:
		t.Fatal("idle returned without a wake request")
	case <-time.After(20 * time.Millisecond):
	}

	c.Interrupt(func() bool { return true })
	select {
	case <-idled:
	case <-time.After(time.Second):
		t.Fatal("idle did not wake")
	}
	if !c.Enabled() {
		t.Fatal("idle must leave interrupts enabled")
	}
}

func TestHostTimerManual(t *testing.T) {
	c := newHostIRQ()
	tm := newHostTimer(c, true)

	if err := tm.Start(0, nil); err == nil {
		t.Fatal("expected error for zero period")
	}

	var n int
	if err := tm.Start(time.Millisecond, func() bool { n++; return true }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tm.Start(time.Millisecond, func() bool { return true }); !errors.Is(err, ErrTimerRunning) {
		t.Fatalf("second Start = %v, want ErrTimerRunning", err)
	}

	time.Sleep(5 * time.Millisecond)
	if n != 0 {
		t.Fatalf("manual timer fired on its own: %d", n)
	}
	tm.Step(3)
	if n != 3 || tm.Ticks() != 3 {
		t.Fatalf("n=%d ticks=%d, want 3", n, tm.Ticks())
	}

	tm.Stop()
	tm.Step(2)
	if n != 3 {
		t.Fatalf("stopped timer fired: %d", n)
	}
}

func TestHostTimerFreeRunning(t *testing.T) {
	c := newHostIRQ()
	tm := newHostTimer(c, false)

	var n atomic.Int64
	if err := tm.Start(time.Millisecond, func() bool { n.Add(1); return true }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tm.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks", n.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHostButtonRaisesInterrupt(t *testing.T) {
	var out bytes.Buffer
	h := NewHost(HostConfig{Out: &out, ManualTime: true, LogLED: true})

	btn := FindPin(h.GPIO(), "BTN")
	if btn == nil {
		t.Fatal("no BTN pin")
	}
	if err := btn.Configure(GPIOModeInput, GPIOPullUp); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	var presses int
	if err := btn.(GPIOInterrupter).SetInterrupt(EdgeFalling, func(bool) { presses++ }); err != nil {
		t.Fatalf("SetInterrupt: %v", err)
	}
	btn.(GPIODriver).Drive(false)
	btn.(GPIODriver).Drive(true)
	if presses != 1 {
		t.Fatalf("presses = %d", presses)
	}

	// The press left a wake token.
	h.IRQ().Disable()
	h.IRQ().Idle()

	h.LED().High()
	if !h.LEDOn() {
		t.Fatal("LED should be on")
	}
	if !strings.Contains(out.String(), "led: HIGH") {
		t.Fatalf("log = %q", out.String())
	}
	h.Close()
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	boot := func(h HAL) error {
		if err := h.Timer().Start(time.Millisecond, func() bool { return true }); err != nil {
			return err
		}
		for {
			h.IRQ().Disable()
			h.IRQ().Idle()
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := RunHeadless(ctx, boot, HeadlessConfig{Ticks: 10, Poll: time.Millisecond, Board: HostConfig{Out: &bytes.Buffer{}}})
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
}

func TestRunHeadlessBootError(t *testing.T) {
	want := errors.New("no display")
	err := RunHeadless(context.Background(), func(HAL) error { return want }, HeadlessConfig{Board: HostConfig{Out: &bytes.Buffer{}}})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}
