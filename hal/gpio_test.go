package hal

import "testing"

func TestVirtualPinPullSetsIdleLevel(t *testing.T) {
	pin := newVirtualPin("BTN", GPIOCapInput|GPIOCapPullUp|GPIOCapPullDown, nil)

	if err := pin.Configure(GPIOModeInput, GPIOPullUp); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	level, err := pin.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !level {
		t.Fatal("expected high with pull-up")
	}

	if err := pin.Configure(GPIOModeInput, GPIOPullDown); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if level, _ := pin.Read(); level {
		t.Fatal("expected low with pull-down")
	}

	if err := pin.Configure(GPIOModeOutput, GPIOPullNone); err == nil {
		t.Fatal("expected error for unsupported output")
	}
}

func TestVirtualPinInterruptEdges(t *testing.T) {
	var raised int
	raise := func(isr func() bool) {
		raised++
		if !isr() {
			t.Fatal("pin handlers must wake the CPU")
		}
	}
	pin := newVirtualPin("BTN", GPIOCapInput|GPIOCapPullUp|GPIOCapInterrupt, raise)
	if err := pin.Configure(GPIOModeInput, GPIOPullUp); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	var levels []bool
	if err := pin.SetInterrupt(EdgeFalling, func(level bool) { levels = append(levels, level) }); err != nil {
		t.Fatalf("SetInterrupt: %v", err)
	}

	steps := []bool{true, false, false, true, false}
	for _, level := range steps {
		if err := pin.Drive(level); err != nil {
			t.Fatalf("Drive(%v): %v", level, err)
		}
	}
	if len(levels) != 2 || levels[0] || levels[1] {
		t.Fatalf("falling edges = %v, want [false false]", levels)
	}
	if raised != 2 {
		t.Fatalf("raised = %d, want 2", raised)
	}

	levels = nil
	if err := pin.SetInterrupt(EdgeBoth, func(level bool) { levels = append(levels, level) }); err != nil {
		t.Fatalf("SetInterrupt: %v", err)
	}
	pin.Drive(true)
	pin.Drive(false)
	if len(levels) != 2 || !levels[0] || levels[1] {
		t.Fatalf("both edges = %v, want [true false]", levels)
	}

	if err := pin.SetInterrupt(0, func(bool) {}); err == nil {
		t.Fatal("expected error for empty edge set")
	}
}

func TestVirtualPinWithoutInterruptCap(t *testing.T) {
	pin := newVirtualPin("GPIO1", GPIOCapInput|GPIOCapOutput, nil)
	if err := pin.SetInterrupt(EdgeBoth, func(bool) {}); err == nil {
		t.Fatal("expected error")
	}
	pin.Configure(GPIOModeOutput, GPIOPullNone)
	if err := pin.Drive(true); err == nil {
		t.Fatal("expected error driving an output")
	}
}

type countLED struct{ high, low int }

func (l *countLED) High() { l.high++ }
func (l *countLED) Low()  { l.low++ }

func TestFindPinAndLEDPin(t *testing.T) {
	led := &countLED{}
	g := newVirtualGPIO([]GPIOPin{
		newLEDPin("LED", led),
		newVirtualPin("BTN", GPIOCapInput, nil),
	})

	if FindPin(g, "nope") != nil {
		t.Fatal("unexpected pin")
	}
	if FindPin(nil, "LED") != nil {
		t.Fatal("unexpected pin from nil GPIO")
	}
	p := FindPin(g, "LED")
	if p == nil {
		t.Fatal("LED pin not found")
	}
	if err := p.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	p.Write(true)
	p.Write(false)
	p.Write(true)
	if led.high != 2 || led.low != 1 {
		t.Fatalf("led high=%d low=%d", led.high, led.low)
	}
	if level, _ := p.Read(); !level {
		t.Fatal("expected LED pin high")
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	for _, c := range [][3]uint8{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255}} {
		r, g, b := rgb888From565(RGB565(c[0], c[1], c[2]))
		if r != c[0] || g != c[1] || b != c[2] {
			t.Fatalf("%v -> %d,%d,%d", c, r, g, b)
		}
	}
}
