//go:build tinygo && baremetal

package hal

import (
	"fmt"
	"machine"
)

// machinePin is a real MCU pin. Interrupt handlers run in hardware
// interrupt context.
type machinePin struct {
	name string
	pin  machine.Pin
	mode GPIOMode
}

func newMachinePin(name string, pin machine.Pin) *machinePin {
	return &machinePin{name: name, pin: pin}
}

func (p *machinePin) Name() string { return p.name }

func (p *machinePin) Caps() GPIOCaps {
	return GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown | GPIOCapInterrupt
}

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	var cfg machine.PinConfig
	switch mode {
	case GPIOModeOutput:
		cfg.Mode = machine.PinOutput
	case GPIOModeInput:
		switch pull {
		case GPIOPullNone:
			cfg.Mode = machine.PinInput
		case GPIOPullUp:
			cfg.Mode = machine.PinInputPullup
		case GPIOPullDown:
			cfg.Mode = machine.PinInputPulldown
		default:
			return fmt.Errorf("gpio: pin %s: invalid pull", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}
	p.pin.Configure(cfg)
	p.mode = mode
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *machinePin) Write(level bool) error {
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.pin.Set(level)
	return nil
}

func (p *machinePin) SetInterrupt(edge Edge, handler func(level bool)) error {
	if handler == nil {
		return p.pin.SetInterrupt(0, nil)
	}
	var change machine.PinChange
	if edge&EdgeRising != 0 {
		change |= machine.PinRising
	}
	if edge&EdgeFalling != 0 {
		change |= machine.PinFalling
	}
	if change == 0 {
		return fmt.Errorf("gpio: pin %s: invalid edge", p.name)
	}
	return p.pin.SetInterrupt(change, func(pin machine.Pin) {
		handler(pin.Get())
	})
}
