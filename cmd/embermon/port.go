package main

import (
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

var errNoPorts = errors.New("no serial ports found")

func listPorts(w io.Writer) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		return errNoPorts
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

// openPort opens name, or the first port found if name is empty.
func openPort(name string, baud int) (serial.Port, string, error) {
	if name == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, "", err
		}
		if len(ports) == 0 {
			return nil, "", errNoPorts
		}
		name = ports[0]
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, name, fmt.Errorf("open %s: %w", name, err)
	}
	return p, name, nil
}
