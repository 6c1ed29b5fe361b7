package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"ember/app"
	"ember/hal"
	"ember/kernel"
	"ember/report"

	"github.com/golang/glog"
	"github.com/google/shlex"
	"github.com/inhies/go-bytesize"
)

// command is one parsed script line.
type command struct {
	line int
	name string
	args []string
}

// parseScript splits a script into commands. Commands are separated by
// newlines or semicolons and numbered from one; '#' starts a comment.
func parseScript(text string) ([]command, error) {
	var cmds []command
	lines := strings.Split(strings.ReplaceAll(text, ";", "\n"), "\n")
	for i, line := range lines {
		words, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %v", i+1, err)
		}
		if len(words) == 0 {
			continue
		}
		c := command{line: i + 1, name: words[0], args: words[1:]}
		if err := c.check(); err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func (c command) check() error {
	want := map[string]int{"tick": 1, "press": 2, "corrupt": 1, "stats": 0}
	n, ok := want[c.name]
	if !ok {
		return fmt.Errorf("script line %d: unknown command %q", c.line, c.name)
	}
	if len(c.args) != n {
		return fmt.Errorf("script line %d: %s takes %d arguments, got %d", c.line, c.name, n, len(c.args))
	}
	for i, a := range c.args {
		if c.name == "tick" || (c.name == "press" && i == 1) {
			if _, err := strconv.ParseUint(a, 10, 32); err != nil {
				return fmt.Errorf("script line %d: %s: bad number %q", c.line, c.name, a)
			}
		}
	}
	return nil
}

func (c command) num(i int) uint32 {
	n, _ := strconv.ParseUint(c.args[i], 10, 32)
	return uint32(n)
}

// sim drives a firmware image on a manually clocked host board.
type sim struct {
	sys  *app.System
	host *hal.Host
	out  io.Writer
}

func newSim(cfg Config, out io.Writer) (*sim, error) {
	hc := cfg.hostConfig(out)
	hc.ManualTime = true
	h := hal.NewHost(hc)

	ac := cfg.appConfig()
	ac.Trace = trace
	sys, err := app.New(h, ac)
	if err != nil {
		h.Close()
		return nil, err
	}
	if err := sys.Start(); err != nil {
		h.Close()
		return nil, err
	}
	return &sim{sys: sys, host: h, out: out}, nil
}

func (s *sim) Close() { s.host.Close() }

// run executes cmds, stopping at the first error or once the firmware
// halted.
func (s *sim) run(cmds []command) error {
	for _, c := range cmds {
		if s.sys.K.Halted() {
			glog.Warningf("script line %d: firmware halted, skipping the rest", c.line)
			return nil
		}
		if err := s.exec(c); err != nil {
			return fmt.Errorf("script line %d: %w", c.line, err)
		}
	}
	return nil
}

func (s *sim) exec(c command) error {
	glog.V(1).Infof("script: %s %s", c.name, strings.Join(c.args, " "))
	switch c.name {
	case "tick":
		return s.sys.Advance(int(c.num(0)))
	case "press":
		return s.press(c.args[0], c.num(1))
	case "corrupt":
		return s.corrupt(c.args[0])
	case "stats":
		s.stats()
		return nil
	}
	return fmt.Errorf("unknown command %q", c.name)
}

// press holds the pin low for ms milliseconds.
func (s *sim) press(pin string, ms uint32) error {
	p := hal.FindPin(s.host.GPIO(), pin)
	d, ok := p.(hal.GPIODriver)
	if !ok {
		return fmt.Errorf("no button pin %q", pin)
	}
	if err := s.sys.Settle(); err != nil {
		return err
	}
	if err := d.Drive(false); err != nil {
		return err
	}
	if err := s.sys.Advance(int(s.sys.K.Ms(ms))); err != nil {
		return err
	}
	if err := d.Drive(true); err != nil {
		return err
	}
	return s.sys.Settle()
}

// corrupt overwrites the lowest guard word of a task stack.
func (s *sim) corrupt(name string) error {
	t := s.sys.Task(name)
	if t == nil {
		return fmt.Errorf("no task %q", name)
	}
	stack := t.Stack()
	if len(stack) == 0 {
		return errors.New("empty stack")
	}
	stack[0] = ^stack[0]
	return s.sys.Settle()
}

func (s *sim) stats() {
	st := s.sys.K.Stats()
	fmt.Fprintf(s.out, "ticks %d passes %d idles %d wakes %d switches %d\n",
		st.Ticks, st.Passes, st.Idles, st.Wakes, st.Switches)

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tSTATE\tDISPATCHES\tSTACK")
	for _, t := range s.sys.K.Tasks() {
		size := bytesize.ByteSize(len(t.Stack()) * wordSize)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.Name(), t.State(), t.Dispatches(), size)
	}
	w.Flush()

	if f, ok := s.sys.Fault(); ok {
		fmt.Fprintln(s.out, "halted:", report.FromFault(f))
	}
}

func trace(e kernel.Event) {
	if !glog.V(2) {
		return
	}
	name := "-"
	if e.Task != nil {
		name = e.Task.Name()
	}
	glog.Infof("tick %d %s %s", e.Tick, e.Kind, name)
}
