// Package app assembles the firmware: a static task table on the kernel,
// the tick interrupt and the fatal path.
package app

import (
	"fmt"
	"strings"
	"time"

	"ember/console"
	"ember/hal"
	"ember/internal/buildinfo"
	"ember/kernel"
	"ember/report"
	"ember/tasks/blink"
	"ember/tasks/button"
	"ember/tasks/status"
)

// Task names, in dispatch order.
const (
	TaskBlink  = "blink"
	TaskButton = "button"
	TaskStatus = "status"
)

// DefaultStackWords is the stack size of every task.
const DefaultStackWords = 256

type Config struct {
	TickPeriod time.Duration
	GuardWords int
	GuardCheck kernel.GuardCheck
	StackWords int

	BlinkPeriodMs    uint32
	HoldMs           uint32
	StatusIntervalMs uint32

	// Button names the button pin. The button task is left out of the
	// table if the board has no such interrupt-capable pin.
	Button string

	// Hang keeps the fatal hook from returning, as firmware must. Host
	// runners leave it unset and watch Halted instead.
	Hang bool

	Trace   func(kernel.Event)
	OnFault func(kernel.Fault)
}

// DefaultConfig is the firmware configuration.
func DefaultConfig() Config {
	return Config{
		TickPeriod:       time.Millisecond,
		GuardWords:       8,
		StackWords:       DefaultStackWords,
		BlinkPeriodMs:    500,
		HoldMs:           800,
		StatusIntervalMs: 1000,
		Button:           "BTN",
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.TickPeriod == 0 {
		c.TickPeriod = d.TickPeriod
	}
	if c.StackWords == 0 {
		c.StackWords = d.StackWords
	}
	if c.BlinkPeriodMs == 0 {
		c.BlinkPeriodMs = d.BlinkPeriodMs
	}
	if c.HoldMs == 0 {
		c.HoldMs = d.HoldMs
	}
	if c.StatusIntervalMs == 0 {
		c.StatusIntervalMs = d.StatusIntervalMs
	}
}

// System is an assembled firmware image.
type System struct {
	HAL     hal.HAL
	K       *kernel.Scheduler
	Console *console.Console

	Blink  *blink.Blinker
	Button *button.Button
	Status *status.Status

	cfg   Config
	fault *kernel.Fault
}

// New builds the task table and the scheduler. Nothing runs until Start.
func New(h hal.HAL, cfg Config) (*System, error) {
	if h == nil {
		return nil, fmt.Errorf("app: nil HAL")
	}
	cfg.setDefaults()
	s := &System{HAL: h, cfg: cfg}
	log := h.Logger()

	con, err := console.FromHAL(h)
	if err != nil {
		logLine(log, "console: "+err.Error())
	}
	s.Console = con

	s.Blink = blink.New(h.LED(), cfg.BlinkPeriodMs)

	var counter status.Counter
	pin := hal.FindPin(h.GPIO(), cfg.Button)
	if cfg.Button != "" && pin != nil {
		b, err := button.New(pin, cfg.HoldMs, s.buttonEvent)
		if err != nil {
			logLine(log, err.Error())
		} else {
			s.Button = b
			counter = b
		}
	}

	s.Status = status.New(status.Config{
		IntervalMs: cfg.StatusIntervalMs,
		Logger:     log,
		Console:    con,
		Buttons:    counter,
	})

	tasks := []*kernel.Task{
		kernel.NewTask(TaskBlink, make([]uintptr, cfg.StackWords), s.Blink.Run, kernel.AutoStart()),
	}
	if s.Button != nil {
		tasks = append(tasks, kernel.NewTask(TaskButton, make([]uintptr, cfg.StackWords), s.Button.Run, kernel.AutoStart()))
	}
	tasks = append(tasks, kernel.NewTask(TaskStatus, make([]uintptr, cfg.StackWords), s.Status.Run, kernel.AutoStart()))

	k, err := kernel.NewChecked(kernel.Config{
		TickPeriod: cfg.TickPeriod,
		Interrupts: h.IRQ(),
		Idle:       h.IRQ().Idle,
		Fatal:      s.fatal,
		GuardWords: cfg.GuardWords,
		GuardCheck: cfg.GuardCheck,
		Trace:      cfg.Trace,
	}, tasks...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	s.K = k
	return s, nil
}

// Task returns the task with the given name, or nil.
func (s *System) Task(name string) *kernel.Task {
	for _, t := range s.K.Tasks() {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// Fault returns the fault that halted the system, if any.
func (s *System) Fault() (kernel.Fault, bool) {
	if s.fault == nil {
		return kernel.Fault{}, false
	}
	return *s.fault, true
}

// Start prints the banner and starts the tick interrupt.
func (s *System) Start() error {
	s.banner()
	if err := s.HAL.Timer().Start(s.cfg.TickPeriod, s.K.Tick); err != nil {
		return fmt.Errorf("app: timer: %w", err)
	}
	return nil
}

// Run starts the system and dispatches tasks. It does not return.
func (s *System) Run() error {
	if err := s.Start(); err != nil {
		return err
	}
	s.K.Run()
	return nil
}

// Run boots the default firmware on h and never returns.
func Run(h hal.HAL) {
	cfg := DefaultConfig()
	cfg.Hang = true
	s, err := New(h, cfg)
	if err == nil {
		err = s.Run()
	}
	if err != nil {
		logLine(h.Logger(), "boot: "+err.Error())
	}
	select {}
}

func (s *System) banner() {
	names := make([]string, 0, len(s.K.Tasks()))
	for _, t := range s.K.Tasks() {
		if s.K.Running(t) {
			names = append(names, t.Name())
		}
	}
	line := fmt.Sprintf("ember %s tick %s tasks %s", buildinfo.Short(), s.cfg.TickPeriod, strings.Join(names, ","))
	logLine(s.HAL.Logger(), line)
	if s.Console != nil {
		s.Console.Println(line)
		_ = s.Console.Flush()
	}
}

// buttonEvent runs on the button task.
func (s *System) buttonEvent(e button.Event) {
	logLine(s.HAL.Logger(), "button: "+e.String())
	s.Status.Poke()
}

// fatal reports f on every channel the board has: log, serial frame,
// screen and LED. It runs with interrupts disabled.
func (s *System) fatal(f kernel.Fault) {
	s.fault = &f
	h := s.HAL
	r := report.FromFault(f)

	logLine(h.Logger(), r.String())
	if ser := h.Serial(); ser != nil {
		_ = report.Write(ser, r)
	}
	if d := h.Display(); d != nil {
		if fb := d.Framebuffer(); fb != nil {
			_ = console.FaultScreen(fb, f)
		}
	}
	if led := h.LED(); led != nil {
		led.High()
	}
	if s.cfg.OnFault != nil {
		s.cfg.OnFault(f)
	}
	if s.cfg.Hang {
		select {}
	}
}

func logLine(l hal.Logger, s string) {
	if l != nil {
		l.WriteLineString(s)
	}
}
