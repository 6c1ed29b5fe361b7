// Command embersim runs the firmware on a simulated board. By default time
// only advances as the script and -ticks say, which makes runs
// reproducible; -headless and -window run against the wall clock.
//
// Script commands:
//
//	tick N          advance N ticks
//	press PIN MS    hold a button down for MS milliseconds
//	corrupt TASK    overwrite a stack guard word of TASK
//	stats           print run loop and task counters
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
	"ember/internal/buildinfo"
	"ember/kernel"

	"github.com/golang/glog"
)

func main() {
	var (
		configPath string
		script     string
		ticks      uint64
		headless   bool
		window     bool
		scale      int
		version    bool
	)
	flag.StringVar(&configPath, "config", "", "YAML configuration file.")
	flag.StringVar(&script, "script", "", "Script to run, overriding the config's.")
	flag.Uint64Var(&ticks, "ticks", 0, "Ticks to run after the script.")
	flag.BoolVar(&headless, "headless", false, "Run against the wall clock without a window.")
	flag.BoolVar(&window, "window", false, "Open a window showing the display.")
	flag.IntVar(&scale, "scale", 2, "Window scale.")
	flag.BoolVar(&version, "version", false, "Print the version and exit.")
	flag.Parse()

	if version {
		fmt.Println(buildinfo.Line("embersim"))
		return
	}

	code := run(configPath, script, ticks, headless, window, scale, os.Stdout)
	glog.Flush()
	os.Exit(code)
}

// run returns the process exit code: 0 on success, 1 on errors and 3 if
// the firmware halted on a fault.
func run(configPath, script string, ticks uint64, headless, window bool, scale int, out io.Writer) int {
	cfg, err := loadConfig(configPath)
	if err != nil {
		glog.Errorf("%v", err)
		return 1
	}
	if script == "" {
		script = cfg.Script
	}
	if ticks == 0 {
		ticks = cfg.Ticks
	}

	switch {
	case window:
		err = hal.RunWindow(boot(cfg), hal.WindowConfig{Scale: scale, Board: cfg.hostConfig(out)})
	case headless:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, boot(cfg), hal.HeadlessConfig{Ticks: ticks, Board: cfg.hostConfig(out)})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	default:
		return simulate(cfg, script, ticks, out)
	}
	if err != nil {
		glog.Errorf("%v", err)
		return 1
	}
	return 0
}

func simulate(cfg Config, script string, ticks uint64, out io.Writer) int {
	cmds, err := parseScript(script)
	if err != nil {
		glog.Errorf("%v", err)
		return 1
	}
	s, err := newSim(cfg, out)
	if err != nil {
		glog.Errorf("%v", err)
		return 1
	}
	defer s.Close()

	if err := s.run(cmds); err != nil {
		glog.Errorf("%v", err)
		return 1
	}
	if ticks > 0 && !s.sys.K.Halted() {
		if err := s.sys.Advance(int(ticks)); err != nil {
			glog.Errorf("%v", err)
			return 1
		}
	}
	if len(cmds) == 0 || cmds[len(cmds)-1].name != "stats" || ticks > 0 {
		s.stats()
	}
	if f, ok := s.sys.Fault(); ok {
		glog.Errorf("firmware halted: %v", f)
		return 3
	}
	return 0
}

func boot(cfg Config) func(hal.HAL) error {
	return func(h hal.HAL) error {
		ac := cfg.appConfig()
		ac.Trace = trace
		ac.OnFault = func(f kernel.Fault) { glog.Errorf("firmware halted: %v", f) }
		s, err := app.New(h, ac)
		if err != nil {
			return err
		}
		return s.Run()
	}
}
