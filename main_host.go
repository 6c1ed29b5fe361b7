//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var headless bool
	var scale int
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.BoolVar(&cfg.Board.LogLED, "log-led", false, "Log every LED change.")
	flag.IntVar(&scale, "scale", 2, "Window scale.")
	flag.Parse()

	boot := func(h hal.HAL) error {
		s, err := app.New(h, app.DefaultConfig())
		if err != nil {
			return err
		}
		return s.Run()
	}

	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, boot, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(boot, hal.WindowConfig{Scale: scale, Board: cfg.Board}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
