//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	// Ticks stops the run after N timer interrupts (0 = until ctx is done).
	Ticks uint64
	// Poll is how often the stop condition is checked.
	Poll  time.Duration
	Board HostConfig
}

// RunHeadless boots the firmware on a free-running host board without a
// window. boot becomes the CPU flow on its own goroutine; it only returns on
// a setup error.
func RunHeadless(ctx context.Context, boot func(HAL) error, cfg HeadlessConfig) error {
	if cfg.Poll <= 0 {
		cfg.Poll = 10 * time.Millisecond
	}
	cfg.Board.ManualTime = false

	h := NewHost(cfg.Board)
	defer h.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- boot(h)
	}()

	t := time.NewTicker(cfg.Poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("boot: %w", err)
			}
			return nil
		case <-t.C:
			if cfg.Ticks > 0 && h.Ticks() >= cfg.Ticks {
				return nil
			}
		}
	}
}
