package app

import (
	"errors"
	"fmt"
)

// maxBusyPasses bounds the dispatch passes Settle runs before giving up on
// tasks that never block.
const maxBusyPasses = 10000

var (
	ErrNotStepped = errors.New("app: board timer is not manually stepped")
	ErrBusy       = errors.New("app: tasks never block")
)

// Stepper is a board whose tick interrupt is delivered on demand.
type Stepper interface {
	Step(n int)
}

// Settle dispatches until a pass does no work, then enables interrupts so
// the caller can inject them. It stands in for the run loop's idle wait on
// a manually clocked board and must be called from the goroutine that owns
// the scheduler.
func (s *System) Settle() error {
	for i := 0; s.K.Step(); i++ {
		if i == maxBusyPasses {
			s.HAL.IRQ().Enable()
			return ErrBusy
		}
	}
	s.HAL.IRQ().Enable()
	return nil
}

// Advance runs the system for n ticks on a manually clocked board. It
// stops early once a fault halted the scheduler.
func (s *System) Advance(n int) error {
	st, ok := s.HAL.(Stepper)
	if !ok {
		return ErrNotStepped
	}
	for i := 0; i < n && !s.K.Halted(); i++ {
		if err := s.Settle(); err != nil {
			return fmt.Errorf("tick %d: %w", s.K.CurrentTime(), err)
		}
		st.Step(1)
	}
	return s.Settle()
}
