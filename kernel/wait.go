package kernel

// Wait suspends the current task until pred returns true. pred is only
// evaluated with interrupts disabled, so an interrupt cannot change the
// condition between the check and the decision to yield. pred may run once
// per dispatch pass for as long as it is false; it must be cheap and free of
// side effects.
func (s *Scheduler) Wait(pred func() bool) bool {
	t := s.task()
	if t == nil {
		return false
	}
	for {
		s.irq.Disable()
		if pred() {
			s.markWork()
			return true
		}
		s.yield(t)
	}
}

// WaitTimeout is Wait bounded by a timeout of n ticks. It returns false if
// the timeout expired with pred never true. A timeout of 0 evaluates pred
// once without yielding.
func (s *Scheduler) WaitTimeout(n Ticks, pred func() bool) bool {
	t := s.task()
	if t == nil {
		return false
	}
	if n > MaxSleep {
		s.raise(Fault{Code: FaultSleepRange, Task: t.index, Name: t.name})
		return false
	}
	s.irq.Disable()
	return s.waitUntil(t, s.now+n, pred)
}

// WaitUntil is Wait bounded by an absolute deadline. A deadline that has
// already passed evaluates pred once without yielding. Deadlines compare by
// signed difference, so one more than 2^31 ticks ahead counts as passed.
// Unlike WaitTimeout this is not a fault: the two cannot be told apart.
//
// When pred turns true on the deadline's tick the result depends on the
// dispatch order: a waiter resumed before the task that sets the condition
// returns false.
func (s *Scheduler) WaitUntil(deadline Ticks, pred func() bool) bool {
	t := s.task()
	if t == nil {
		return false
	}
	s.irq.Disable()
	return s.waitUntil(t, deadline, pred)
}

func (s *Scheduler) waitUntil(t *Task, deadline Ticks, pred func() bool) bool {
	if pred() {
		s.markWork()
		return true
	}
	if due(s.now, deadline) {
		s.markWork()
		return false
	}
	s.sleepOn(t, deadline)
	for {
		s.yield(t)
		if pred() {
			s.unsleep(t)
			s.markWork()
			return true
		}
		if !t.sleeping {
			s.markWork()
			return false
		}
	}
}

// Yield suspends the current task until the next dispatch pass. A task
// that yields still has work to do, so the pass counts as busy.
func (s *Scheduler) Yield() {
	t := s.task()
	if t == nil {
		return
	}
	s.irq.Disable()
	s.didWork = true
	s.yield(t)
	s.markWork()
}

// SetCtx stores v in the current task's scratch slot. The value survives
// the next suspension, so a retried predicate can read it with Ctx.
func (s *Scheduler) SetCtx(v uint64) {
	if t := s.current; t != nil {
		t.ctx = v
	}
}

// Ctx returns the value last stored with SetCtx by the current task.
func (s *Scheduler) Ctx() uint64 {
	if t := s.current; t != nil {
		return t.ctx
	}
	return 0
}
