package kernel

// Tick advances time by one tick and wakes every sleeper whose deadline is
// due. It must be called from the timer interrupt (or with interrupts
// disabled). The result tells the interrupt whether the CPU must leave its
// low-power wait.
func (s *Scheduler) Tick() bool {
	s.now++
	s.stats.Ticks++

	woke := false
	link := &s.sleepers
	for t := *link; t != nil; t = *link {
		if !due(s.now, t.deadline) {
			link = &t.nextSleeper
			continue
		}
		*link = t.nextSleeper
		t.nextSleeper = nil
		t.sleeping = false
		s.stats.Wakes++
		woke = true
	}
	return woke
}

// CurrentTime returns the tick counter.
func (s *Scheduler) CurrentTime() Ticks {
	was := s.disable()
	now := s.now
	s.restore(was)
	return now
}

// Deadline returns the absolute tick at which a timeout of n ticks starting
// now expires.
func (s *Scheduler) Deadline(n Ticks) Ticks {
	return s.CurrentTime() + n
}

// Sleep suspends the current task for n ticks. Sleep(0) returns immediately
// without yielding.
func (s *Scheduler) Sleep(n Ticks) {
	if n == 0 {
		return
	}
	t := s.task()
	if t == nil {
		return
	}
	if n > MaxSleep {
		s.raise(Fault{Code: FaultSleepRange, Task: t.index, Name: t.name})
		return
	}
	s.irq.Disable()
	s.sleepOn(t, s.now+n)
	for t.sleeping {
		s.yield(t)
	}
	s.markWork()
}

// SleepMs suspends the current task for at least ms milliseconds.
func (s *Scheduler) SleepMs(ms uint32) {
	s.Sleep(s.Ms(ms))
}

// sleepOn links t into the sleep list with the given deadline. Interrupts
// must be disabled.
func (s *Scheduler) sleepOn(t *Task, deadline Ticks) {
	if t.sleeping {
		s.unsleep(t)
	}
	t.deadline = deadline
	t.sleeping = true
	t.nextSleeper = s.sleepers
	s.sleepers = t
}

// unsleep removes t from the sleep list if it is linked. Interrupts must be
// disabled.
func (s *Scheduler) unsleep(t *Task) {
	if !t.sleeping {
		return
	}
	for link := &s.sleepers; *link != nil; link = &(*link).nextSleeper {
		if *link == t {
			*link = t.nextSleeper
			break
		}
	}
	t.nextSleeper = nil
	t.sleeping = false
}

// task returns the running task for a blocking call. It raises FaultNoTask
// in scheduler context and FaultStopping while the task is being stopped.
func (s *Scheduler) task() *Task {
	t := s.current
	if t == nil {
		s.raise(Fault{Code: FaultNoTask, Task: -1})
		return nil
	}
	if t.discarding {
		s.raise(Fault{Code: FaultStopping, Task: t.index, Name: t.name})
		return nil
	}
	return t
}
