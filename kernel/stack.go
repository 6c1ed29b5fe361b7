package kernel

// stackCanary is written to the lowest words of every guarded stack. If any
// of them changes, the stack overflowed.
var stackCanary = uintptr(uint64(0x670c1333b83bf575) & uint64(^uintptr(0)))

func paintGuard(stack []uintptr, n int) {
	for i := 0; i < n && i < len(stack); i++ {
		stack[i] = stackCanary ^ uintptr(i)
	}
}

func guardIntact(stack []uintptr, n int) bool {
	for i := 0; i < n && i < len(stack); i++ {
		if stack[i] != stackCanary^uintptr(i) {
			return false
		}
	}
	return true
}

// checkTask raises FaultStackOverflow if t's guard was overwritten.
func (s *Scheduler) checkTask(t *Task) bool {
	if guardIntact(t.stack, s.cfg.GuardWords) {
		return true
	}
	s.raise(Fault{Code: FaultStackOverflow, Task: t.index, Name: t.name})
	return false
}

func (s *Scheduler) checkMain() bool {
	if s.cfg.MainStack == nil || guardIntact(s.cfg.MainStack, s.cfg.GuardWords) {
		return true
	}
	s.raise(Fault{Code: FaultStackOverflow, Task: -1})
	return false
}

// CheckGuards verifies every guard now, regardless of Config.GuardCheck.
func (s *Scheduler) CheckGuards() bool {
	if s.halted {
		return false
	}
	for _, t := range s.tasks {
		if !s.checkTask(t) {
			return false
		}
	}
	return s.checkMain()
}
