package kernel

// TaskState is the life-cycle state of a task.
type TaskState uint8

const (
	// TaskDormant tasks are never dispatched until started.
	TaskDormant TaskState = iota
	// TaskPending tasks were started but have not run yet.
	TaskPending
	// TaskRunning is the state of the task owning the CPU.
	TaskRunning
	// TaskSuspended tasks yielded and resume after their last suspension point.
	TaskSuspended
)

func (s TaskState) String() string {
	switch s {
	case TaskDormant:
		return "dormant"
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Entry is a task's top-level function.
type Entry func(s *Scheduler)

// Task is a cooperative unit of execution with its own stack.
//
// Tasks are declared once, handed to New in dispatch order, and live for the
// whole program run.
type Task struct {
	name      string
	stack     []uintptr
	run       Entry
	autoStart bool

	owner *Scheduler
	index int

	state TaskState
	entry Entry
	// discarding is set while Stop unwinds the task's suspended context.
	discarding bool

	// Sleep list membership. sleeping is cleared by Tick once deadline is due.
	sleeping    bool
	deadline    Ticks
	nextSleeper *Task

	ctx uint64

	dispatches uint64
}

// TaskOption configures a task at declaration.
type TaskOption func(*Task)

// AutoStart makes the task runnable as soon as the scheduler is created.
func AutoStart() TaskOption {
	return func(t *Task) { t.autoStart = true }
}

// NewTask declares a task. The stack buffer is owned by the task from now on.
func NewTask(name string, stack []uintptr, run Entry, opts ...TaskOption) *Task {
	t := &Task{
		name:  name,
		stack: stack,
		run:   run,
		index: -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Index returns the position of the task in the dispatch order, or -1 if
// the task was never handed to a scheduler.
func (t *Task) Index() int { return t.index }

// State returns the current life-cycle state.
func (t *Task) State() TaskState { return t.state }

// Stack returns the task's stack buffer. The low end holds the guard words.
func (t *Task) Stack() []uintptr { return t.stack }

// Sleeping reports whether the task is linked into the sleep list.
func (t *Task) Sleeping() bool { return t.sleeping }

// Dispatches returns how many times the run loop switched to the task.
func (t *Task) Dispatches() uint64 { return t.dispatches }

// Start makes a dormant task runnable with its declared entry point.
func (s *Scheduler) Start(t *Task) {
	if !s.owns(t) {
		return
	}
	s.StartWith(t, t.run)
}

// StartWith makes a dormant task runnable with fn as the entry point for
// this activation only.
func (s *Scheduler) StartWith(t *Task, fn Entry) {
	if !s.owns(t) {
		return
	}
	was := s.disable()
	if t.state != TaskDormant {
		s.raise(Fault{Code: FaultStartActive, Task: t.index, Name: t.name})
		s.restore(was)
		return
	}
	if fn == nil {
		s.raise(Fault{Code: FaultNoEntry, Task: t.index, Name: t.name})
		s.restore(was)
		return
	}
	t.entry = fn
	t.state = TaskPending
	s.unsleep(t)
	t.deadline = 0
	t.ctx = 0
	s.restore(was)
}

// Stop makes a task dormant, discarding its suspended state. A task cannot
// stop itself.
//
// Deferred calls of a suspended task run before Stop returns. They must not
// block: Sleep, Wait and Yield from them raise FaultStopping.
func (s *Scheduler) Stop(t *Task) {
	if !s.owns(t) {
		return
	}
	if t == s.current {
		s.raise(Fault{Code: FaultStopSelf, Task: t.index, Name: t.name})
		return
	}
	was := s.disable()
	prev := t.state
	t.state = TaskDormant
	t.entry = nil
	s.unsleep(t)
	if prev == TaskSuspended {
		cur := s.current
		s.current = t
		t.discarding = true
		s.sw.Discard(t)
		t.discarding = false
		s.current = cur
		if s.halted {
			if cur != nil {
				s.sw.Halt(cur)
			}
			return
		}
	}
	s.restore(was)
}

// Running reports whether t is runnable or running.
func (s *Scheduler) Running(t *Task) bool {
	return t.state != TaskDormant
}

func (s *Scheduler) owns(t *Task) bool {
	if t == nil || t.owner != s {
		s.raise(Fault{Code: FaultForeignTask, Task: -1})
		return false
	}
	return true
}
