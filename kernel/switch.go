package kernel

import "runtime"

// Switcher moves the CPU between the scheduler's context and task contexts.
//
// Exactly one context executes at any time: each method blocks its caller
// until control comes back to it.
type Switcher interface {
	// Start leaves the scheduler and runs entry in t's own context. It
	// returns when t yields or entry returns.
	Start(t *Task, entry func())
	// Resume continues t right after its last Yield. It returns when t
	// yields again or finishes.
	Resume(t *Task)
	// Yield is called from t's context. It returns control to the scheduler
	// and comes back when t is resumed.
	Yield(t *Task)
	// Discard drops the suspended context of t. It is called from another
	// context while t is suspended.
	Discard(t *Task)
	// Halt returns control to the scheduler from t's context for the last
	// time. It never returns.
	Halt(t *Task)
}

// GoSwitcher runs every task context on its own goroutine and passes a
// single baton between them, so that goroutines behave like stacks swapped
// in and out of one CPU.
//
// The zero value is not usable; use NewGoSwitcher.
type GoSwitcher struct {
	back chan struct{}
	ctxs map[*Task]*goContext
}

type goContext struct {
	resume    chan bool
	gone      chan struct{}
	discarded bool
}

// NewGoSwitcher returns a portable switcher.
func NewGoSwitcher() *GoSwitcher {
	return &GoSwitcher{
		back: make(chan struct{}),
		ctxs: make(map[*Task]*goContext),
	}
}

func (g *GoSwitcher) Start(t *Task, entry func()) {
	c := &goContext{
		resume: make(chan bool),
		gone:   make(chan struct{}),
	}
	g.ctxs[t] = c
	go func() {
		defer func() {
			if c.discarded {
				close(c.gone)
				return
			}
			g.back <- struct{}{}
		}()
		entry()
	}()
	<-g.back
}

func (g *GoSwitcher) Resume(t *Task) {
	c := g.ctxs[t]
	if c == nil {
		return
	}
	c.resume <- true
	<-g.back
}

func (g *GoSwitcher) Yield(t *Task) {
	c := g.ctxs[t]
	g.back <- struct{}{}
	if !<-c.resume {
		c.discarded = true
		runtime.Goexit()
	}
}

func (g *GoSwitcher) Discard(t *Task) {
	c := g.ctxs[t]
	if c == nil {
		return
	}
	delete(g.ctxs, t)
	c.resume <- false
	<-c.gone
}

func (g *GoSwitcher) Halt(t *Task) {
	delete(g.ctxs, t)
	g.back <- struct{}{}
	select {}
}
