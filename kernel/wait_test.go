package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitWakesOnFlagSetBySleeper(t *testing.T) {
	flag := false
	wakes, trues := 0, 0
	var at Ticks
	x := NewTask("x", stack(), func(s *Scheduler) {
		s.Sleep(10)
		flag = true
	}, AutoStart())
	y := NewTask("y", stack(), func(s *Scheduler) {
		s.Wait(func() bool {
			if flag {
				trues++
			}
			return flag
		})
		wakes++
		at = s.CurrentTime()
	}, AutoStart())
	r := newRig(t, Config{}, x, y)

	r.until(100, func() bool { return y.State() == TaskDormant })
	require.EqualValues(t, 10, at)
	require.Equal(t, 10, r.idles)
	require.Equal(t, 1, wakes)
	require.Equal(t, 1, trues)
	// Started once, then resumed on the busy pass and on each of the ten
	// ticks; only the last resume found the flag set.
	require.EqualValues(t, 12, y.Dispatches())
	require.EqualValues(t, 12, x.Dispatches())
	require.Equal(t, TaskDormant, x.State())
}

func TestWaitTimeoutExpiresAtDeadline(t *testing.T) {
	var ok, done bool
	var at Ticks
	a := NewTask("a", stack(), func(s *Scheduler) {
		ok = s.WaitTimeout(5, never)
		at = s.CurrentTime()
		done = true
	}, AutoStart())
	r := newRig(t, Config{}, a)

	r.until(100, func() bool { return done })
	require.False(t, ok)
	require.EqualValues(t, 5, at)
	require.Empty(t, r.faults)
}

func TestWaitTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout Ticks
		trueAt  int
		want    bool
		at      Ticks
	}{
		{name: "zero never true", timeout: 0, trueAt: -1, want: false, at: 0},
		{name: "zero already true", timeout: 0, trueAt: 0, want: true, at: 0},
		{name: "one tick", timeout: 1, trueAt: -1, want: false, at: 1},
		{name: "never true", timeout: 7, trueAt: -1, want: false, at: 7},
		{name: "true before timeout", timeout: 7, trueAt: 3, want: true, at: 3},
		{name: "true at timeout", timeout: 7, trueAt: 7, want: true, at: 7},
		{name: "true after timeout", timeout: 7, trueAt: 8, want: false, at: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got, done, unmasked bool
			var at Ticks
			evals := 0
			var r *rig
			a := NewTask("a", stack(), func(s *Scheduler) {
				start := s.CurrentTime()
				got = s.WaitTimeout(tt.timeout, func() bool {
					evals++
					if r.irq.Enabled() {
						unmasked = true
					}
					return tt.trueAt >= 0 && int(s.now-start) >= tt.trueAt
				})
				at = s.CurrentTime() - start
				done = true
			}, AutoStart())
			r = newRig(t, Config{}, a)

			r.until(100, func() bool { return done })
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.at, at)
			require.False(t, unmasked, "predicate evaluated with interrupts enabled")
			require.False(t, a.Sleeping())
			require.Nil(t, r.k.sleepers)
			if tt.timeout == 0 {
				require.Equal(t, 1, evals)
				require.EqualValues(t, 1, a.Dispatches())
			}
		})
	}
}

func TestWaitPredicateSeesInterruptState(t *testing.T) {
	var flag, unmasked, done bool
	a := NewTask("a", stack(), func(s *Scheduler) {
		s.Wait(func() bool {
			if s.irq.Enabled() {
				unmasked = true
			}
			return flag
		})
		done = true
	}, AutoStart())
	r := newRig(t, Config{}, a)
	r.noTick = true

	r.steps(5)
	require.False(t, done)

	// Set from "interrupt" context between passes.
	flag = true
	r.steps(1)
	require.True(t, done)
	require.False(t, unmasked)
}

func TestWaitUntil(t *testing.T) {
	var results []bool
	var times []Ticks
	a := NewTask("a", stack(), func(s *Scheduler) {
		results = append(results, s.WaitUntil(3, never))
		times = append(times, s.CurrentTime())
		// The deadline is now in the past.
		results = append(results, s.WaitUntil(1, never))
		times = append(times, s.CurrentTime())
		results = append(results, s.WaitUntil(s.Deadline(4), never))
		times = append(times, s.CurrentTime())
	}, AutoStart())
	r := newRig(t, Config{}, a)

	r.until(100, func() bool { return a.State() == TaskDormant })
	require.Equal(t, []bool{false, false, false}, results)
	require.Equal(t, []Ticks{3, 3, 7}, times)
}

func TestWaitTimeoutSameTickFollowsDispatchOrder(t *testing.T) {
	tests := []struct {
		name        string
		setterFirst bool
		want        bool
	}{
		{name: "waiter first", setterFirst: false, want: false},
		{name: "setter first", setterFirst: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flag, got, done bool
			w := NewTask("w", stack(), func(s *Scheduler) {
				got = s.WaitTimeout(3, func() bool { return flag })
				done = true
			}, AutoStart())
			p := NewTask("p", stack(), func(s *Scheduler) {
				s.Sleep(3)
				flag = true
			}, AutoStart())
			tasks := []*Task{w, p}
			if tt.setterFirst {
				tasks = []*Task{p, w}
			}
			r := newRig(t, Config{}, tasks...)

			r.until(100, func() bool { return done })
			require.Equal(t, tt.want, got)
			require.EqualValues(t, 3, r.k.CurrentTime())
			require.True(t, flag)
		})
	}
}

func TestWaitUntilBeyondMaxSleepIsPast(t *testing.T) {
	var got, done bool
	a := NewTask("a", stack(), func(s *Scheduler) {
		got = s.WaitUntil(s.Deadline(MaxSleep+2), never)
		done = true
	}, AutoStart())
	r := newRig(t, Config{}, a)

	r.steps(1)
	require.True(t, done)
	require.False(t, got)
	require.Empty(t, r.faults)
	require.EqualValues(t, 1, a.Dispatches())
}

func TestWaitUntilPastDeadlineDoesNotYield(t *testing.T) {
	var got, done bool
	a := NewTask("a", stack(), func(s *Scheduler) {
		got = s.WaitUntil(2, func() bool { return false })
		done = true
	})
	r := newRig(t, Config{}, a)

	r.steps(5)
	r.k.Start(a)
	r.steps(1)
	require.True(t, done)
	require.False(t, got)
	require.EqualValues(t, 1, a.Dispatches())
}

func TestCtxSurvivesRetries(t *testing.T) {
	var seen []uint64
	var flag bool
	a := NewTask("a", stack(), func(s *Scheduler) {
		s.SetCtx(42)
		s.Wait(func() bool {
			seen = append(seen, s.Ctx())
			return flag
		})
		s.SetCtx(s.Ctx() + 1)
		s.Wait(never)
	}, AutoStart())
	r := newRig(t, Config{}, a)
	r.noTick = true

	r.steps(3)
	flag = true
	r.steps(1)

	require.Equal(t, []uint64{42, 42, 42, 42}, seen)
	require.EqualValues(t, 43, a.ctx)
	require.Zero(t, r.k.Ctx())

	r.k.Stop(a)
	r.k.Start(a)
	require.Zero(t, a.ctx)
}

func TestYieldCountsAsWork(t *testing.T) {
	n := 0
	a := NewTask("a", stack(), func(s *Scheduler) {
		for i := 0; i < 3; i++ {
			n++
			s.Yield()
		}
		s.Wait(never)
	}, AutoStart())
	r := newRig(t, Config{}, a)

	for i := 0; i < 4; i++ {
		require.True(t, r.k.RunOnce())
	}
	require.Equal(t, 3, n)
	require.False(t, r.k.RunOnce())
	require.Equal(t, 1, r.idles)
}
