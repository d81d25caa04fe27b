package typewriter

import (
	"sync"

	"github.com/kydev/portfolio/internal/clock"
)

// Runner schedules Machine steps on a clock. Each step schedules the next, so
// at most one timer is pending at any time.
type Runner struct {
	clk      clock.Clock
	onChange func(Snapshot)

	mu       sync.Mutex
	m        *Machine
	timer    clock.Timer
	started  bool
	disposed bool
	last     Snapshot
}

// NewRunner wires m to clk. onChange receives every snapshot whose text,
// role or phase differs from the previous one; it runs with the runner locked
// and must not call back into the runner.
func NewRunner(clk clock.Clock, m *Machine, onChange func(Snapshot)) *Runner {
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	return &Runner{clk: clk, m: m, onChange: onChange, last: m.Snapshot()}
}

// Start schedules the first step. Calling Start again or after Dispose is a no-op.
func (r *Runner) Start() *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.disposed {
		return r
	}
	r.started = true
	r.timer = r.clk.AfterFunc(r.m.timing.Type, r.tick)
	return r
}

func (r *Runner) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	delay := r.m.Step()
	r.publish()
	r.timer = r.clk.AfterFunc(delay, r.tick)
}

// SetRoles swaps the role list in place, keeping the animation running.
func (r *Runner) SetRoles(roles []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.m.SetRoles(roles)
	r.publish()
}

// Snapshot returns the current state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.Snapshot()
}

// Dispose cancels the pending timer. Once it returns no further onChange
// calls happen.
func (r *Runner) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Runner) publish() {
	s := r.m.Snapshot()
	if s == r.last {
		return
	}
	r.last = s
	r.onChange(s)
}
