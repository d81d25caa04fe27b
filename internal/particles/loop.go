package particles

import (
	"sync"
	"time"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/prefs"
)

// referenceFrame is the frame duration particle velocities are expressed in.
const referenceFrame = time.Second / 60

// Loop advances a Simulation once per frame interval and hands each drawn
// frame to a callback, until disposed.
type Loop struct {
	clk      clock.Clock
	interval time.Duration
	onFrame  func(Frame)

	mu       sync.Mutex
	sim      *Simulation
	palette  Palette
	rec      Recorder
	timer    clock.Timer
	started  bool
	disposed bool
}

// NewLoop builds a loop over sim. onFrame runs with the loop locked and must
// not call back into it.
func NewLoop(clk clock.Clock, sim *Simulation, interval time.Duration, theme prefs.Theme, onFrame func(Frame)) *Loop {
	if interval <= 0 {
		interval = referenceFrame
	}
	if onFrame == nil {
		onFrame = func(Frame) {}
	}
	return &Loop{
		clk:      clk,
		interval: interval,
		onFrame:  onFrame,
		sim:      sim,
		palette:  PaletteFor(theme),
	}
}

// Start draws the first frame immediately and schedules the rest.
func (l *Loop) Start() *Loop {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.disposed {
		return l
	}
	l.started = true
	l.draw()
	l.timer = l.clk.AfterFunc(l.interval, l.frame)
	return l
}

func (l *Loop) frame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return
	}
	l.sim.Step(float64(l.interval) / float64(referenceFrame))
	l.draw()
	l.timer = l.clk.AfterFunc(l.interval, l.frame)
}

func (l *Loop) draw() {
	l.sim.Present(&l.rec, l.palette)
	l.onFrame(l.rec.Frame())
}

// SetTheme recolors subsequent frames.
func (l *Loop) SetTheme(t prefs.Theme) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.palette = PaletteFor(t)
}

// Resize changes the surface bounds, keeping every particle.
func (l *Loop) Resize(w, h float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sim.Resize(w, h)
}

// Dispose cancels the pending frame. Once it returns no further onFrame
// calls happen.
func (l *Loop) Dispose() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return
	}
	l.disposed = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
