package particles

import (
	"math/rand"
	"testing"
	"time"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/prefs"
)

func TestLoopDrawsFramesUntilDisposed(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	sim := New(800, 600, rand.New(rand.NewSource(9)))

	var frames []Frame
	l := NewLoop(clk, sim, 20*time.Millisecond, prefs.Light, func(f Frame) {
		frames = append(frames, f)
	}).Start()

	if len(frames) != 1 {
		t.Fatalf("Start drew %d frames, want 1", len(frames))
	}
	clk.Advance(100 * time.Millisecond)
	if len(frames) != 6 {
		t.Fatalf("after 100ms got %d frames, want 6", len(frames))
	}
	if len(frames[0].Discs) != 60 {
		t.Fatalf("frame has %d discs", len(frames[0].Discs))
	}
	if frames[0].Discs[0].Color != "rgba(37, 99, 235, 0.5)" {
		t.Fatalf("light disc color = %q", frames[0].Discs[0].Color)
	}

	l.Dispose()
	n := len(frames)
	snapshot := append([]Particle(nil), sim.Particles...)
	clk.Advance(time.Second)

	if len(frames) != n {
		t.Fatalf("%d frames drawn after dispose", len(frames)-n)
	}
	for i := range snapshot {
		if sim.Particles[i] != snapshot[i] {
			t.Fatal("simulation advanced after dispose")
		}
	}
	if clk.Pending() != 0 {
		t.Fatalf("%d timers pending after dispose", clk.Pending())
	}
}

func TestLoopThemeSwitchRecolorsWithoutReseeding(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	sim := New(800, 600, rand.New(rand.NewSource(11)))

	var last Frame
	l := NewLoop(clk, sim, 20*time.Millisecond, prefs.Light, func(f Frame) { last = f }).Start()
	defer l.Dispose()

	first := sim.Particles[0]
	l.SetTheme(prefs.Dark)
	clk.Advance(20 * time.Millisecond)

	if last.Discs[0].Color != "rgba(96, 165, 250, 0.6)" {
		t.Fatalf("dark disc color = %q", last.Discs[0].Color)
	}
	if sim.Particles[0].Radius != first.Radius {
		t.Fatal("theme switch reseeded particles")
	}
}

func TestLoopResize(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	sim := New(1200, 900, rand.New(rand.NewSource(5)))

	var last Frame
	l := NewLoop(clk, sim, 20*time.Millisecond, prefs.Dark, func(f Frame) { last = f }).Start()
	defer l.Dispose()

	l.Resize(300, 200)
	clk.Advance(20 * time.Millisecond)
	if last.Width != 300 || last.Height != 200 {
		t.Fatalf("frame size = %vx%v", last.Width, last.Height)
	}
	if len(last.Discs) != 60 {
		t.Fatalf("resize changed particle count to %d", len(last.Discs))
	}
}

func TestRecorderLinkColor(t *testing.T) {
	s := &Simulation{W: 200, H: 200, Particles: []Particle{{X: 0, Y: 0, Radius: 1}, {X: 60, Y: 0, Radius: 1}}}
	var rec Recorder
	s.Present(&rec, PaletteFor(prefs.Dark))
	f := rec.Frame()

	if len(f.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(f.Lines))
	}
	if f.Lines[0].Color != "rgba(96, 165, 250, 0.15)" {
		t.Fatalf("line color = %q", f.Lines[0].Color)
	}
	if f.Lines[0].Width != 0.5 {
		t.Fatalf("line width = %v", f.Lines[0].Width)
	}
}
