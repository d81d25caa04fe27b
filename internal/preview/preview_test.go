package preview

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/hero"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/particles"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/typewriter"
)

func newScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	s.SetSize(cols, rows)
	t.Cleanup(s.Fini)
	return s
}

func row(s tcell.Screen, y int) string {
	cols, _ := s.Size()
	var b strings.Builder
	for x := 0; x < cols; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestSurface(t *testing.T) {
	w, h := Surface(80, 25)
	if w != 640 || h != 384 {
		t.Errorf("Surface(80, 25) = %v x %v", w, h)
	}
	if particles.Count(w) != 30 {
		t.Error("an 80 column terminal should get the narrow particle count")
	}
}

func TestFrameDrawsDiscsAndLinks(t *testing.T) {
	s := newScreen(t, 80, 25)
	p := New(s, prefs.NewStore(prefs.Default()))

	p.Frame(particles.Frame{
		Width: 640, Height: 384,
		Discs: []particles.Disc{
			{X: 20, Y: 40, R: 2, Color: "rgba(37, 99, 235, 0.5)"},
			{X: 60, Y: 40, R: 2, Color: "rgba(37, 99, 235, 0.5)"},
		},
		Lines: []particles.Line{{X1: 20, Y1: 40, X2: 60, Y2: 40, Width: 0.5, Color: "rgba(37, 99, 235, 0.2)"}},
	})

	got := row(s, 2)
	if !strings.HasPrefix(strings.TrimRight(got, " "), "  ●····●") {
		t.Errorf("row 2 = %q", strings.TrimRight(got, " "))
	}
}

func TestTypewriterLine(t *testing.T) {
	s := newScreen(t, 40, 10)
	p := New(s, prefs.NewStore(prefs.Default()))
	p.Typewriter(typewriter.Snapshot{Text: "Web"})

	if got := strings.TrimSpace(row(s, 9)); got != "Web|" {
		t.Errorf("typewriter line = %q", got)
	}
}

func TestCSSColor(t *testing.T) {
	if got := cssColor("rgba(96, 165, 250, 0.6)"); got != tcell.NewRGBColor(96, 165, 250) {
		t.Errorf("cssColor = %v", got)
	}
	if got := cssColor("blue"); got != tcell.ColorDefault {
		t.Errorf("unparseable color = %v", got)
	}
}

func TestRunHandlesKeysAndDisposes(t *testing.T) {
	s := newScreen(t, 80, 25)
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	store := prefs.NewStore(prefs.Default())
	p := New(s, store)

	roles := func(l locale.Locale) []string { return []string{"Web Developer"} }
	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), hero.Options{
			Clock:         clk,
			Timing:        typewriter.DefaultTiming(),
			FrameInterval: 33 * time.Millisecond,
			Rand:          rand.New(rand.NewSource(1)),
		}, roles)
	}()

	s.InjectKey(tcell.KeyRune, 't', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'l', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after q")
	}

	st := store.Snapshot()
	if !st.Theme.IsDark() || st.Locale != locale.EN {
		t.Errorf("state after t, l = %+v", st)
	}
	if n := clk.Pending(); n != 0 {
		t.Errorf("%d timers still pending after quit", n)
	}
}

func TestRunStopsOnEscape(t *testing.T) {
	s := newScreen(t, 80, 25)
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p := New(s, prefs.NewStore(prefs.Default()))

	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), hero.Options{Clock: clk, Timing: typewriter.DefaultTiming(), FrameInterval: time.Second},
			func(locale.Locale) []string { return []string{"x"} })
	}()
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Esc")
	}
}
