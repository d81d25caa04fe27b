package session

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/prefs"
)

type countingDisposer struct{ n atomic.Int32 }

func (d *countingDisposer) Dispose() { d.n.Add(1) }

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCreateStartsFromGivenState(t *testing.T) {
	r := NewRegistry(clock.NewFake(epoch), time.Minute)
	st := prefs.State{Locale: locale.EN, Theme: prefs.Dark}
	s, err := r.Create(st)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "" {
		t.Fatal("empty session id")
	}
	if got := s.Store.Snapshot(); got != st {
		t.Errorf("snapshot = %+v, want %+v", got, st)
	}
	got, err := r.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	r := NewRegistry(clock.NewFake(epoch), time.Minute)
	a, _ := r.Create(prefs.Default())
	b, _ := r.Create(prefs.Default())
	if a.ID == b.ID {
		t.Fatal("duplicate ids")
	}
	a.Store.ToggleTheme()
	if b.Store.Snapshot().Theme != prefs.Light {
		t.Error("toggling one session changed another")
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry(clock.NewFake(epoch), time.Minute)
	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	clk := clock.NewFake(epoch)
	r := NewRegistry(clk, time.Minute)
	idle, _ := r.Create(prefs.Default())
	busy, _ := r.Create(prefs.Default())
	d := &countingDisposer{}
	idle.Attach(d)
	detach := idle.Attach(&countingDisposer{})
	detach()

	clk.Advance(30 * time.Second)
	if _, err := r.Get(busy.ID); err != nil {
		t.Fatal(err)
	}
	clk.Advance(45 * time.Second)

	// idle still has d attached, so it survives.
	if n := r.Sweep(); n != 0 {
		t.Fatalf("swept %d sessions with live attachments or recent requests", n)
	}

	idle.Close()
	if d.n.Load() != 1 {
		t.Errorf("Close disposed %d times, want 1", d.n.Load())
	}

	clk.Advance(time.Minute)
	if n := r.Sweep(); n != 2 {
		t.Errorf("swept %d, want 2", n)
	}
	if r.Len() != 0 {
		t.Errorf("%d sessions left", r.Len())
	}
	select {
	case <-busy.Done():
	default:
		t.Error("expired session not closed")
	}
}

func TestSweeperRunsOnClock(t *testing.T) {
	clk := clock.NewFake(epoch)
	r := NewRegistry(clk, time.Minute)
	s, _ := r.Create(prefs.Default())
	d := &countingDisposer{}
	detach := s.Attach(d)
	r.StartSweeper(10 * time.Second)

	clk.Advance(2 * time.Minute)
	if r.Len() != 1 {
		t.Fatal("session with attached stream expired")
	}

	detach()
	clk.Advance(time.Minute + 10*time.Second)
	if r.Len() != 0 {
		t.Errorf("sweeper left %d sessions", r.Len())
	}
	if d.n.Load() != 0 {
		t.Error("detached disposer was disposed")
	}

	r.Close()
	if clk.Pending() != 0 {
		t.Errorf("%d timers pending after Close", clk.Pending())
	}
}

func TestCloseDisposesEverything(t *testing.T) {
	r := NewRegistry(clock.NewFake(epoch), time.Minute)
	var ds []*countingDisposer
	for i := 0; i < 3; i++ {
		s, _ := r.Create(prefs.Default())
		d := &countingDisposer{}
		s.Attach(d)
		ds = append(ds, d)
	}
	r.Close()
	r.Close()
	for i, d := range ds {
		if d.n.Load() != 1 {
			t.Errorf("disposer %d ran %d times", i, d.n.Load())
		}
	}
	if _, err := r.Create(prefs.Default()); err == nil {
		t.Error("Create succeeded on closed registry")
	}
}

func TestAttachAfterCloseDisposesImmediately(t *testing.T) {
	r := NewRegistry(clock.NewFake(epoch), time.Minute)
	s, _ := r.Create(prefs.Default())
	r.Remove(s.ID)
	d := &countingDisposer{}
	s.Attach(d)()
	if d.n.Load() != 1 {
		t.Errorf("late attach disposed %d times, want 1", d.n.Load())
	}
}

func TestUnusedSessionsExpireEarly(t *testing.T) {
	clk := clock.NewFake(epoch)
	r := NewRegistry(clk, 30*time.Minute, WithUnusedTTL(2*time.Minute))

	unused, _ := r.Create(prefs.Default())
	revisited, _ := r.Create(prefs.Default())
	streaming, _ := r.Create(prefs.Default())
	if _, err := r.Get(revisited.ID); err != nil {
		t.Fatal(err)
	}
	detach := streaming.Attach(&countingDisposer{})

	clk.Advance(3 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if _, err := r.Get(unused.ID); !errors.Is(err, ErrNotFound) {
		t.Error("unused session outlived the short ttl")
	}

	// Once detached, a used session gets the full ttl.
	detach()
	clk.Advance(10 * time.Minute)
	r.Sweep()
	if r.Len() != 2 {
		t.Errorf("%d sessions left, want 2", r.Len())
	}
}

func TestMaxSessionsEvictsOldestUnused(t *testing.T) {
	clk := clock.NewFake(epoch)
	r := NewRegistry(clk, time.Hour, WithMaxSessions(3))

	first, _ := r.Create(prefs.Default())
	clk.Advance(time.Second)
	second, _ := r.Create(prefs.Default())
	clk.Advance(time.Second)
	third, _ := r.Create(prefs.Default())
	r.Get(first.ID)

	fourth, err := r.Create(prefs.Default())
	if err != nil {
		t.Fatalf("Create at cap: %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("%d sessions, want 3", r.Len())
	}
	if _, err := r.Get(second.ID); !errors.Is(err, ErrNotFound) {
		t.Error("oldest unused session was not evicted")
	}
	select {
	case <-second.Done():
	default:
		t.Error("evicted session was not closed")
	}
	for _, s := range []*Session{first, third, fourth} {
		if _, err := r.Get(s.ID); err != nil {
			t.Errorf("session %s evicted", s.ID)
		}
	}

	// Every session is now used: the cap holds.
	if _, err := r.Create(prefs.Default()); !errors.Is(err, ErrFull) {
		t.Errorf("err = %v, want ErrFull", err)
	}
}
