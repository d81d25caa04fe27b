// Package hero runs the banner's two effects for one view, the typewriter
// and the particle network, and streams their output to the page.
package hero

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/particles"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/typewriter"
)

// Sink receives effect output. Both methods may be called concurrently from
// the two effects' timers and must not block.
type Sink interface {
	Frame(particles.Frame)
	Typewriter(typewriter.Snapshot)
}

// RolesFunc returns the typewriter roles for a locale.
type RolesFunc func(locale.Locale) []string

type Options struct {
	Clock         clock.Clock
	Timing        typewriter.Timing
	FrameInterval time.Duration
	// Rand seeds particle placement; nil uses a time-seeded source.
	Rand *rand.Rand
}

// Effects is the pair of periodic activities behind one hero banner. The two
// share no mutable state; they only read the view's prefs.Store.
type Effects struct {
	runner *typewriter.Runner
	loop   *particles.Loop

	unsubscribe func()
	once        sync.Once
}

// Start sizes the particle surface to w x h, starts both effects from the
// store's current state and follows later locale and theme changes.
func Start(opts Options, store *prefs.Store, roles RolesFunc, w, h float64, sink Sink) *Effects {
	if opts.Clock == nil {
		opts.Clock = clock.NewReal()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	st := store.Snapshot()
	e := &Effects{}
	e.runner = typewriter.NewRunner(opts.Clock,
		typewriter.NewMachine(roles(st.Locale), opts.Timing), sink.Typewriter)
	e.loop = particles.NewLoop(opts.Clock, particles.New(w, h, rng),
		opts.FrameInterval, st.Theme, sink.Frame)

	current := st.Locale
	var mu sync.Mutex
	e.unsubscribe = store.Subscribe(func(next prefs.State) {
		e.loop.SetTheme(next.Theme)
		mu.Lock()
		changed := next.Locale != current
		current = next.Locale
		mu.Unlock()
		if changed {
			e.runner.SetRoles(roles(next.Locale))
		}
	})

	sink.Typewriter(e.runner.Snapshot())
	e.loop.Start()
	e.runner.Start()
	return e
}

// Resize changes the particle surface bounds without reseeding.
func (e *Effects) Resize(w, h float64) { e.loop.Resize(w, h) }

// Typewriter returns the typewriter's current state.
func (e *Effects) Typewriter() typewriter.Snapshot { return e.runner.Snapshot() }

// Dispose stops both effects and the state subscription. After it returns
// the sink receives nothing more.
func (e *Effects) Dispose() {
	e.once.Do(func() {
		e.unsubscribe()
		e.runner.Dispose()
		e.loop.Dispose()
	})
}
