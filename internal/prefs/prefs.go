// Package prefs holds the per-view Locale/Theme state every section renders from.
package prefs

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/locale"
)

// Theme is the light/dark visual mode.
type Theme bool

const (
	Light Theme = false
	Dark  Theme = true
)

// ErrUnknownTheme is returned by ParseTheme for values other than light or dark.
var ErrUnknownTheme = errors.New("unknown theme")

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, errors.Wrapf(ErrUnknownTheme, "%q", s)
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme { return !t }

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool { return bool(t) }

func (t Theme) String() string {
	if t {
		return "dark"
	}
	return "light"
}

// State is an immutable Locale/Theme pair.
type State struct {
	Locale locale.Locale
	Theme  Theme
}

// Default returns the state a fresh view starts with.
func Default() State {
	return State{Locale: locale.Default, Theme: Light}
}

// Store is a single-writer observable holder of a State. Updates replace the
// whole value, so a reader never sees a locale from one update and a theme
// from another.
type Store struct {
	cur atomic.Pointer[State]

	// notify is held from the swap until every subscriber has seen the new
	// state, so deliveries arrive in the order the updates were applied.
	// Subscribers must not write to the store.
	notify sync.Mutex

	mu     sync.Mutex // guards subs
	subs   map[int]func(State)
	nextID int
}

// NewStore returns a store holding initial.
func NewStore(initial State) *Store {
	s := &Store{subs: make(map[int]func(State))}
	s.cur.Store(&initial)
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	return *s.cur.Load()
}

// SetLocale switches the active locale. Locales outside the supported set are
// rejected and leave the state untouched.
func (s *Store) SetLocale(l locale.Locale) (State, error) {
	if !l.Valid() {
		return s.Snapshot(), errors.Wrapf(locale.ErrUnsupported, "%q", string(l))
	}
	return s.update(func(st State) State {
		st.Locale = l
		return st
	}), nil
}

// SetTheme replaces the active theme.
func (s *Store) SetTheme(t Theme) State {
	return s.update(func(st State) State {
		st.Theme = t
		return st
	})
}

// ToggleTheme flips the active theme.
func (s *Store) ToggleTheme() State {
	return s.update(func(st State) State {
		st.Theme = st.Theme.Toggle()
		return st
	})
}

// Subscribe registers fn to receive every state after it is applied. The
// returned cancel func removes the subscription; it is safe to call twice.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) update(fn func(State) State) State {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	next := fn(*s.cur.Load())
	s.cur.Store(&next)
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next
}
