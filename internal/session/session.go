// Package session tracks server-side views of the page. A browser load of
// the page creates a session holding that view's Locale/Theme state and the
// hero effects attached to it; nothing outlives the session.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/prefs"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session not found")
	// ErrFull is returned by Create when the registry is at its cap and no
	// unused session can be evicted.
	ErrFull = errors.New("too many sessions")
)

// Disposer is a periodic activity that must stop when its view goes away.
type Disposer interface {
	Dispose()
}

type Session struct {
	ID    string
	Store *prefs.Store

	clk     clock.Clock
	created time.Time

	mu       sync.Mutex
	lastSeen time.Time
	used     bool // had a follow-up request or an attachment
	attached map[int]Disposer
	nextID   int
	closed   bool
	done     chan struct{}
}

func newSession(st prefs.State, clk clock.Clock) *Session {
	now := clk.Now()
	return &Session{
		ID:       uuid.NewString(),
		Store:    prefs.NewStore(st),
		clk:      clk,
		created:  now,
		lastSeen: now,
		attached: make(map[int]Disposer),
		done:     make(chan struct{}),
	}
}

// Created is when the view was first rendered.
func (s *Session) Created() time.Time { return s.created }

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.clk.Now()
	s.used = true
	s.mu.Unlock()
}

// idle reports whether the session has nothing attached and has had no
// requests since cutoff, or since unusedCutoff if it was never used.
func (s *Session) idle(cutoff, unusedCutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.attached) > 0 {
		return false
	}
	if !s.used {
		return s.lastSeen.Before(unusedCutoff)
	}
	return s.lastSeen.Before(cutoff)
}

// unused reports whether the session never saw a follow-up request or an
// attachment.
func (s *Session) unused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.used && len(s.attached) == 0
}

// Attach ties d to the session's lifetime. The returned detach func removes
// it without disposing and restarts the idle countdown. Attaching to a closed
// session disposes d at once.
func (s *Session) Attach(d Disposer) (detach func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		d.Dispose()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.attached[id] = d
	s.used = true
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.attached, id)
		s.lastSeen = s.clk.Now()
		s.mu.Unlock()
	}
}

// Attached returns the number of live attachments.
func (s *Session) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close disposes everything attached. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	attached := s.attached
	s.attached = nil
	close(s.done)
	s.mu.Unlock()

	for _, d := range attached {
		d.Dispose()
	}
}

// Registry owns every live session.
type Registry struct {
	clk       clock.Clock
	ttl       time.Duration
	unusedTTL time.Duration
	max       int

	mu       sync.Mutex
	sessions map[string]*Session
	sweep    clock.Timer
	closed   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithUnusedTTL expires sessions that never saw a follow-up request or an
// attached stream after d instead of the full ttl.
func WithUnusedTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 && d < r.ttl {
			r.unusedTTL = d
		}
	}
}

// WithMaxSessions caps the number of live sessions. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(r *Registry) { r.max = n }
}

// NewRegistry returns a registry whose sessions expire after ttl without a
// request or an attached stream.
func NewRegistry(clk clock.Clock, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		clk:       clk,
		ttl:       ttl,
		unusedTTL: ttl,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new session starting at st. At the cap, the oldest
// unused session is evicted to make room; if every session is in use Create
// fails with ErrFull.
func (r *Registry) Create(st prefs.State) (*Session, error) {
	s := newSession(st, r.clk)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("session registry closed")
	}
	var evicted *Session
	if r.max > 0 && len(r.sessions) >= r.max {
		evicted = r.oldestUnusedLocked()
		if evicted == nil {
			r.mu.Unlock()
			return nil, ErrFull
		}
		delete(r.sessions, evicted.ID)
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	return s, nil
}

// oldestUnusedLocked returns the earliest created unused session. r.mu must
// be held.
func (r *Registry) oldestUnusedLocked() *Session {
	var oldest *Session
	for _, s := range r.sessions {
		if !s.unused() {
			continue
		}
		if oldest == nil || s.created.Before(oldest.created) {
			oldest = s
		}
	}
	return oldest
}

// Get returns the session and marks it as seen.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	s.touch()
	return s, nil
}

// Remove closes and forgets one session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes every idle session and returns how many it removed.
func (r *Registry) Sweep() int {
	now := r.clk.Now()
	cutoff, unusedCutoff := now.Add(-r.ttl), now.Add(-r.unusedTTL)
	var expired []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idle(cutoff, unusedCutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until Close.
func (r *Registry) StartSweeper(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.sweep != nil {
		return
	}
	r.scheduleLocked(interval)
}

func (r *Registry) scheduleLocked(interval time.Duration) {
	r.sweep = r.clk.AfterFunc(interval, func() {
		if n := r.Sweep(); n > 0 {
			log.Printf("session: expired %d idle sessions", n)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.closed {
			r.scheduleLocked(interval)
		}
	})
}

// Close stops the sweeper and closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.sweep != nil {
		r.sweep.Stop()
	}
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
