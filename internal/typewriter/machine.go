// Package typewriter reveals and hides role labels one character at a time.
//
// Machine is the pure state machine; Runner drives it from a clock.Clock and
// publishes every change until it is disposed.
package typewriter

import "time"

// Phase is the machine's current state.
type Phase int

const (
	Typing Phase = iota
	PausingAfterType
	Deleting
	PausingAfterDelete
)

func (p Phase) String() string {
	switch p {
	case Typing:
		return "typing"
	case PausingAfterType:
		return "pausing-after-type"
	case Deleting:
		return "deleting"
	case PausingAfterDelete:
		return "pausing-after-delete"
	}
	return "unknown"
}

// Timing holds the cadence of each phase.
type Timing struct {
	Type   time.Duration // per character while typing
	Delete time.Duration // per character while deleting
	Dwell  time.Duration // hold after a role is fully typed
	Rest   time.Duration // hold after a role is fully deleted
}

// DefaultTiming is the cadence the hero banner uses.
func DefaultTiming() Timing {
	return Timing{
		Type:   80 * time.Millisecond,
		Delete: 40 * time.Millisecond,
		Dwell:  1800 * time.Millisecond,
	}
}

// Snapshot is what a view needs to draw the effect.
type Snapshot struct {
	Text  string `json:"text"`
	Role  string `json:"role"`
	Index int    `json:"index"`
	Phase Phase  `json:"phase"`
}

// Machine cycles through roles. It is not safe for concurrent use.
type Machine struct {
	roles  [][]rune
	timing Timing
	index  int
	n      int // displayed rune count, 0 <= n <= len(roles[index])
	phase  Phase
}

// NewMachine returns a machine about to type roles[0]. An empty role list
// yields a machine that stays empty forever.
func NewMachine(roles []string, timing Timing) *Machine {
	m := &Machine{timing: timing}
	m.setRoles(roles)
	return m
}

// Step performs one transition and returns the delay before the next one.
func (m *Machine) Step() time.Duration {
	if len(m.roles) == 0 {
		return m.timing.Type
	}
	role := m.roles[m.index]

	switch m.phase {
	case Typing:
		if m.n < len(role) {
			m.n++
			return m.timing.Type
		}
		m.phase = PausingAfterType
		return m.timing.Dwell
	case PausingAfterType:
		m.phase = Deleting
		return m.timing.Delete
	case Deleting:
		if m.n > 0 {
			m.n--
			return m.timing.Delete
		}
		m.phase = PausingAfterDelete
		return m.timing.Rest
	case PausingAfterDelete:
		m.index = (m.index + 1) % len(m.roles)
		m.phase = Typing
		return m.timing.Type
	}
	return m.timing.Type
}

// SetRoles swaps the role list (a locale change). The cursor wraps into the
// new list and the displayed prefix is clamped to the new role's length.
func (m *Machine) SetRoles(roles []string) {
	m.setRoles(roles)
}

func (m *Machine) setRoles(roles []string) {
	m.roles = make([][]rune, len(roles))
	for i, r := range roles {
		m.roles[i] = []rune(r)
	}
	if len(m.roles) == 0 {
		m.index, m.n = 0, 0
		return
	}
	m.index %= len(m.roles)
	if l := len(m.roles[m.index]); m.n > l {
		m.n = l
	}
}

// Text is the currently displayed prefix.
func (m *Machine) Text() string {
	if len(m.roles) == 0 {
		return ""
	}
	return string(m.roles[m.index][:m.n])
}

// Index is the position of the targeted role.
func (m *Machine) Index() int { return m.index }

// Phase is the current state.
func (m *Machine) Phase() Phase { return m.phase }

// Snapshot captures the drawable state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{Text: m.Text(), Index: m.index, Phase: m.phase}
	if len(m.roles) > 0 {
		s.Role = string(m.roles[m.index])
	}
	return s
}
