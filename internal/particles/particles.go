// Package particles implements the hero banner's particle network: points
// drifting inside a surface, bouncing off its edges, joined by lines when
// close to each other.
package particles

import (
	"math"
	"math/rand"
)

const (
	// NarrowViewport is the width below which fewer particles are spawned.
	NarrowViewport = 768
	// LinkDistance is the distance under which two particles are joined.
	LinkDistance = 120.0
	// MaxLinkOpacity is the opacity of a link between coincident particles.
	MaxLinkOpacity = 0.3

	narrowCount = 30
	wideCount   = 60
	maxSpeed    = 0.25
)

// Particle is a point with a velocity in surface units per frame.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Radius float64
}

// Count returns how many particles to spawn for a viewport width.
func Count(viewportWidth float64) int {
	if viewportWidth < NarrowViewport {
		return narrowCount
	}
	return wideCount
}

// Simulation owns a fixed set of particles inside a W x H surface.
// It is not safe for concurrent use.
type Simulation struct {
	W, H      float64
	Particles []Particle
}

// New seeds Count(w) particles at random positions inside the surface with
// small random velocities.
func New(w, h float64, rng *rand.Rand) *Simulation {
	w, h = math.Max(w, 0), math.Max(h, 0)
	n := Count(w)
	s := &Simulation{W: w, H: h, Particles: make([]Particle, n)}
	for i := range s.Particles {
		s.Particles[i] = Particle{
			X:      rng.Float64() * w,
			Y:      rng.Float64() * h,
			VX:     (rng.Float64() - 0.5) * 2 * maxSpeed,
			VY:     (rng.Float64() - 0.5) * 2 * maxSpeed,
			Radius: rng.Float64()*2 + 1,
		}
	}
	return s
}

// Step advances every particle by dt frames and reflects it off the edges.
func (s *Simulation) Step(dt float64) {
	for i := range s.Particles {
		p := &s.Particles[i]
		p.X += p.VX * dt
		p.Y += p.VY * dt
		reflectAxis(&p.X, &p.VX, s.W)
		reflectAxis(&p.Y, &p.VY, s.H)
	}
}

// reflectAxis clamps pos into [0, hi] and points vel back inside when pos
// crossed an edge. Velocity already pointing inward is left alone so a
// particle clamped by Resize does not oscillate.
func reflectAxis(pos, vel *float64, hi float64) bool {
	if *pos < 0 {
		*pos = 0
		if *vel < 0 {
			*vel = -*vel
		}
		return true
	}
	if *pos > hi {
		*pos = hi
		if *vel > 0 {
			*vel = -*vel
		}
		return true
	}
	return false
}

// Resize changes the surface bounds without reseeding. Particles left
// outside a shrunk surface are clamped onto its edge.
func (s *Simulation) Resize(w, h float64) {
	s.W, s.H = math.Max(w, 0), math.Max(h, 0)
	for i := range s.Particles {
		p := &s.Particles[i]
		p.X = math.Min(math.Max(p.X, 0), s.W)
		p.Y = math.Min(math.Max(p.Y, 0), s.H)
	}
}

// Link joins two particles closer than the link distance.
type Link struct {
	A, B    int
	Dist    float64
	Opacity float64
}

// LinkOpacity decays linearly from MaxLinkOpacity at distance 0 to 0 at max.
func LinkOpacity(dist, max float64) float64 {
	if dist >= max {
		return 0
	}
	return (1 - dist/max) * MaxLinkOpacity
}

// Links calls fn once per unordered pair (A < B) closer than max.
func (s *Simulation) Links(max float64, fn func(Link)) {
	ps := s.Particles
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			dx := ps[i].X - ps[j].X
			dy := ps[i].Y - ps[j].Y
			d := math.Sqrt(dx*dx + dy*dy)
			if d < max {
				fn(Link{A: i, B: j, Dist: d, Opacity: LinkOpacity(d, max)})
			}
		}
	}
}

// Present draws the current state onto c using palette p.
func (s *Simulation) Present(c Canvas, p Palette) {
	c.Clear(s.W, s.H)
	for _, pt := range s.Particles {
		c.Disc(pt.X, pt.Y, pt.Radius, p.Particle)
	}
	s.Links(LinkDistance, func(l Link) {
		a, b := s.Particles[l.A], s.Particles[l.B]
		c.Line(a.X, a.Y, b.X, b.Y, p.LinkWidth, p.Link.WithAlpha(l.Opacity))
	})
}
