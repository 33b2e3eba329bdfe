package flowscene

import (
	"math"
	"math/rand/v2"
)

// ReferenceTPS is the tick rate at which one Tick(1/ReferenceTPS, 1) advances
// a particle by exactly its Speed. Motion scales with dt, so it is the same
// on any frame rate.
const ReferenceTPS = 60

// particleLengthDivisor converts a path's description length into a particle
// count: longer (more complex) paths carry more particles.
const particleLengthDivisor = 150

// ParticleSpeed is the range per-particle speeds (progress per reference
// tick) are drawn from.
var ParticleSpeed = Range{Min: 0.002, Max: 0.006}

// Particle is one flow marker bound to a message edge.
type Particle struct {
	// Progress is the fractional position along the edge, always in [0, 1).
	Progress float64
	// Speed is the progress increment per reference tick before the live
	// speed multiplier is applied.
	Speed float64
	// Edge is the index of the bound edge in the scene's edge list.
	Edge int

	geom PathGeometry // read-only, shared by all particles on the edge
}

// Geometry returns the bound edge's path geometry.
func (p *Particle) Geometry() PathGeometry {
	return p.geom
}

// ParticleCount returns how many particles a message edge with the given
// path description length carries: max(1, floor(length/150)) + 1.
func ParticleCount(descriptionLen int) int {
	return max(1, descriptionLen/particleLengthDivisor) + 1
}

// ParticleSystem owns the particle population for one edge set.
type ParticleSystem struct {
	particles []Particle
	geom      GeometryProvider
	rng       *rand.Rand
}

// NewParticleSystem creates an empty system. geom measures edge paths (nil
// uses FlatGeometry); rng seeds progress and speed (nil uses the global
// source).
func NewParticleSystem(geom GeometryProvider, rng *rand.Rand) *ParticleSystem {
	if geom == nil {
		geom = FlatGeometry{}
	}
	return &ParticleSystem{geom: geom, rng: rng}
}

// Rebuild discards every particle and spawns a fresh population for edges.
// Only message edges spawn particles.
func (ps *ParticleSystem) Rebuild(edges []DiagramEdge) {
	ps.particles = ps.particles[:0:0]
	for i := range edges {
		e := &edges[i]
		if e.Kind != EdgeMessage {
			continue
		}
		g := ps.geom.Geometry(FormatPath(e.Path))
		n := ParticleCount(len(e.Description))
		for j := 0; j < n; j++ {
			ps.particles = append(ps.particles, Particle{
				Progress: ps.float64(),
				Speed:    ParticleSpeed.randomFrom(ps.rng),
				Edge:     i,
				geom:     g,
			})
		}
	}
}

func (ps *ParticleSystem) float64() float64 {
	if ps.rng != nil {
		return ps.rng.Float64()
	}
	return rand.Float64()
}

// Tick advances every particle by speed*multiplier per reference tick,
// scaled by dt seconds, wrapping progress into [0, 1).
func (ps *ParticleSystem) Tick(dt, multiplier float64) {
	scale := multiplier * dt * ReferenceTPS
	for i := range ps.particles {
		p := &ps.particles[i]
		p.Progress = wrapUnit(p.Progress + p.Speed*scale)
	}
}

// wrapUnit maps v into [0, 1). Non-finite input resets to 0.
func wrapUnit(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Mod(v, 1)
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}

// Particles returns the live particle slice. The returned slice MUST NOT be
// resized by the caller.
func (ps *ParticleSystem) Particles() []Particle {
	return ps.particles
}

// Len returns the number of particles.
func (ps *ParticleSystem) Len() int {
	return len(ps.particles)
}

// Position returns particle i's scene position. ok is false for particles
// on unmeasurable paths; those must not be drawn.
func (ps *ParticleSystem) Position(i int) (Vec2, bool) {
	p := &ps.particles[i]
	if p.geom == nil {
		return Vec2{}, false
	}
	return p.geom.PointAt(p.Progress)
}

// Random returns a random float64 in [Min, Max].
func (r Range) Random() float64 {
	return r.randomFrom(nil)
}

func (r Range) randomFrom(rng *rand.Rand) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	f := rand.Float64()
	if rng != nil {
		f = rng.Float64()
	}
	return r.Min + f*(r.Max-r.Min)
}
