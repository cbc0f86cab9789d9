// Package fluid implements a 2D smoothed particle hydrodynamics solver.
//
// The solver owns a flat array of fixed-layout particles and advances it one
// fixed timestep at a time through three data-parallel passes: density and
// pressure, forces, and integration. Each pass reads a copy of the array taken
// when the pass starts and writes only the particle it is computing, so
// results do not depend on how work is split across goroutines.
package fluid

import (
	"math"
	"unsafe"
)

// Vec2 is a 2D vector of float32 components.
type Vec2 struct {
	X, Y float32
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// LenSq returns the squared length of v.
func (v Vec2) LenSq() float32 { return v.X*v.X + v.Y*v.Y }

// Len returns the length of v.
func (v Vec2) Len() float32 { return float32(math.Sqrt(float64(v.LenSq()))) }

func (v Vec2) addScaled(o Vec2, s float32) Vec2 { return Vec2{v.X + o.X*s, v.Y + o.Y*s} }

func (v Vec2) finite() bool { return finite32(v.X) && finite32(v.Y) }

func finite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// Particle is a single fluid or boundary sample. Its memory layout is fixed
// (see the *Offset constants) so a slice of particles can be uploaded as a
// vertex buffer with Position as the first attribute.
type Particle struct {
	Position Vec2
	Velocity Vec2
	Force    Vec2
	Density  float32
	Pressure float32
	Dynamic  uint32 // 1 for fluid, 0 for static boundary
}

// Byte layout of Particle.
const (
	PositionOffset = 0
	VelocityOffset = 8
	ForceOffset    = 16
	DensityOffset  = 24
	PressureOffset = 28
	DynamicOffset  = 32
	ParticleStride = 36
)

// NewDynamic returns a fluid particle at rest.
func NewDynamic(x, y float32) Particle {
	return Particle{Position: Vec2{x, y}, Dynamic: 1}
}

// NewStatic returns an immovable boundary particle.
func NewStatic(x, y float32) Particle {
	return Particle{Position: Vec2{x, y}}
}

// IsDynamic reports whether the particle is integrated each tick.
func (p *Particle) IsDynamic() bool { return p.Dynamic != 0 }

// VertexBytes reinterprets particles as raw bytes in native byte order.
// The result aliases ps.
func VertexBytes(ps []Particle) []byte {
	if len(ps) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&ps[0])), len(ps)*ParticleStride)
}
