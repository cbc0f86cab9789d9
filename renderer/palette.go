// Package renderer draws the fluid state with raylib.
package renderer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/fluid"
)

// ColorMode selects the particle field mapped onto the colour ramp.
type ColorMode int

const (
	ColorByDensity ColorMode = iota
	ColorByPressure
	ColorBySpeed
)

func (m ColorMode) String() string {
	switch m {
	case ColorByDensity:
		return "density"
	case ColorByPressure:
		return "pressure"
	case ColorBySpeed:
		return "speed"
	}
	return fmt.Sprintf("ColorMode(%d)", int(m))
}

// Next cycles to the following mode.
func (m ColorMode) Next() ColorMode {
	return (m + 1) % 3
}

// ParseColorMode maps a config string to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "density":
		return ColorByDensity, nil
	case "pressure":
		return ColorByPressure, nil
	case "speed":
		return ColorBySpeed, nil
	}
	return ColorByDensity, fmt.Errorf("unknown color mode %q", s)
}

// WallColor is used for static particles regardless of mode.
var WallColor = rl.Color{R: 110, G: 110, B: 118, A: 255}

// ramp stops from calm to compressed.
var ramp = []rl.Color{
	{R: 20, G: 60, B: 140, A: 255},
	{R: 40, G: 140, B: 220, A: 255},
	{R: 120, G: 220, B: 230, A: 255},
	{R: 250, G: 230, B: 140, A: 255},
	{R: 240, G: 90, B: 60, A: 255},
}

// Ramp maps t in [0, 1] onto the palette. Values outside are clamped.
func Ramp(t float32) rl.Color {
	if t != t || t <= 0 {
		return ramp[0]
	}
	if t >= 1 {
		return ramp[len(ramp)-1]
	}
	f := t * float32(len(ramp)-1)
	i := int(f)
	frac := f - float32(i)
	a, b := ramp[i], ramp[i+1]
	return rl.Color{
		R: lerp8(a.R, b.R, frac),
		G: lerp8(a.G, b.G, frac),
		B: lerp8(a.B, b.B, frac),
		A: 255,
	}
}

func lerp8(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t + 0.5)
}

// Scale normalizes particle fields for one colour mode.
type Scale struct {
	Mode ColorMode

	RestDensity float32
	GasConst    float32
	MaxSpeed    float32
}

// NewScale derives scale limits from the solver configuration.
func NewScale(mode ColorMode, cfg fluid.Config) Scale {
	// Rough free-fall speed across the domain height.
	g := cfg.Gravity.Len()
	maxSpeed := float32(1)
	if g > 0 {
		maxSpeed = float32(math.Sqrt(float64(2 * g * cfg.Height)))
	}
	return Scale{
		Mode:        mode,
		RestDensity: cfg.RestDensity,
		GasConst:    cfg.GasConst,
		MaxSpeed:    maxSpeed,
	}
}

// Value returns the normalized ramp position for a particle.
func (s Scale) Value(p *fluid.Particle) float32 {
	switch s.Mode {
	case ColorByPressure:
		// Half a rest density of compression fills the ramp; suction stays at zero.
		full := s.GasConst * s.RestDensity * 0.5
		if full <= 0 {
			return 0
		}
		return p.Pressure / full
	case ColorBySpeed:
		if s.MaxSpeed <= 0 {
			return 0
		}
		return p.Velocity.Len() / s.MaxSpeed
	default:
		if s.RestDensity <= 0 {
			return 0
		}
		// 0.5 rho0 maps to the bottom, 1.5 rho0 to the top.
		return p.Density/s.RestDensity - 0.5
	}
}

// Color returns the particle colour under the scale.
func (s Scale) Color(p *fluid.Particle) rl.Color {
	if !p.IsDynamic() {
		return WallColor
	}
	return Ramp(s.Value(p))
}
