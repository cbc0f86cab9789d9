package fluid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned by New when the configuration is unusable.
var ErrInvalidConfig = errors.New("invalid fluid config")

// BoundaryPolicy selects how particles are kept inside the domain.
type BoundaryPolicy int

const (
	// BoundaryClampDamped clamps positions to [H, extent-H] and reflects the
	// offending velocity component by Config.Damping.
	BoundaryClampDamped BoundaryPolicy = iota
	// BoundaryStaticWall surrounds the domain with static particles and does
	// not clamp.
	BoundaryStaticWall
)

func (b BoundaryPolicy) String() string {
	switch b {
	case BoundaryClampDamped:
		return "clamp_damped"
	case BoundaryStaticWall:
		return "static_wall"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(b))
	}
}

// ParseBoundaryPolicy parses the names produced by BoundaryPolicy.String.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp_damped", "clamp":
		return BoundaryClampDamped, nil
	case "static_wall", "wall":
		return BoundaryStaticWall, nil
	}
	return 0, fmt.Errorf("%w: unknown boundary policy %q", ErrInvalidConfig, s)
}

// SceneConfig describes the initial dam-break block.
type SceneConfig struct {
	Spacing    float32 // grid spacing as a fraction of H, in (0, 1)
	Jitter     float32 // horizontal jitter as a fraction of the spacing
	OriginX    float32 // lower-left corner of the block; clamped to the legal region
	OriginY    float32
	BlockWidth float32 // maximum block width as a fraction of the domain width
}

// WallConfig describes static boundary geometry for BoundaryStaticWall.
type WallConfig struct {
	Spacing float32 // wall particle spacing as a fraction of H
	Layers  int

	Inlet       bool
	InletY      float32 // pipe centerline
	InletLength float32
	InletWidth  float32 // distance between the two pipe walls
}

// EmitterSource is one inflow point.
type EmitterSource struct {
	X, Y     float32
	Jitter   float32 // uniform jitter radius around (X, Y)
	VelX     float32
	VelY     float32
	Interval int // ticks between emissions
}

// EmitterConfig controls continuous inflow.
type EmitterConfig struct {
	Enabled      bool
	MaxParticles int // total store size at which emission stops
	Sources      []EmitterSource
}

// Config is the solver configuration. It is copied into the solver and never
// changed afterwards.
type Config struct {
	ParticleCount int

	H           float32 // smoothing radius
	Mass        float32
	RestDensity float32
	GasConst    float32
	Viscosity   float32
	Gravity     Vec2
	DT          float32

	Width  float32
	Height float32

	Boundary BoundaryPolicy
	Damping  float32 // velocity scale on wall contact, negative reflects

	Scene   SceneConfig
	Walls   WallConfig
	Emitter EmitterConfig

	// Strict checks every pair contribution for non-finite values and names
	// the offending pair in the fault.
	Strict bool

	Workers           int // 0 selects GOMAXPROCS
	ParallelThreshold int // 0 selects the pool default
	Seed              int64
}

// DefaultConfig returns a dam-break setup in an 800x600 domain.
func DefaultConfig() Config {
	return Config{
		ParticleCount: 1000,
		H:             16,
		Mass:          65,
		RestDensity:   0.33,
		GasConst:      4e6,
		Viscosity:     200,
		Gravity:       Vec2{0, -1000},
		DT:            0.001,
		Width:         800,
		Height:        600,
		Boundary:      BoundaryClampDamped,
		Damping:       -0.5,
		Scene: SceneConfig{
			Spacing:    0.9,
			Jitter:     0.1,
			BlockWidth: 0.6,
		},
		Walls: WallConfig{
			Spacing:     0.5,
			Layers:      2,
			InletY:      450,
			InletLength: 120,
			InletWidth:  48,
		},
		Emitter: EmitterConfig{
			MaxParticles: 2500,
		},
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.ParticleCount < 0:
		return fmt.Errorf("%w: particle count %d is negative", ErrInvalidConfig, c.ParticleCount)
	case !(c.H > 0) || !finite32(c.H):
		return fmt.Errorf("%w: smoothing radius %v must be positive", ErrInvalidConfig, c.H)
	case !(c.Mass > 0) || !finite32(c.Mass):
		return fmt.Errorf("%w: mass %v must be positive", ErrInvalidConfig, c.Mass)
	case !(c.DT > 0) || !finite32(c.DT):
		return fmt.Errorf("%w: timestep %v must be positive", ErrInvalidConfig, c.DT)
	case !finite32(c.RestDensity) || !finite32(c.GasConst) || !finite32(c.Viscosity):
		return fmt.Errorf("%w: fluid constants must be finite", ErrInvalidConfig)
	case c.Viscosity < 0:
		return fmt.Errorf("%w: viscosity %v is negative", ErrInvalidConfig, c.Viscosity)
	case !c.Gravity.finite():
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidConfig)
	case !(c.Width > 2*c.H) || !(c.Height > 2*c.H):
		return fmt.Errorf("%w: domain %vx%v too small for H=%v", ErrInvalidConfig, c.Width, c.Height, c.H)
	case c.Boundary != BoundaryClampDamped && c.Boundary != BoundaryStaticWall:
		return fmt.Errorf("%w: unknown boundary policy %v", ErrInvalidConfig, c.Boundary)
	case !(c.Scene.Spacing > 0 && c.Scene.Spacing < 1):
		return fmt.Errorf("%w: scene spacing %v must be in (0, 1)", ErrInvalidConfig, c.Scene.Spacing)
	case c.Scene.Jitter < 0 || c.Scene.Jitter >= 0.5:
		return fmt.Errorf("%w: scene jitter %v must be in [0, 0.5)", ErrInvalidConfig, c.Scene.Jitter)
	case !(c.Scene.BlockWidth > 0 && c.Scene.BlockWidth <= 1):
		return fmt.Errorf("%w: block width %v must be in (0, 1]", ErrInvalidConfig, c.Scene.BlockWidth)
	case c.Workers < 0 || c.ParallelThreshold < 0:
		return fmt.Errorf("%w: worker settings must not be negative", ErrInvalidConfig)
	}

	if c.Boundary == BoundaryStaticWall {
		w := c.Walls
		if !(w.Spacing > 0 && w.Spacing < 1) {
			return fmt.Errorf("%w: wall spacing %v must be in (0, 1)", ErrInvalidConfig, w.Spacing)
		}
		if w.Layers < 1 {
			return fmt.Errorf("%w: wall layers %d must be at least 1", ErrInvalidConfig, w.Layers)
		}
		if w.Inlet && (!(w.InletLength > 0) || !(w.InletWidth > 0)) {
			return fmt.Errorf("%w: inlet length and width must be positive", ErrInvalidConfig)
		}
	}

	if c.Emitter.Enabled {
		if c.Emitter.MaxParticles < c.ParticleCount {
			return fmt.Errorf("%w: emitter cap %d below initial count %d",
				ErrInvalidConfig, c.Emitter.MaxParticles, c.ParticleCount)
		}
		for i, s := range c.Emitter.Sources {
			if s.Interval < 1 {
				return fmt.Errorf("%w: emitter source %d interval %d must be at least 1", ErrInvalidConfig, i, s.Interval)
			}
			if s.Jitter < 0 {
				return fmt.Errorf("%w: emitter source %d jitter is negative", ErrInvalidConfig, i)
			}
		}
	}
	return nil
}

// Bounds returns the region fluid particles are laid out in.
func (c Config) Bounds() (minX, minY, maxX, maxY float32) {
	inset := c.H
	if c.Boundary == BoundaryStaticWall {
		ws := c.Walls.Spacing * c.H
		inset = float32(c.Walls.Layers) * ws
	}
	return inset, inset, c.Width - inset, c.Height - inset
}
