// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sphfluid/fluid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Domain    DomainConfig    `yaml:"domain"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Scene     SceneConfig     `yaml:"scene"`
	Inlet     InletConfig     `yaml:"inlet"`
	Emitter   EmitterConfig   `yaml:"emitter"`
	Solver    SolverConfig    `yaml:"solver"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`
	Terminal  TerminalConfig  `yaml:"terminal"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DomainConfig holds the simulated region. Zero extents default to the screen size.
type DomainConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// FluidConfig holds the SPH constants.
type FluidConfig struct {
	ParticleCount int     `yaml:"particle_count"`
	H             float64 `yaml:"h"` // smoothing radius
	Mass          float64 `yaml:"mass"`
	RestDensity   float64 `yaml:"rest_density"`
	GasConst      float64 `yaml:"gas_const"`
	Viscosity     float64 `yaml:"viscosity"`
	GravityX      float64 `yaml:"gravity_x"`
	GravityY      float64 `yaml:"gravity_y"`
	DT            float64 `yaml:"dt"`
}

// BoundaryConfig selects the boundary policy and its parameters.
type BoundaryConfig struct {
	Policy      string  `yaml:"policy"`       // clamp_damped or static_wall
	Damping     float64 `yaml:"damping"`      // clamp_damped velocity scale
	WallSpacing float64 `yaml:"wall_spacing"` // static_wall spacing as fraction of h
	WallLayers  int     `yaml:"wall_layers"`
}

// SceneConfig holds the dam-break block layout.
type SceneConfig struct {
	Spacing    float64 `yaml:"spacing"` // fraction of h
	Jitter     float64 `yaml:"jitter"`  // fraction of spacing
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`
	BlockWidth float64 `yaml:"block_width"` // fraction of domain width
}

// InletConfig holds the pipe inlet geometry, used with static_wall only.
type InletConfig struct {
	Enabled bool    `yaml:"enabled"`
	Y       float64 `yaml:"y"`
	Length  float64 `yaml:"length"`
	Width   float64 `yaml:"width"`
}

// EmitterConfig holds inflow settings.
type EmitterConfig struct {
	Enabled      bool           `yaml:"enabled"`
	MaxParticles int            `yaml:"max_particles"`
	Sources      []SourceConfig `yaml:"sources"`
}

// SourceConfig is one emitter source.
type SourceConfig struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Jitter   float64 `yaml:"jitter"`
	VelX     float64 `yaml:"vel_x"`
	VelY     float64 `yaml:"vel_y"`
	Interval int     `yaml:"interval"` // ticks between emissions
}

// SolverConfig holds execution settings.
type SolverConfig struct {
	Strict            bool  `yaml:"strict"`
	Workers           int   `yaml:"workers"` // 0 = GOMAXPROCS
	ParallelThreshold int   `yaml:"parallel_threshold"`
	Seed              int64 `yaml:"seed"`
	StepsPerUpdate    int   `yaml:"steps_per_update"`
}

// RenderConfig holds viewer settings.
type RenderConfig struct {
	PointRadius float64 `yaml:"point_radius"`
	ColorBy     string  `yaml:"color_by"` // density, pressure or speed
	ShowWalls   bool    `yaml:"show_walls"`
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// StreamConfig holds the websocket frame stream settings.
type StreamConfig struct {
	Addr  string `yaml:"addr"`
	Path  string `yaml:"path"`
	Every int    `yaml:"every"` // ticks between frames
}

// TerminalConfig holds the terminal viewer settings.
type TerminalConfig struct {
	Ramp         string  `yaml:"ramp"`
	DensityScale float64 `yaml:"density_scale"` // rho/rho0 mapped to the last ramp glyph
	FrameMillis  int     `yaml:"frame_millis"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	DT32      float32              // Fluid.DT as float32
	ScreenW32 float32              // Screen.Width as float32
	ScreenH32 float32              // Screen.Height as float32
	DomainW32 float32              // Effective domain width as float32
	DomainH32 float32              // Effective domain height as float32
	Boundary  fluid.BoundaryPolicy // parsed Boundary.Policy
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load reads the embedded defaults and overlays the file at path, if any.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded default configuration with derived values.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) computeDerived() error {
	c.Derived.DT32 = float32(c.Fluid.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// Domain defaults to screen size if not specified
	domainW := c.Domain.Width
	if domainW == 0 {
		domainW = float64(c.Screen.Width)
	}
	domainH := c.Domain.Height
	if domainH == 0 {
		domainH = float64(c.Screen.Height)
	}
	c.Derived.DomainW32 = float32(domainW)
	c.Derived.DomainH32 = float32(domainH)

	policy, err := fluid.ParseBoundaryPolicy(c.Boundary.Policy)
	if err != nil {
		return fmt.Errorf("boundary: %w", err)
	}
	c.Derived.Boundary = policy

	if c.Solver.StepsPerUpdate < 1 {
		c.Solver.StepsPerUpdate = 1
	}
	return nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() error {
	return c.computeDerived()
}

// FluidConfig converts the loaded configuration to the solver configuration.
func (c *Config) FluidConfig() fluid.Config {
	sources := make([]fluid.EmitterSource, len(c.Emitter.Sources))
	for i, s := range c.Emitter.Sources {
		sources[i] = fluid.EmitterSource{
			X:        float32(s.X),
			Y:        float32(s.Y),
			Jitter:   float32(s.Jitter),
			VelX:     float32(s.VelX),
			VelY:     float32(s.VelY),
			Interval: s.Interval,
		}
	}

	return fluid.Config{
		ParticleCount: c.Fluid.ParticleCount,
		H:             float32(c.Fluid.H),
		Mass:          float32(c.Fluid.Mass),
		RestDensity:   float32(c.Fluid.RestDensity),
		GasConst:      float32(c.Fluid.GasConst),
		Viscosity:     float32(c.Fluid.Viscosity),
		Gravity:       fluid.Vec2{X: float32(c.Fluid.GravityX), Y: float32(c.Fluid.GravityY)},
		DT:            c.Derived.DT32,
		Width:         c.Derived.DomainW32,
		Height:        c.Derived.DomainH32,
		Boundary:      c.Derived.Boundary,
		Damping:       float32(c.Boundary.Damping),
		Scene: fluid.SceneConfig{
			Spacing:    float32(c.Scene.Spacing),
			Jitter:     float32(c.Scene.Jitter),
			OriginX:    float32(c.Scene.OriginX),
			OriginY:    float32(c.Scene.OriginY),
			BlockWidth: float32(c.Scene.BlockWidth),
		},
		Walls: fluid.WallConfig{
			Spacing:     float32(c.Boundary.WallSpacing),
			Layers:      c.Boundary.WallLayers,
			Inlet:       c.Inlet.Enabled,
			InletY:      float32(c.Inlet.Y),
			InletLength: float32(c.Inlet.Length),
			InletWidth:  float32(c.Inlet.Width),
		},
		Emitter: fluid.EmitterConfig{
			Enabled:      c.Emitter.Enabled,
			MaxParticles: c.Emitter.MaxParticles,
			Sources:      sources,
		},
		Strict:            c.Solver.Strict,
		Workers:           c.Solver.Workers,
		ParallelThreshold: c.Solver.ParallelThreshold,
		Seed:              c.Solver.Seed,
	}
}

// WriteYAML saves the config to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
