package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/sphfluid/fluid"
)

func TestDefaultsBuildSolver(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fc := cfg.FluidConfig()
	if err := fc.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if fc.Width != 800 || fc.Height != 600 {
		t.Errorf("domain = %vx%v, want screen size 800x600", fc.Width, fc.Height)
	}
	if fc.Boundary != fluid.BoundaryClampDamped {
		t.Errorf("boundary = %v, want clamp_damped", fc.Boundary)
	}

	s, err := fluid.New(fc)
	if err != nil {
		t.Fatalf("fluid.New: %v", err)
	}
	defer s.Close()
	if s.Len() != cfg.Fluid.ParticleCount {
		t.Errorf("particles = %d, want %d", s.Len(), cfg.Fluid.ParticleCount)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte(`
fluid:
  particle_count: 42
boundary:
  policy: static_wall
inlet:
  enabled: true
domain:
  width: 1000
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fluid.ParticleCount != 42 {
		t.Errorf("particle_count = %d, want 42", cfg.Fluid.ParticleCount)
	}
	// Untouched fields keep their defaults.
	if cfg.Fluid.H != 16 {
		t.Errorf("h = %v, want default 16", cfg.Fluid.H)
	}
	if cfg.Derived.Boundary != fluid.BoundaryStaticWall {
		t.Errorf("boundary = %v, want static_wall", cfg.Derived.Boundary)
	}
	if cfg.Derived.DomainW32 != 1000 || cfg.Derived.DomainH32 != 600 {
		t.Errorf("domain = %vx%v, want 1000x600", cfg.Derived.DomainW32, cfg.Derived.DomainH32)
	}

	fc := cfg.FluidConfig()
	if !fc.Walls.Inlet || fc.Walls.Layers != 2 {
		t.Errorf("walls = %+v", fc.Walls)
	}
	if len(fc.Emitter.Sources) != 1 || fc.Emitter.Sources[0].Interval != 8 {
		t.Errorf("emitter sources = %+v", fc.Emitter.Sources)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("fluid: [not, a, map"), 0644)

	policy := filepath.Join(dir, "policy.yaml")
	os.WriteFile(policy, []byte("boundary:\n  policy: bouncy\n"), 0644)

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"bad yaml", bad},
		{"bad policy", policy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(policy); !errors.Is(err, fluid.ErrInvalidConfig) {
		t.Errorf("bad policy err = %v, want ErrInvalidConfig", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.GasConst = 1234
	cfg.Boundary.Policy = "static_wall"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Fluid.GasConst != 1234 || back.Derived.Boundary != fluid.BoundaryStaticWall {
		t.Errorf("round trip lost changes: gas_const=%v boundary=%v", back.Fluid.GasConst, back.Derived.Boundary)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Cfg().Screen.TargetFPS != 60 {
		t.Errorf("target_fps = %d, want 60", Cfg().Screen.TargetFPS)
	}
}
