package fluid

import (
	"math"
	"testing"
)

func approx(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

// pairConfig is a config for hand-placed particles with no gravity.
func pairConfig() Config {
	cfg := DefaultConfig()
	cfg.ParticleCount = 0
	cfg.H = 16
	cfg.Mass = 65
	cfg.GasConst = 2000
	cfg.Viscosity = 0
	cfg.Gravity = Vec2{}
	cfg.Workers = 1
	return cfg
}

func mustFromParticles(t *testing.T, cfg Config, ps []Particle) *Solver {
	t.Helper()
	s, err := NewFromParticles(cfg, ps)
	if err != nil {
		t.Fatalf("NewFromParticles: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func mustAdvance(t *testing.T, s *Solver) {
	t.Helper()
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
}
