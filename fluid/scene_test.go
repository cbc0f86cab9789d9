package fluid

import (
	"errors"
	"math"
	"testing"
)

func TestBuildSceneBlock(t *testing.T) {
	tests := []struct {
		name   string
		count  int
		policy BoundaryPolicy
	}{
		{"empty", 0, BoundaryClampDamped},
		{"single", 1, BoundaryClampDamped},
		{"default", 1000, BoundaryClampDamped},
		{"walls", 500, BoundaryStaticWall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ParticleCount = tt.count
			cfg.Boundary = tt.policy

			ps, err := BuildScene(cfg)
			if err != nil {
				t.Fatalf("BuildScene: %v", err)
			}

			minX, minY, maxX, maxY := cfg.Bounds()
			dynamic := 0
			for i, p := range ps {
				if !p.IsDynamic() {
					continue
				}
				dynamic++
				x, y := p.Position.X, p.Position.Y
				const eps = 1e-3
				if x < minX-eps || x > maxX+eps || y < minY-eps || y > maxY+eps {
					t.Errorf("particle %d at (%v, %v) outside [%v, %v]x[%v, %v]", i, x, y, minX, maxX, minY, maxY)
				}
			}
			if dynamic != tt.count {
				t.Errorf("dynamic particles = %d, want %d", dynamic, tt.count)
			}
			if tt.policy == BoundaryClampDamped && len(ps) != tt.count {
				t.Errorf("clamp policy produced %d static particles", len(ps)-tt.count)
			}
			if tt.policy == BoundaryStaticWall && len(ps) == tt.count {
				t.Error("static wall policy produced no walls")
			}
		})
	}
}

func TestBuildSceneDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 200
	a, err := BuildScene(cfg)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	b, _ := BuildScene(cfg)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d differs between runs", i)
		}
	}

	cfg.Seed = 99
	c, _ := BuildScene(cfg)
	same := true
	for i := range a {
		if a[i].Position != c[i].Position {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical jitter")
	}
}

func TestBuildSceneSpacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 10
	cfg.Scene.Jitter = 0

	ps, err := BuildScene(cfg)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	want := cfg.Scene.Spacing * cfg.H
	got := ps[1].Position.X - ps[0].Position.X
	if !approx(got, want, 1e-4) {
		t.Errorf("spacing = %v, want %v", got, want)
	}
	if want >= cfg.H {
		t.Errorf("spacing %v not below H", want)
	}
}

func TestInletGeometry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 0
	cfg.Boundary = BoundaryStaticWall
	cfg.Walls.Inlet = true

	withInlet, err := BuildScene(cfg)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	cfg.Walls.Inlet = false
	without, _ := BuildScene(cfg)

	ws := cfg.Walls.Spacing * cfg.H
	wantExtra := 2 * (int(cfg.Walls.InletLength/ws) + 1)
	if got := len(withInlet) - len(without); got != wantExtra {
		t.Errorf("inlet particles = %d, want %d", got, wantExtra)
	}
}

func TestInletClearsBlock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boundary = BoundaryStaticWall
	cfg.Walls.Inlet = true

	ps, err := BuildScene(cfg)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}

	minX, _, _, _ := cfg.Bounds()
	lower := cfg.Walls.InletY - cfg.Walls.InletWidth/2
	upper := cfg.Walls.InletY + cfg.Walls.InletWidth/2
	var pipe, fluid []Vec2
	for i := range ps {
		p := ps[i].Position
		switch {
		case ps[i].IsDynamic():
			fluid = append(fluid, p)
		case (p.Y == lower || p.Y == upper) && p.X >= minX && p.X <= minX+cfg.Walls.InletLength:
			pipe = append(pipe, p)
		}
	}
	if len(fluid) != cfg.ParticleCount {
		t.Fatalf("fluid particles = %d, want %d", len(fluid), cfg.ParticleCount)
	}
	if len(pipe) == 0 {
		t.Fatal("no inlet particles found")
	}

	minDist := float32(math.Inf(1))
	for _, f := range fluid {
		for _, w := range pipe {
			minDist = min(minDist, f.Sub(w).Len())
		}
	}
	if minDist < cfg.H {
		t.Errorf("closest fluid-inlet distance %v below H=%v", minDist, cfg.H)
	}
}

func TestInletTooLongForBlock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boundary = BoundaryStaticWall
	cfg.Walls.Inlet = true
	cfg.Walls.InletLength = 760

	if _, err := BuildScene(cfg); !errors.Is(err, ErrLayout) {
		t.Errorf("err = %v, want ErrLayout", err)
	}
}
