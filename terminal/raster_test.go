package terminal

import (
	"testing"

	"github.com/pthm-cable/sphfluid/fluid"
)

func rasterConfig() fluid.Config {
	cfg := fluid.DefaultConfig()
	cfg.Width, cfg.Height = 100, 50
	cfg.RestDensity = 1
	return cfg
}

func TestRasterizeOrientation(t *testing.T) {
	r := NewRasterizer(rasterConfig(), " .o@", 1)
	bottomLeft := fluid.NewDynamic(5, 5)
	bottomLeft.Density = 1
	topRight := fluid.NewDynamic(95, 45)
	topRight.Density = 1

	var g Grid
	r.Rasterize(&g, []fluid.Particle{bottomLeft, topRight}, 10, 5)

	if g.Cols != 10 || g.Rows != 5 || len(g.Cells) != 50 {
		t.Fatalf("grid = %dx%d (%d cells), want 10x5", g.Cols, g.Rows, len(g.Cells))
	}
	if got := g.At(0, 4); got != '@' {
		t.Errorf("bottom-left cell = %q, want '@'", got)
	}
	if got := g.At(9, 0); got != '@' {
		t.Errorf("top-right cell = %q, want '@'", got)
	}
	if got := g.At(5, 2); got != ' ' {
		t.Errorf("empty cell = %q, want ' '", got)
	}
}

func TestRasterizeDensityRamp(t *testing.T) {
	r := NewRasterizer(rasterConfig(), " .o@", 1)
	tests := []struct {
		name    string
		density float32
		want    rune
	}{
		{"zero density still visible", 0, '.'},
		{"low", 0.2, '.'},
		{"mid", 0.7, 'o'},
		{"at scale", 1, '@'},
		{"above scale", 5, '@'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fluid.NewDynamic(50, 25)
			p.Density = tt.density
			var g Grid
			r.Rasterize(&g, []fluid.Particle{p}, 1, 1)
			if got := g.At(0, 0); got != tt.want {
				t.Errorf("density %v -> %q, want %q", tt.density, got, tt.want)
			}
		})
	}
}

func TestRasterizeWallsAndPeak(t *testing.T) {
	r := NewRasterizer(rasterConfig(), " .o@", 1)
	wall := fluid.NewStatic(50, 25)
	low := fluid.NewDynamic(51, 26)
	low.Density = 0.2
	high := fluid.NewDynamic(52, 24)
	high.Density = 1

	var g Grid
	r.Rasterize(&g, []fluid.Particle{wall}, 1, 1)
	if got := g.At(0, 0); got != WallGlyph {
		t.Errorf("wall-only cell = %q, want WallGlyph", got)
	}

	r.Rasterize(&g, []fluid.Particle{wall, low, high}, 1, 1)
	if got := g.At(0, 0); got != '@' {
		t.Errorf("mixed cell = %q, want fluid peak '@'", got)
	}
}

func TestRasterizeSkipsOutside(t *testing.T) {
	r := NewRasterizer(rasterConfig(), "", 0)
	out := fluid.NewDynamic(-5, 200)
	var g Grid
	r.Rasterize(&g, []fluid.Particle{out}, 4, 4)
	for i, ch := range g.Cells {
		if ch != ' ' {
			t.Fatalf("cell %d = %q, want blank", i, ch)
		}
	}
}
