package fluid

import (
	"fmt"
	"math/rand"
)

// BuildScene lays out the initial particles for cfg: a dam-break block of
// dynamic particles followed, under BoundaryStaticWall, by the perimeter
// walls and the optional inlet pipe. The result is deterministic for a given
// cfg.Seed.
func BuildScene(cfg Config) ([]Particle, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	ps, err := layoutBlock(cfg, rng)
	if err != nil {
		return nil, err
	}

	if cfg.Boundary == BoundaryStaticWall {
		ps = appendWalls(ps, cfg)
		if cfg.Walls.Inlet {
			ps, err = appendInlet(ps, cfg)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := checkDuplicates(ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// layoutBlock fills rows of cfg.Scene.Spacing*H spaced particles from the
// block origin until cfg.ParticleCount are placed.
func layoutBlock(cfg Config, rng *rand.Rand) ([]Particle, error) {
	n := cfg.ParticleCount
	if n == 0 {
		return nil, nil
	}

	minX, minY, maxX, maxY := cfg.Bounds()
	spacing := cfg.Scene.Spacing * cfg.H
	jitter := cfg.Scene.Jitter * spacing

	// With an inlet the block starts clear of the pipe by more than H, so no
	// fluid particle begins inside the pipe walls' support.
	left := minX
	if cfg.Boundary == BoundaryStaticWall && cfg.Walls.Inlet {
		left = inletEnd(cfg) + cfg.H + spacing/2
	}
	x0 := max(cfg.Scene.OriginX, left+jitter)
	y0 := max(cfg.Scene.OriginY, minY)
	right := min(x0+cfg.Scene.BlockWidth*cfg.Width, maxX-jitter)
	if right < x0 || y0 > maxY {
		return nil, fmt.Errorf("%w: block origin (%v, %v) outside [%v, %v]x[%v, %v]",
			ErrLayout, x0, y0, minX, maxX, minY, maxY)
	}

	cols := int((right-x0)/spacing) + 1
	rows := (n + cols - 1) / cols
	top := y0 + float32(rows-1)*spacing
	if top > maxY {
		return nil, fmt.Errorf("%w: %d particles need %d rows of %d, top row at %v exceeds %v",
			ErrLayout, n, rows, cols, top, maxY)
	}

	ps := make([]Particle, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/cols, i%cols
		x := x0 + float32(col)*spacing
		if jitter > 0 {
			x += (rng.Float32()*2 - 1) * jitter
		}
		ps = append(ps, NewDynamic(x, y0+float32(row)*spacing))
	}
	return ps, nil
}

// appendWalls adds cfg.Walls.Layers rectangles of static particles, each
// inset one wall spacing further than the last.
func appendWalls(ps []Particle, cfg Config) []Particle {
	ws := cfg.Walls.Spacing * cfg.H
	for layer := 0; layer < cfg.Walls.Layers; layer++ {
		off := float32(layer) * ws
		left, right := off, cfg.Width-off
		bottom, top := off, cfg.Height-off

		nx := int((right - left) / ws)
		for i := 0; i <= nx; i++ {
			x := left + float32(i)*ws
			ps = append(ps, NewStatic(x, bottom), NewStatic(x, top))
		}

		ny := int((top - bottom) / ws)
		for i := 1; i < ny; i++ {
			y := bottom + float32(i)*ws
			ps = append(ps, NewStatic(left, y), NewStatic(right, y))
		}
	}
	return ps
}

// appendInlet adds a horizontal pipe of two static lines running from the
// inner left wall into the domain.
func appendInlet(ps []Particle, cfg Config) ([]Particle, error) {
	w := cfg.Walls
	minX, minY, maxX, maxY := cfg.Bounds()
	lower := w.InletY - w.InletWidth/2
	upper := w.InletY + w.InletWidth/2
	if lower < minY || upper > maxY || minX+w.InletLength > maxX {
		return nil, fmt.Errorf("%w: inlet at y=%v width %v length %v leaves the domain",
			ErrLayout, w.InletY, w.InletWidth, w.InletLength)
	}

	ws := w.Spacing * cfg.H
	n := int(w.InletLength / ws)
	for i := 0; i <= n; i++ {
		x := minX + float32(i)*ws
		ps = append(ps, NewStatic(x, lower), NewStatic(x, upper))
	}
	return ps, nil
}

// inletEnd returns the x of the last inlet pipe particle.
func inletEnd(cfg Config) float32 {
	minX, _, _, _ := cfg.Bounds()
	ws := cfg.Walls.Spacing * cfg.H
	return minX + float32(int(cfg.Walls.InletLength/ws))*ws
}
