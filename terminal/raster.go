// Package terminal renders the fluid as text with termbox.
package terminal

import "github.com/pthm-cable/sphfluid/fluid"

// WallGlyph marks cells that hold only static particles.
const WallGlyph = '▒'

// DefaultRamp is used when no ramp is configured.
const DefaultRamp = " .:-=+*#%@"

// Grid is a rasterized frame. Row 0 is the top of the domain.
type Grid struct {
	Cols, Rows int
	Cells      []rune
}

// At returns the glyph at (col, row).
func (g *Grid) At(col, row int) rune {
	return g.Cells[row*g.Cols+col]
}

// Rasterizer maps particles onto a character grid by peak density per cell.
type Rasterizer struct {
	Width, Height float32 // domain extent
	RestDensity   float32
	Scale         float32 // rho/rho0 mapped to the last ramp glyph
	Ramp          []rune

	peak []float32
	wall []bool
}

// NewRasterizer creates a rasterizer for cfg.
func NewRasterizer(cfg fluid.Config, ramp string, scale float32) *Rasterizer {
	if ramp == "" {
		ramp = DefaultRamp
	}
	if scale <= 0 {
		scale = 1
	}
	return &Rasterizer{
		Width:       cfg.Width,
		Height:      cfg.Height,
		RestDensity: cfg.RestDensity,
		Scale:       scale,
		Ramp:        []rune(ramp),
	}
}

// Rasterize fills g (reallocating if needed) with a cols x rows frame.
func (r *Rasterizer) Rasterize(g *Grid, ps []fluid.Particle, cols, rows int) {
	n := cols * rows
	if cap(g.Cells) < n {
		g.Cells = make([]rune, n)
	}
	g.Cells = g.Cells[:n]
	g.Cols, g.Rows = cols, rows
	if n == 0 {
		return
	}

	if cap(r.peak) < n {
		r.peak = make([]float32, n)
		r.wall = make([]bool, n)
	}
	peak, wall := r.peak[:n], r.wall[:n]
	clear(peak)
	clear(wall)

	for i := range ps {
		p := &ps[i]
		if p.Position.X < 0 || p.Position.Y < 0 {
			continue
		}
		col := int(p.Position.X / r.Width * float32(cols))
		row := rows - 1 - int(p.Position.Y/r.Height*float32(rows))
		if col < 0 || col >= cols || row < 0 || row >= rows {
			continue
		}
		c := row*cols + col
		if !p.IsDynamic() {
			wall[c] = true
			continue
		}
		// Occupied cells stay visible even at zero density.
		if d := max(p.Density, 1e-30); d > peak[c] {
			peak[c] = d
		}
	}

	last := len(r.Ramp) - 1
	full := r.Scale * r.RestDensity
	for c := range g.Cells {
		switch {
		case peak[c] > 0:
			idx := last
			if full > 0 {
				idx = int(peak[c] / full * float32(last))
			}
			g.Cells[c] = r.Ramp[min(max(idx, 1), last)]
		case wall[c]:
			g.Cells[c] = WallGlyph
		default:
			g.Cells[c] = r.Ramp[0]
		}
	}
}
