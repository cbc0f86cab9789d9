package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/fluid"
)

// VelocityRenderer draws a short velocity segment per dynamic particle.
type VelocityRenderer struct {
	Length   float32 // seconds of travel represented by a segment
	MaxSpeed float32
}

// NewVelocityRenderer creates a velocity overlay scaled for cfg.
func NewVelocityRenderer(cfg fluid.Config) *VelocityRenderer {
	s := NewScale(ColorBySpeed, cfg)
	return &VelocityRenderer{Length: 0.02, MaxSpeed: s.MaxSpeed}
}

// Draw renders the segments with additive blending.
func (r *VelocityRenderer) Draw(particles []fluid.Particle, cam *camera.Camera) {
	rl.BeginBlendMode(rl.BlendAdditive)

	for i := range particles {
		p := &particles[i]
		if !p.IsDynamic() {
			continue
		}
		if !cam.IsVisible(p.Position.X, p.Position.Y, 0) {
			continue
		}
		speed := p.Velocity.Len()
		if speed == 0 {
			continue
		}
		alpha := speed / r.MaxSpeed
		if alpha > 1 {
			alpha = 1
		}
		if alpha*200 < 2 {
			continue
		}

		tip := p.Position.Add(p.Velocity.Scale(r.Length))
		x0, y0 := cam.WorldToScreen(p.Position.X, p.Position.Y)
		x1, y1 := cam.WorldToScreen(tip.X, tip.Y)
		rl.DrawLineEx(
			rl.Vector2{X: x0, Y: y0},
			rl.Vector2{X: x1, Y: y1},
			1,
			rl.Color{R: 90, G: 160, B: 200, A: uint8(alpha * 200)},
		)
	}

	rl.EndBlendMode()
}
