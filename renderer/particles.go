package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/fluid"
)

// ParticleRenderer draws fluid particles as filled circles.
type ParticleRenderer struct {
	Radius    float32 // world units
	ShowWalls bool
	Scale     Scale
}

// NewParticleRenderer creates a renderer for the given solver configuration.
func NewParticleRenderer(radius float32, mode ColorMode, showWalls bool, cfg fluid.Config) *ParticleRenderer {
	return &ParticleRenderer{
		Radius:    radius,
		ShowWalls: showWalls,
		Scale:     NewScale(mode, cfg),
	}
}

// SetMode switches the colour mode.
func (r *ParticleRenderer) SetMode(mode ColorMode) {
	r.Scale.Mode = mode
}

// Draw renders every visible particle.
func (r *ParticleRenderer) Draw(particles []fluid.Particle, cam *camera.Camera) {
	radius := r.Radius * cam.Zoom
	if radius < 1 {
		radius = 1
	}
	for i := range particles {
		p := &particles[i]
		if !p.IsDynamic() && !r.ShowWalls {
			continue
		}
		if !cam.IsVisible(p.Position.X, p.Position.Y, r.Radius) {
			continue
		}
		sx, sy := cam.WorldToScreen(p.Position.X, p.Position.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, r.Scale.Color(p))
	}
}
