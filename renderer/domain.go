package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/fluid"
)

// DomainRenderer draws the domain rectangle and the region particles are
// held in.
type DomainRenderer struct {
	width, height          float32
	minX, minY, maxX, maxY float32

	Background rl.Color
	Frame      rl.Color
	Bounds     rl.Color
}

// NewDomainRenderer creates a renderer for the configured domain.
func NewDomainRenderer(cfg fluid.Config) *DomainRenderer {
	minX, minY, maxX, maxY := cfg.Bounds()
	return &DomainRenderer{
		width:      cfg.Width,
		height:     cfg.Height,
		minX:       minX,
		minY:       minY,
		maxX:       maxX,
		maxY:       maxY,
		Background: rl.Color{R: 14, G: 18, B: 24, A: 255},
		Frame:      rl.Color{R: 70, G: 80, B: 95, A: 255},
		Bounds:     rl.Color{R: 45, G: 55, B: 70, A: 255},
	}
}

// Draw renders the domain behind the particles.
func (d *DomainRenderer) Draw(cam *camera.Camera) {
	rl.DrawRectangleRec(d.rect(cam, 0, 0, d.width, d.height), d.Background)
	rl.DrawRectangleLinesEx(d.rect(cam, 0, 0, d.width, d.height), 2, d.Frame)
	rl.DrawRectangleLinesEx(d.rect(cam, d.minX, d.minY, d.maxX, d.maxY), 1, d.Bounds)
}

// rect converts a world box to a screen rectangle. World y points up, so
// the top-left corner comes from maxY.
func (d *DomainRenderer) rect(cam *camera.Camera, x0, y0, x1, y1 float32) rl.Rectangle {
	sx0, sy0 := cam.WorldToScreen(x0, y1)
	sx1, sy1 := cam.WorldToScreen(x1, y0)
	return rl.Rectangle{X: sx0, Y: sy0, Width: sx1 - sx0, Height: sy1 - sy0}
}
