package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/fluid"
)

// InspectorData holds the particle under inspection.
type InspectorData struct {
	Index       int
	Particle    fluid.Particle
	RestDensity float32
}

var inspectorSections = []SectionDescriptor{
	{
		Title: "State",
		Fields: []FieldDescriptor{
			{Label: "kind", Widget: WidgetText, TextGetter: func(d any) string {
				if d.(*InspectorData).Particle.IsDynamic() {
					return "fluid"
				}
				return "wall"
			}},
			{Label: "position", Widget: WidgetText, TextGetter: func(d any) string {
				p := d.(*InspectorData).Particle.Position
				return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
			}},
			{Label: "velocity", Widget: WidgetText, TextGetter: func(d any) string {
				v := d.(*InspectorData).Particle.Velocity
				return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
			}},
			{Label: "force", Widget: WidgetText, TextGetter: func(d any) string {
				f := d.(*InspectorData).Particle.Force
				return fmt.Sprintf("(%.3g, %.3g)", f.X, f.Y)
			}},
		},
	},
	{
		Title: "Fields",
		Fields: []FieldDescriptor{
			{Label: "density", Widget: WidgetText, Format: "%.5f", Getter: func(d any) float32 { return d.(*InspectorData).Particle.Density }},
			{Label: "rho/rho0", Widget: WidgetCenteredBar, Range: FieldRange{Min: 0.5, Max: 1.5}, Getter: func(d any) float32 {
				data := d.(*InspectorData)
				if data.RestDensity == 0 {
					return 0
				}
				return data.Particle.Density / data.RestDensity
			}},
			{Label: "pressure", Widget: WidgetText, Format: "%.4g", Getter: func(d any) float32 { return d.(*InspectorData).Particle.Pressure }},
		},
	},
}

// Inspector renders the particle inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range inspectorSections {
		height += r.SectionHeight(sd, &data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("Particle #%d", data.Index), ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	for _, sd := range inspectorSections {
		y = r.DrawSection(ins.x+padding, y, sd, &data, ins.width-padding*2)
	}
	return ins.y + height
}

// Nearest returns the index of the particle closest to (x, y) within
// maxDist, or -1.
func Nearest(particles []fluid.Particle, x, y, maxDist float32) int {
	best := -1
	bestSq := maxDist * maxDist
	for i := range particles {
		dx := particles[i].Position.X - x
		dy := particles[i].Position.Y - y
		if d := dx*dx + dy*dy; d <= bestSq {
			best, bestSq = i, d
		}
	}
	return best
}
