package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	toggleOff = rl.Color{R: 80, G: 80, B: 80, A: 255}
	toggleOn  = rl.Color{R: 100, G: 200, B: 100, A: 255}
	keyColor  = rl.Color{R: 150, G: 150, B: 150, A: 255}
)

// ControlsPanel lists the overlays with their keys and current state.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a hidden controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel and returns the Y below it.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	line := r.Theme.LineHeight

	categories := overlays.Categories()
	rows := 0
	for _, cat := range categories {
		rows += len(overlays.ByCategory(cat)) + 1
	}
	height := int32(rows)*line + int32(len(categories))*4 + padding*2 + line + 4
	r.DrawPanel(c.x, c.y, c.width, height)

	x := c.x + padding
	y := c.y + padding
	rl.DrawText("Overlays", x, y, 16, rl.White)
	y += line + 4

	for _, cat := range categories {
		y = r.DrawSectionHeader(x, y, categoryLabel(cat))
		for _, desc := range overlays.ByCategory(cat) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += line
		}
		y += 4
	}
	return c.y + height
}

func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	theme := c.renderer.Theme

	status, name := toggleOff, theme.LabelColor
	if enabled {
		status, name = toggleOn, rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, status)
	rl.DrawText(desc.Name, x+14, y, theme.FontSize, name)

	if desc.KeyLabel != "" {
		key := fmt.Sprintf("[%s]", desc.KeyLabel)
		rl.DrawText(key, x+width-rl.MeasureText(key, theme.FontSize), y, theme.FontSize, keyColor)
	}
}

func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "panels":
		return "Panels"
	}
	return cat
}
