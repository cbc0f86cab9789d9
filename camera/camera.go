// Package camera provides a 2D camera system for viewport control.
package camera

// Camera maps the fluid domain (origin bottom-left, y up) onto the screen
// (origin top-left, y down). Supports pan and zoom within the domain bounds.
type Camera struct {
	// Position is the camera center in domain coordinates
	X, Y float32

	// Zoom level in screen pixels per domain unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Domain dimensions
	DomainW, DomainH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the domain, zoomed to fit it.
func New(viewportW, viewportH, domainW, domainH float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		DomainW:   domainW,
		DomainH:   domainH,
	}
	c.updateLimits()
	c.Reset()
	return c
}

// FitZoom returns the zoom at which the whole domain just fits the viewport.
func (c *Camera) FitZoom() float32 {
	return min(c.ViewportW/c.DomainW, c.ViewportH/c.DomainH)
}

func (c *Camera) updateLimits() {
	fit := c.FitZoom()
	c.MinZoom = fit * 0.5
	c.MaxZoom = fit * 8
}

// WorldToScreen converts domain coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 - (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to domain coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y - (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateLimits()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. Dragging right
// or down moves the view the same way on screen. The center stays inside
// the domain.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, c.DomainW)
	c.Y = clamp(c.Y-dy/c.Zoom, 0, c.DomainH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the domain point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, 0, c.DomainW)
	c.Y = clamp(c.Y+wy-ny, 0, c.DomainH)
}

// Reset centers the camera and fits the domain to the viewport.
func (c *Camera) Reset() {
	c.X = c.DomainW / 2
	c.Y = c.DomainH / 2
	c.Zoom = c.FitZoom()
}

// VisibleWorldBounds returns the domain-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
