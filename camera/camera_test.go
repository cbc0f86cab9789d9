package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) <= 0.01 }

func TestNew(t *testing.T) {
	cam := New(1600, 600, 800, 600)

	if cam.X != 400 || cam.Y != 300 {
		t.Errorf("expected camera at (400, 300), got (%f, %f)", cam.X, cam.Y)
	}
	// Height is the limiting axis: 600/600.
	if cam.Zoom != 1.0 {
		t.Errorf("expected fit zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenYUp(t *testing.T) {
	cam := New(800, 600, 800, 600)

	tests := []struct {
		name   string
		wx, wy float32
		sx, sy float32
	}{
		{"center", 400, 300, 400, 300},
		{"bottom-left", 0, 0, 0, 600},
		{"top-right", 800, 600, 800, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := cam.WorldToScreen(tt.wx, tt.wy)
			if !near(sx, tt.sx) || !near(sy, tt.sy) {
				t.Errorf("WorldToScreen(%v, %v) = (%v, %v), want (%v, %v)", tt.wx, tt.wy, sx, sy, tt.sx, tt.sy)
			}
		})
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 800, 600)
	cam.SetZoom(2)
	cam.Pan(50, -30)

	for _, tc := range []struct{ sx, sy float32 }{{640, 360}, {100, 100}, {1200, 600}} {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)", tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToDomain(t *testing.T) {
	cam := New(800, 600, 800, 600)
	cam.Pan(-10000, 10000)
	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected clamp to (0, 0), got (%v, %v)", cam.X, cam.Y)
	}
	cam.Pan(10000, -10000)
	if cam.X != 800 || cam.Y != 600 {
		t.Errorf("expected clamp to (800, 600), got (%v, %v)", cam.X, cam.Y)
	}
}

func TestZoomLimits(t *testing.T) {
	cam := New(800, 600, 800, 600)
	cam.ZoomBy(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("zoom = %v, want max %v", cam.Zoom, cam.MaxZoom)
	}
	cam.ZoomBy(0.00001)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("zoom = %v, want min %v", cam.Zoom, cam.MinZoom)
	}
	cam.Reset()
	if cam.Zoom != cam.FitZoom() {
		t.Errorf("reset zoom = %v, want fit %v", cam.Zoom, cam.FitZoom())
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(800, 600, 800, 600)
	wx, wy := cam.ScreenToWorld(200, 150)
	cam.ZoomAt(200, 150, 2)
	sx, sy := cam.WorldToScreen(wx, wy)
	if !near(sx, 200) || !near(sy, 150) {
		t.Errorf("anchor moved to (%v, %v)", sx, sy)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(800, 600, 800, 600)
	cam.SetZoom(4)
	if !cam.IsVisible(400, 300, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(10, 10, 1) {
		t.Error("corner should be culled at 4x zoom")
	}
}

func TestResize(t *testing.T) {
	cam := New(800, 600, 800, 600)
	cam.Resize(400, 300)
	if cam.FitZoom() != 0.5 {
		t.Errorf("fit zoom = %v, want 0.5", cam.FitZoom())
	}
	if cam.Zoom > cam.MaxZoom || cam.Zoom < cam.MinZoom {
		t.Errorf("zoom %v outside [%v, %v]", cam.Zoom, cam.MinZoom, cam.MaxZoom)
	}
}
