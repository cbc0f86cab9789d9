package sim

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/ui"
)

// maxStepsPerUpdate caps the speed-up keys.
const maxStepsPerUpdate = 20

// handleInput processes keyboard and mouse input.
func (s *Sim) handleInput() {
	s.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		s.paused = !s.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && s.stepsPerUpdate > 1 {
		s.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && s.stepsPerUpdate < maxStepsPerUpdate {
		s.stepsPerUpdate++
	}

	// Single step while paused.
	if s.paused && s.solver.Err() == nil && rl.IsKeyPressed(rl.KeyN) {
		if err := s.stepOrPause(); err != nil {
			slog.Warn("single step faulted", "error", err)
		}
	}

	if rl.IsKeyPressed(rl.KeyR) {
		if err := s.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyS) {
		if _, err := s.SaveSnapshot(); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		}
	}

	v := s.view
	if rl.IsKeyPressed(rl.KeyC) {
		v.colorMode = v.colorMode.Next()
		v.particles.SetMode(v.colorMode)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	v.overlays.PollKeys()
	v.particles.ShowWalls = v.overlays.IsEnabled(ui.OverlayWalls)

	s.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (s *Sim) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	v := s.view
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW = w
	v.screenH = h
	v.camera.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (s *Sim) handleCameraInput() {
	cam := s.view.camera

	// Pan takes screen pixels, so speed is constant on screen.
	const panSpeed = float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, -panSpeed)
	}

	// Drag with the right mouse button.
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Pan(-d.X, -d.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		cam.ZoomAt(m.X, m.Y, 1+wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}
}
