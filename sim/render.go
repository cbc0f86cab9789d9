package sim

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/renderer"
	"github.com/pthm-cable/sphfluid/telemetry"
	"github.com/pthm-cable/sphfluid/ui"
)

const controlsLegend = "[Space] pause  [N] step  [,/.] speed  [C] colour  [R] reset  [S] snapshot  [Tab] overlays  [wheel/RMB] camera"

const panelWidth = 240

func (s *Sim) initView() error {
	mode, err := renderer.ParseColorMode(s.cfg.Render.ColorBy)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	v := &view{
		camera:    camera.New(w, h, s.fcfg.Width, s.fcfg.Height),
		domain:    renderer.NewDomainRenderer(s.fcfg),
		particles: renderer.NewParticleRenderer(float32(s.cfg.Render.PointRadius), mode, s.cfg.Render.ShowWalls, s.fcfg),
		velocity:  renderer.NewVelocityRenderer(s.fcfg),
		colorMode: mode,
		overlays:  ui.NewOverlayRegistry(),
		hud:       ui.NewHUD(),
		controls:  ui.NewControlsPanel(10, 140, 200),
		perfPanel: ui.NewPerfPanel(0, 0),
		stats:     ui.NewStatsPanel(0, 0, panelWidth),
		inspector: ui.NewInspector(0, 0, panelWidth),
		screenW:   w,
		screenH:   h,
	}
	v.overlays.SetEnabled(ui.OverlayWalls, s.cfg.Render.ShowWalls)
	v.overlays.SetEnabled(ui.OverlayBounds, true)
	s.view = v
	return nil
}

// Update handles input and advances the solver unless paused or faulted.
func (s *Sim) Update() {
	s.handleInput()

	if s.paused || s.solver.Err() != nil {
		return
	}
	for i := 0; i < s.stepsPerUpdate; i++ {
		if err := s.stepOrPause(); err != nil {
			return
		}
	}
}

// Draw renders one frame.
func (s *Sim) Draw() {
	s.perf.RecordFrame()
	v := s.view

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	if v.overlays.IsEnabled(ui.OverlayBounds) {
		v.domain.Draw(v.camera)
	}
	v.particles.Draw(s.particles, v.camera)
	if v.overlays.IsEnabled(ui.OverlayVelocity) {
		v.velocity.Draw(s.particles, v.camera)
	}

	s.drawUI()

	rl.EndDrawing()
}

func (s *Sim) drawUI() {
	v := s.view

	data := ui.HUDData{
		Title:     "SPH Fluid",
		Tick:      s.solver.Tick(),
		SimTime:   float64(s.solver.Tick()) * float64(s.fcfg.DT),
		Particles: len(s.particles),
		Speed:     s.stepsPerUpdate,
		FPS:       rl.GetFPS(),
		Paused:    s.paused,
		ColorMode: v.colorMode.String(),
		Boundary:  s.fcfg.Boundary.String(),
	}
	for i := range s.particles {
		if s.particles[i].IsDynamic() {
			data.Dynamic++
		}
	}
	if em := s.solver.Emitter(); em != nil {
		data.Emitted = em.Emitted()
		data.EmitLimit = em.Limit()
	}
	if err := s.solver.Err(); err != nil {
		data.Fault = err.Error()
	}
	if s.lastBookmark != nil {
		data.LastEvent = fmt.Sprintf("%s @ %d: %s", s.lastBookmark.Type, s.lastBookmark.Tick, s.lastBookmark.Description)
	}
	v.hud.Draw(data)
	v.hud.DrawControls(int32(v.screenH), controlsLegend)
	v.controls.Draw(v.overlays)

	// Right-hand panels stack downwards.
	x := int32(v.screenW) - panelWidth - 10
	y := int32(10)
	if v.overlays.IsEnabled(ui.OverlayStats) {
		v.stats.SetPosition(x, y)
		fcfg := s.fcfg
		y = v.stats.Draw(telemetry.ComputeParticleStats(s.particles, float64(fcfg.Mass), float64(fcfg.RestDensity))) + 10
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.SetPosition(x, y)
		v.perfPanel.Draw(s.perf.Stats())
	}
	if v.overlays.IsEnabled(ui.OverlayInspect) {
		m := rl.GetMousePosition()
		wx, wy := v.camera.ScreenToWorld(m.X, m.Y)
		if i := ui.Nearest(s.particles, wx, wy, s.fcfg.H); i >= 0 {
			v.inspector.SetPosition(x, y)
			v.inspector.Draw(ui.InspectorData{Index: i, Particle: s.particles[i], RestDensity: s.fcfg.RestDensity})
		}
	}
}
