// Fluid constant preview tool - interactive dam break with sliders.
//
// Usage: go run ./cmd/preview [-config file.yaml]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/renderer"
)

const (
	windowWidth  = 1200
	windowHeight = 720
	panelWidth   = 360
	viewWidth    = windowWidth - panelWidth
)

// previewParams holds the slider-controlled constants.
type previewParams struct {
	ParticleCount float32
	RestDensity   float32
	GasConst      float32
	Viscosity     float32
	Damping       float32
	StepsPerFrame float32
}

func paramsFromConfig(cfg *config.Config) previewParams {
	return previewParams{
		ParticleCount: float32(cfg.Fluid.ParticleCount),
		RestDensity:   float32(cfg.Fluid.RestDensity),
		GasConst:      float32(cfg.Fluid.GasConst),
		Viscosity:     float32(cfg.Fluid.Viscosity),
		Damping:       float32(cfg.Boundary.Damping),
		StepsPerFrame: float32(cfg.Solver.StepsPerUpdate),
	}
}

func (p previewParams) apply(cfg *config.Config) error {
	cfg.Fluid.ParticleCount = int(p.ParticleCount)
	cfg.Fluid.RestDensity = float64(p.RestDensity)
	cfg.Fluid.GasConst = float64(p.GasConst)
	cfg.Fluid.Viscosity = float64(p.Viscosity)
	cfg.Boundary.Damping = float64(p.Damping)
	cfg.Solver.StepsPerUpdate = int(p.StepsPerFrame)
	return cfg.Recompute()
}

func (p previewParams) yaml() string {
	return fmt.Sprintf(`fluid:
  particle_count: %d
  rest_density: %.3f
  gas_const: %.0f
  viscosity: %.1f
boundary:
  damping: %.2f`,
		int(p.ParticleCount), p.RestDensity, p.GasConst, p.Viscosity, p.Damping)
}

// preview owns the running solver and its drawing state.
type preview struct {
	cfg       *config.Config
	solver    *fluid.Solver
	cam       *camera.Camera
	domain    *renderer.DomainRenderer
	particles *renderer.ParticleRenderer
	mode      renderer.ColorMode
	buf       []fluid.Particle
}

func (pv *preview) restart(p previewParams) error {
	if err := p.apply(pv.cfg); err != nil {
		return err
	}
	fcfg := pv.cfg.FluidConfig()
	s, err := fluid.New(fcfg)
	if err != nil {
		return err
	}
	if pv.solver != nil {
		pv.solver.Close()
	}
	pv.solver = s
	pv.cam = camera.New(viewWidth, windowHeight, fcfg.Width, fcfg.Height)
	pv.domain = renderer.NewDomainRenderer(fcfg)
	pv.particles = renderer.NewParticleRenderer(float32(pv.cfg.Render.PointRadius), pv.mode, true, fcfg)
	pv.buf = s.SnapshotInto(pv.buf)
	return nil
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	defaults := paramsFromConfig(cfg)
	params := defaults

	mode, err := renderer.ParseColorMode(cfg.Render.ColorBy)
	if err != nil {
		mode = renderer.ColorByDensity
	}
	pv := &preview{cfg: cfg, mode: mode}
	if err := pv.restart(params); err != nil {
		slog.Error("failed to build solver", "error", err)
		os.Exit(1)
	}
	defer func() { pv.solver.Close() }()

	rl.InitWindow(windowWidth, windowHeight, "SPH Fluid Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	running := true
	status := ""

	for !rl.WindowShouldClose() {
		if running && pv.solver.Err() == nil {
			for i := 0; i < int(params.StepsPerFrame); i++ {
				if err := pv.solver.Advance(); err != nil {
					slog.Warn("solver faulted", "error", err)
					break
				}
			}
			pv.buf = pv.solver.SnapshotInto(pv.buf)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		pv.domain.Draw(pv.cam)
		pv.particles.Draw(pv.buf, pv.cam)

		rl.DrawText(fmt.Sprintf("tick %d  particles %d  colour %s",
			pv.solver.Tick(), pv.solver.Len(), pv.mode), 10, 10, 16, rl.LightGray)
		if err := pv.solver.Err(); err != nil {
			rl.DrawText(err.Error(), 10, 30, 16, rl.Red)
		}

		// Control panel
		rl.DrawRectangle(viewWidth, 0, panelWidth, windowHeight, rl.RayWhite)
		panelX := float32(viewWidth + 15)
		panelY := float32(10)

		rl.DrawText("Fluid Constants", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		params.ParticleCount = slider(&panelY, panelX, "Particles (restart)", "%.0f", params.ParticleCount, 50, 3000)
		params.RestDensity = slider(&panelY, panelX, "Rest density", "%.3f", params.RestDensity, 0.05, 2)
		params.GasConst = slider(&panelY, panelX, "Gas constant", "%.2e", params.GasConst, 1e5, 2e7)
		params.Viscosity = slider(&panelY, panelX, "Viscosity", "%.1f", params.Viscosity, 0, 1000)
		params.Damping = slider(&panelY, panelX, "Wall damping", "%.2f", params.Damping, -1, 0)
		params.StepsPerFrame = slider(&panelY, panelX, "Steps per frame", "%.0f", params.StepsPerFrame, 1, 20)
		panelY += 10

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(running, "Pause", "Run")) {
			running = !running
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Restart") {
			if err := pv.restart(params); err != nil {
				status = err.Error()
			} else {
				status = ""
			}
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Colour: "+pv.mode.String()) {
			pv.mode = pv.mode.Next()
			pv.particles.SetMode(pv.mode)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			if err := pv.restart(params); err != nil {
				status = err.Error()
			}
		}
		panelY += 50

		if status != "" {
			rl.DrawText(status, int32(panelX), int32(panelY), 14, rl.Red)
			panelY += 20
		}

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range strings.Split(params.yaml(), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.Gray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(params.yaml())
		}

		rl.EndDrawing()
	}
}

// slider draws a labelled slider bar and advances y past it.
func slider(y *float32, x float32, label, format string, value, lo, hi float32) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 110), Height: 20},
		"", "",
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, v), int32(x+float32(panelWidth-100)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	return v
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
