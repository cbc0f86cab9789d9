package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Tick      uint64
	SimTime   float64 // seconds of simulated time
	Particles int
	Dynamic   int
	Emitted   int
	EmitLimit int // 0 when no emitter is configured
	Speed     int // solver steps per frame
	FPS       int32
	Paused    bool
	ColorMode string
	Boundary  string
	Fault     string // empty while the solver is healthy
	LastEvent string // most recent bookmark description
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	counts := fmt.Sprintf("Particles: %d | Fluid: %d | Walls: %d", data.Particles, data.Dynamic, data.Particles-data.Dynamic)
	if data.EmitLimit > 0 {
		counts += fmt.Sprintf(" | Emitted: %d (cap %d)", data.Emitted, data.EmitLimit)
	}
	rl.DrawText(counts, 10, 35, 16, rl.LightGray)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | t = %.3fs | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Colour: %s | Boundary: %s", data.ColorMode, data.Boundary),
		10, 75, 16, rl.LightGray,
	)

	switch {
	case data.Fault != "":
		rl.DrawText("FAULT: "+data.Fault, 10, 95, 16, rl.Red)
	case data.Paused:
		rl.DrawText("PAUSED", 10, 95, 16, rl.Yellow)
	default:
		rl.DrawText("Running", 10, 95, 16, rl.Yellow)
	}
	if data.LastEvent != "" {
		rl.DrawText(data.LastEvent, 10, 115, 14, rl.Gray)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-pass timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Solver Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Tick: %s (p95 %s) | %.0f ticks/s",
			stats.AvgTickDuration.Round(time.Microsecond),
			stats.P95TickDuration.Round(time.Microsecond),
			stats.TicksPerSecond),
		x, y, 14, rl.Yellow,
	)
	y += 16

	for _, phase := range telemetry.Phases {
		avg := stats.PhaseAvg[phase]
		if avg == 0 {
			continue
		}
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// statsSections describes the fluid summary panel over telemetry.ParticleStats.
var statsSections = []SectionDescriptor{
	{
		Title: "Particles",
		Fields: []FieldDescriptor{
			{Label: "fluid", Widget: WidgetBar, Getter: func(d any) float32 {
				s := d.(*telemetry.ParticleStats)
				if s.Particles == 0 {
					return 0
				}
				return float32(s.Dynamic) / float32(s.Particles)
			}},
			{Label: "count", Widget: WidgetText, TextGetter: func(d any) string {
				s := d.(*telemetry.ParticleStats)
				return fmt.Sprintf("%d / %d", s.Dynamic, s.Particles)
			}},
		},
	},
	{
		Title: "Density",
		Fields: []FieldDescriptor{
			{Label: "mean", Widget: WidgetText, Format: "%.4f", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.DensityMean })},
			{Label: "p95", Widget: WidgetText, Format: "%.4f", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.DensityP95 })},
			{Label: "max", Widget: WidgetText, Format: "%.4f", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.DensityMax })},
			{Widget: WidgetSpacer},
			{Label: "peak/rho0", Widget: WidgetCenteredBar, Range: FieldRange{Min: 0.5, Max: 1.5}, Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.Compression })},
		},
	},
	{
		Title: "Pressure",
		Fields: []FieldDescriptor{
			{Label: "mean", Widget: WidgetText, Format: "%.4g", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.PressureMean })},
			{Label: "min", Widget: WidgetText, Format: "%.4g", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.PressureMin })},
			{Label: "max", Widget: WidgetText, Format: "%.4g", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.PressureMax })},
		},
	},
	{
		Title: "Motion",
		Fields: []FieldDescriptor{
			{Label: "speed", Widget: WidgetText, Format: "%.1f", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.SpeedMean })},
			{Label: "max", Widget: WidgetText, Format: "%.1f", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.SpeedMax })},
			{Label: "kinetic", Widget: WidgetText, Format: "%.4g", Getter: statsGetter(func(s *telemetry.ParticleStats) float64 { return s.KineticEnergy })},
			{Label: "centroid", Widget: WidgetText, TextGetter: func(d any) string {
				s := d.(*telemetry.ParticleStats)
				return fmt.Sprintf("(%.0f, %.0f)", s.CentroidX, s.CentroidY)
			}},
		},
	},
}

func statsGetter(f func(*telemetry.ParticleStats) float64) func(any) float32 {
	return func(d any) float32 {
		return float32(f(d.(*telemetry.ParticleStats)))
	}
}

// StatsPanel renders the fluid summary.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the stats panel and returns the Y below it.
func (s *StatsPanel) Draw(stats telemetry.ParticleStats) int32 {
	r := s.renderer
	padding := r.Theme.Padding

	height := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range statsSections {
		height += r.SectionHeight(sd, &stats)
	}
	r.DrawPanel(s.x, s.y, s.width, height)

	y := s.y + padding
	rl.DrawText("Fluid Stats", s.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	for _, sd := range statsSections {
		y = r.DrawSection(s.x+padding, y, sd, &stats, s.width-padding*2)
	}
	return s.y + height
}
