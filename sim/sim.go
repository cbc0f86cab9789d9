// Package sim drives a fluid.Solver with telemetry, streaming and the
// raylib viewer.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/sphfluid/camera"
	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/renderer"
	"github.com/pthm-cable/sphfluid/stream"
	"github.com/pthm-cable/sphfluid/telemetry"
	"github.com/pthm-cable/sphfluid/ui"
)

// bookmarkHistory is the number of stats windows bookmarks compare against.
const bookmarkHistory = 10

// Options configures a Sim.
type Options struct {
	Config         *config.Config
	Seed           int64 // 0 = use config
	LogStats       bool
	StatsWindow    int // ticks, 0 = use config
	OutputDir      string
	SnapshotDir    string
	Headless       bool
	StepsPerUpdate int                 // 0 = use config
	Resume         *telemetry.Snapshot // start from this state instead of the scene
	Hub            *stream.Hub         // optional frame stream
	StatsCallback  func(telemetry.WindowStats)
}

// Sim owns one solver run and everything observing it.
type Sim struct {
	cfg    *config.Config
	fcfg   fluid.Config
	solver *fluid.Solver
	resume *telemetry.Snapshot

	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	lastBookmark  *telemetry.Bookmark
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	snapshotDir   string

	hub         *stream.Hub
	streamEvery uint64
	vertexBuf   []byte
	frameBuf    []byte

	particles      []fluid.Particle
	stepsPerUpdate int
	paused         bool
	faultReported  bool

	headless bool
	view     *view
}

// view holds the graphical-mode state.
type view struct {
	camera    *camera.Camera
	domain    *renderer.DomainRenderer
	particles *renderer.ParticleRenderer
	velocity  *renderer.VelocityRenderer
	colorMode renderer.ColorMode

	overlays  *ui.OverlayRegistry
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	perfPanel *ui.PerfPanel
	stats     *ui.StatsPanel
	inspector *ui.Inspector

	screenW, screenH float32
}

// New builds the solver and its observers. In graphical mode the raylib
// window must already be open.
func New(opts Options) (*Sim, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	fcfg := cfg.FluidConfig()
	if opts.Seed != 0 {
		fcfg.Seed = opts.Seed
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}
	steps := cfg.Solver.StepsPerUpdate
	if opts.StepsPerUpdate > 0 {
		steps = opts.StepsPerUpdate
	}
	every := cfg.Stream.Every
	if every < 1 {
		every = 1
	}

	outputManager, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := outputManager.WriteConfig(cfg); err != nil {
		outputManager.Close()
		return nil, err
	}

	s := &Sim{
		cfg:            cfg,
		fcfg:           fcfg,
		resume:         opts.Resume,
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:      telemetry.NewCollector(statsWindow, fcfg),
		outputManager:  outputManager,
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		hub:            opts.Hub,
		streamEvery:    uint64(every),
		stepsPerUpdate: steps,
		headless:       opts.Headless,
	}

	if err := s.buildSolver(); err != nil {
		outputManager.Close()
		return nil, err
	}
	if !s.headless {
		if err := s.initView(); err != nil {
			s.Close()
			return nil, err
		}
	}

	slog.Info("simulation ready",
		"particles", s.solver.Len(),
		"seed", fcfg.Seed,
		"boundary", fcfg.Boundary.String(),
		"steps_per_update", steps,
		"stats_window", statsWindow,
		"resumed", s.resume != nil,
	)
	return s, nil
}

func (s *Sim) buildSolver() error {
	var (
		solver *fluid.Solver
		err    error
	)
	if s.resume != nil {
		if err := s.resume.Compatible(s.fcfg); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		solver, err = fluid.NewFromParticlesAt(s.fcfg, s.resume.FluidParticles(), s.resume.Tick)
	} else {
		solver, err = fluid.New(s.fcfg)
	}
	if err != nil {
		return err
	}
	solver.SetPerf(passRecorder{s.perf})

	s.solver = solver
	s.particles = solver.SnapshotInto(s.particles)
	s.collector.Reset(solver.Tick())
	s.bookmarks = telemetry.NewBookmarkDetector(bookmarkHistory)
	s.lastBookmark = nil
	s.faultReported = false
	return nil
}

// Reset discards the current run and rebuilds the solver from the scene,
// or from the resume snapshot when one was given.
func (s *Sim) Reset() error {
	old := s.solver
	if err := s.buildSolver(); err != nil {
		return err
	}
	old.Close()
	slog.Info("simulation reset", "particles", s.solver.Len())
	return nil
}

// SaveSnapshot writes the current state to the snapshot directory.
func (s *Sim) SaveSnapshot() (string, error) {
	dir := s.snapshotDir
	if dir == "" {
		dir = "."
	}
	path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(s.solver), dir)
	if err != nil {
		return "", err
	}
	slog.Info("snapshot saved", "path", path, "tick", s.solver.Tick())
	return path, nil
}

// Tick returns the number of completed solver ticks.
func (s *Sim) Tick() uint64 { return s.solver.Tick() }

// Err returns the solver fault, if any.
func (s *Sim) Err() error { return s.solver.Err() }

// Solver exposes the underlying solver.
func (s *Sim) Solver() *fluid.Solver { return s.solver }

// Particles returns the particle state as of the last step. The slice is
// reused between steps.
func (s *Sim) Particles() []fluid.Particle { return s.particles }

// Paused reports whether stepping is suspended.
func (s *Sim) Paused() bool { return s.paused }

// Close stops the solver workers and flushes output files.
func (s *Sim) Close() {
	if s.solver != nil {
		s.solver.Close()
	}
	if err := s.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
}

// passRecorder forwards solver pass timings into the tick opened by Step,
// so telemetry and stream work land in the same sample.
type passRecorder struct {
	perf *telemetry.PerfCollector
}

func (r passRecorder) StartTick()             {}
func (r passRecorder) StartPhase(name string) { r.perf.StartPhase(name) }
func (r passRecorder) EndTick()               {}
