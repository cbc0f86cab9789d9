package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/sim"
	"github.com/pthm-cable/sphfluid/stream"
	"github.com/pthm-cable/sphfluid/telemetry"
	"github.com/pthm-cable/sphfluid/terminal"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	term := flag.Bool("terminal", false, "Draw the fluid in the terminal instead of a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	seed := flag.Int64("seed", 0, "Scene seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 0, "Solver ticks per update call (0 = use config)")
	streamFrames := flag.Bool("stream", false, "Serve frames over websocket at the configured address")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging). The terminal
	// viewer owns stdout, so logs go to stderr there.
	logOut := os.Stdout
	if *term {
		logOut = os.Stderr
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := sim.Options{
		Config:         cfg,
		Seed:           *seed,
		LogStats:       *logStats,
		StatsWindow:    *statsWindow,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		Headless:       *headless || *term,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *resume != "" {
		snap, err := telemetry.LoadSnapshot(*resume)
		if err != nil {
			slog.Error("failed to load snapshot", "path", *resume, "error", err)
			os.Exit(1)
		}
		opts.Resume = snap
	}

	if *streamFrames {
		hub := stream.NewHub(stream.NewLayout(cfg.FluidConfig()))
		if _, err := stream.Serve(ctx, cfg.Stream.Addr, cfg.Stream.Path, hub); err != nil {
			slog.Error("failed to start stream", "addr", cfg.Stream.Addr, "error", err)
			os.Exit(1)
		}
		opts.Hub = hub
	}

	switch {
	case *term:
		os.Exit(runTerminal(ctx, cfg, opts))
	case *headless:
		os.Exit(runHeadless(ctx, opts, *maxTicks))
	default:
		os.Exit(runWindow(cfg, opts, *maxTicks))
	}
}

func runHeadless(ctx context.Context, opts sim.Options, maxTicks int) int {
	s, err := sim.New(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer s.Close()

	slog.Info("starting headless simulation",
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	start := time.Now()
	for ctx.Err() == nil {
		if err := s.UpdateHeadless(); err != nil {
			// Already logged and written by the simulation.
			return 2
		}
		if maxTicks > 0 && int(s.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick(), "elapsed", time.Since(start).Round(time.Millisecond))
			break
		}
	}

	if opts.SnapshotDir != "" {
		if _, err := s.SaveSnapshot(); err != nil {
			slog.Error("failed to save final snapshot", "error", err)
			return 1
		}
	}
	return 0
}

// frameSource advances a whole update per terminal frame.
type frameSource struct {
	*sim.Sim
}

func (f frameSource) Step() error { return f.UpdateHeadless() }

func runTerminal(ctx context.Context, cfg *config.Config, opts sim.Options) int {
	s, err := sim.New(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer s.Close()

	raster := terminal.NewRasterizer(s.Solver().Config(), cfg.Terminal.Ramp, float32(cfg.Terminal.DensityScale))
	viewer := terminal.NewViewer(raster, time.Duration(cfg.Terminal.FrameMillis)*time.Millisecond)
	if err := viewer.Run(ctx, frameSource{s}); err != nil {
		slog.Error("terminal viewer stopped", "error", err)
		return 2
	}
	return 0
}

func runWindow(cfg *config.Config, opts sim.Options, maxTicks int) int {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "SPH Fluid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	s, err := sim.New(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer s.Close()

	for !rl.WindowShouldClose() {
		s.Update()
		s.Draw()

		if maxTicks > 0 && int(s.Tick()) >= maxTicks {
			break
		}
	}
	return 0
}
