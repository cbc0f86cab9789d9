package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for one simulation tick. The solver passes use the same
// strings as fluid.PassDensity and friends.
const (
	PhaseDensity   = "density"
	PhaseForces    = "forces"
	PhaseIntegrate = "integrate"
	PhaseEmit      = "emit"
	PhaseTelemetry = "telemetry"
	PhaseStream    = "stream"
	PhaseOther     = "other"
)

// Phases lists every tracked phase in reporting order.
var Phases = []string{
	PhaseDensity, PhaseForces, PhaseIntegrate, PhaseEmit,
	PhaseTelemetry, PhaseStream, PhaseOther,
}

func phaseIndex(name string) int {
	for i, p := range Phases {
		if p == name {
			return i
		}
	}
	return len(Phases) - 1
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       []time.Duration // indexed like Phases
}

// PerfCollector tracks performance metrics over a rolling window.
// It implements fluid.PhaseRecorder.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int
	current     []time.Duration
	tickStart   time.Time
	phaseStart  time.Time
	lastPhase   int // -1 when no phase is open
	inTick      bool

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of ticks to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	samples := make([]PerfSample, windowSize)
	for i := range samples {
		samples[i].Phases = make([]time.Duration, len(Phases))
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    samples,
		current:    make([]time.Duration, len(Phases)),
		lastPhase:  -1,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	for i := range p.current {
		p.current[i] = 0
	}
	p.lastPhase = -1
	p.inTick = true
}

// StartPhase begins timing a specific phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase >= 0 {
		p.current[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phaseIndex(phase)
}

// EndTick finishes timing the current tick and records the sample.
// Calls without a matching StartTick are ignored.
func (p *PerfCollector) EndTick() {
	if !p.inTick {
		return
	}
	now := time.Now()
	if p.lastPhase >= 0 {
		p.current[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := &p.samples[p.writeIndex]
	sample.TickDuration = now.Sub(p.tickStart)
	copy(sample.Phases, p.current)

	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = -1
	p.inTick = false
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	StdTickDuration time.Duration
	P95TickDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total tick time
	PhasePct map[string]float64

	// Throughput
	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	out := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
		FPS:           fps,
	}
	if p.sampleCount == 0 {
		return out
	}

	ticks := make([]float64, p.sampleCount)
	phaseSum := make([]time.Duration, len(Phases))
	for i := 0; i < p.sampleCount; i++ {
		s := &p.samples[i]
		ticks[i] = float64(s.TickDuration)
		for j, d := range s.Phases {
			phaseSum[j] += d
		}
	}
	sort.Float64s(ticks)

	mean, std := stat.MeanStdDev(ticks, nil)
	if p.sampleCount < 2 {
		std = 0
	}
	out.AvgTickDuration = time.Duration(mean)
	out.StdTickDuration = time.Duration(std)
	out.MinTickDuration = time.Duration(ticks[0])
	out.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	out.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))

	for j, sum := range phaseSum {
		if sum == 0 {
			continue
		}
		avg := sum / time.Duration(p.sampleCount)
		out.PhaseAvg[Phases[j]] = avg
		if out.AvgTickDuration > 0 {
			out.PhasePct[Phases[j]] = float64(avg) / float64(out.AvgTickDuration) * 100
		}
	}

	if out.AvgTickDuration > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(out.AvgTickDuration)
	}
	return out
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("std_tick_us", s.StdTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    uint64  `csv:"window_end"`
	Particles    int     `csv:"particles"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	StdTickUS    int64   `csv:"std_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	DensityPct   float64 `csv:"density_pct"`
	ForcesPct    float64 `csv:"forces_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	EmitPct      float64 `csv:"emit_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
	StreamPct    float64 `csv:"stream_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd uint64, particles int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Particles:    particles,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		StdTickUS:    s.StdTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		DensityPct:   s.PhasePct[PhaseDensity],
		ForcesPct:    s.PhasePct[PhaseForces],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		EmitPct:      s.PhasePct[PhaseEmit],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
		StreamPct:    s.PhasePct[PhaseStream],
	}
}
