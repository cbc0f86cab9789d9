package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sphfluid/fluid"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Counts at window end
	Particles int `csv:"particles"`
	Dynamic   int `csv:"dynamic"`

	// Events during window
	Emitted int `csv:"emitted"`

	// Density distribution over dynamic particles
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityMin  float64 `csv:"density_min"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP95  float64 `csv:"density_p95"`
	DensityMax  float64 `csv:"density_max"`
	Compression float64 `csv:"compression"` // max density / rest density

	// Pressure
	PressureMean float64 `csv:"pressure_mean"`
	PressureMin  float64 `csv:"pressure_min"`
	PressureMax  float64 `csv:"pressure_max"`

	// Motion
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedMax      float64 `csv:"speed_max"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	CentroidX     float64 `csv:"centroid_x"`
	CentroidY     float64 `csv:"centroid_y"`
}

// ParticleStats holds the per-snapshot part of WindowStats.
type ParticleStats struct {
	Particles int
	Dynamic   int

	DensityMean, DensityStd                float64
	DensityMin, DensityP50, DensityP95     float64
	DensityMax, Compression                float64
	PressureMean, PressureMin, PressureMax float64
	SpeedMean, SpeedMax, KineticEnergy     float64
	CentroidX, CentroidY                   float64
}

// Percentile returns the p-th quantile of a sorted slice, interpolating
// linearly on the empirical CDF. p is clamped to [0, 1]. Returns 0 if the
// slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(math.Min(math.Max(p, 0), 1), stat.LinInterp, sorted, nil)
}

// ComputeParticleStats summarizes the dynamic particles in ps. Static wall
// particles only count towards Particles.
func ComputeParticleStats(ps []fluid.Particle, mass, restDensity float64) ParticleStats {
	out := ParticleStats{Particles: len(ps)}

	var density, pressure, speed, xs, ys []float64
	for i := range ps {
		p := &ps[i]
		if !p.IsDynamic() {
			continue
		}
		density = append(density, float64(p.Density))
		pressure = append(pressure, float64(p.Pressure))
		speed = append(speed, float64(p.Velocity.Len()))
		xs = append(xs, float64(p.Position.X))
		ys = append(ys, float64(p.Position.Y))
	}
	out.Dynamic = len(density)
	if out.Dynamic == 0 {
		return out
	}

	out.DensityMean, out.DensityStd = stat.MeanStdDev(density, nil)
	if out.Dynamic < 2 {
		out.DensityStd = 0
	}
	sort.Float64s(density)
	out.DensityMin = density[0]
	out.DensityMax = density[len(density)-1]
	out.DensityP50 = Percentile(density, 0.50)
	out.DensityP95 = Percentile(density, 0.95)
	if restDensity > 0 {
		out.Compression = out.DensityMax / restDensity
	}

	out.PressureMean = stat.Mean(pressure, nil)
	out.PressureMin = floats.Min(pressure)
	out.PressureMax = floats.Max(pressure)

	out.SpeedMean = stat.Mean(speed, nil)
	out.SpeedMax = floats.Max(speed)
	out.KineticEnergy = 0.5 * mass * floats.Dot(speed, speed)

	out.CentroidX = stat.Mean(xs, nil)
	out.CentroidY = stat.Mean(ys, nil)
	return out
}

// Finite reports whether every float field is finite.
func (s ParticleStats) Finite() bool {
	for _, v := range []float64{
		s.DensityMean, s.DensityStd, s.DensityMax, s.PressureMean,
		s.PressureMin, s.PressureMax, s.SpeedMax, s.KineticEnergy,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("dynamic", s.Dynamic),
		slog.Int("emitted", s.Emitted),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("compression", s.Compression),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("kinetic_energy", s.KineticEnergy),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"dynamic", s.Dynamic,
		"emitted", s.Emitted,
		"density_mean", s.DensityMean,
		"density_p95", s.DensityP95,
		"compression", s.Compression,
		"pressure_mean", s.PressureMean,
		"speed_mean", s.SpeedMean,
		"speed_max", s.SpeedMax,
		"kinetic_energy", s.KineticEnergy,
		"centroid_y", s.CentroidY,
	)
}
