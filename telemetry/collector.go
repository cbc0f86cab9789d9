package telemetry

import "github.com/pthm-cable/sphfluid/fluid"

// Collector accumulates per-tick events within windows and produces WindowStats.
type Collector struct {
	windowTicks uint64
	dt          float64
	mass        float64
	restDensity float64

	// Current window tracking
	windowStartTick uint64
	emitted         int
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int, cfg fluid.Config) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: uint64(windowTicks),
		dt:          float64(cfg.DT),
		mass:        float64(cfg.Mass),
		restDensity: float64(cfg.RestDensity),
	}
}

// Reset starts a new window at tick, discarding counters.
func (c *Collector) Reset(tick uint64) {
	c.windowStartTick = tick
	c.emitted = 0
}

// RecordEmitted records particles appended by the emitter.
func (c *Collector) RecordEmitted(n int) {
	c.emitted += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats from the particles at currentTick and resets
// counters for the next window.
func (c *Collector) Flush(currentTick uint64, ps []fluid.Particle) WindowStats {
	p := ComputeParticleStats(ps, c.mass, c.restDensity)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Particles: p.Particles,
		Dynamic:   p.Dynamic,
		Emitted:   c.emitted,

		DensityMean: p.DensityMean,
		DensityStd:  p.DensityStd,
		DensityMin:  p.DensityMin,
		DensityP50:  p.DensityP50,
		DensityP95:  p.DensityP95,
		DensityMax:  p.DensityMax,
		Compression: p.Compression,

		PressureMean: p.PressureMean,
		PressureMin:  p.PressureMin,
		PressureMax:  p.PressureMax,

		SpeedMean:     p.SpeedMean,
		SpeedMax:      p.SpeedMax,
		KineticEnergy: p.KineticEnergy,
		CentroidX:     p.CentroidX,
		CentroidY:     p.CentroidY,
	}

	c.Reset(currentTick)
	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() uint64 {
	return c.windowTicks
}
