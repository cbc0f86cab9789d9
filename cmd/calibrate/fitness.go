package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/sim"
	"github.com/pthm-cable/sphfluid/telemetry"
)

// Fitness terms.
const (
	faultPenalty = 1000.0 // base cost of a run that faulted
	speedWeight  = 0.25   // weight of residual motion against compression error
)

// runResult holds the outcome of one seed.
type runResult struct {
	faulted   bool
	faultTick uint64
	windows   []telemetry.WindowStats
}

// Evaluation is the aggregated outcome of one parameter vector.
type Evaluation struct {
	Fitness     float64
	Faults      int
	Compression float64 // mean late |peak/rho0 - 1| over healthy seeds
	Speed       float64 // mean late speed over healthy seeds
}

// FitnessEvaluator runs headless simulations and scores them.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    uint64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int
	refSpeed    float64

	mu   sync.Mutex
	last Evaluation
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks uint64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	window := int(maxTicks / 20)
	if window < 1 {
		window = 1
	}
	// Free-fall speed over the domain height, used to scale residual motion.
	g := math.Hypot(baseCfg.Fluid.GravityX, baseCfg.Fluid.GravityY)
	ref := math.Sqrt(2 * g * float64(baseCfg.Derived.DomainH32))
	if ref == 0 {
		ref = 1
	}
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: window,
		refSpeed:    ref,
	}
}

// Last returns the aggregate of the most recent Evaluate call.
func (fe *FitnessEvaluator) Last() Evaluation {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	ev := fe.aggregate(results)
	fe.mu.Lock()
	fe.last = ev
	fe.mu.Unlock()
	return ev.Fitness
}

func (fe *FitnessEvaluator) aggregate(results []runResult) Evaluation {
	var ev Evaluation
	var fitness, comp, speed []float64
	for _, r := range results {
		fitness = append(fitness, score(r, fe.maxTicks, fe.refSpeed))
		if r.faulted {
			ev.Faults++
			continue
		}
		if len(r.windows) == 0 {
			continue
		}
		c, s := lateMeans(r.windows)
		comp = append(comp, c)
		speed = append(speed, s)
	}
	ev.Fitness = stat.Mean(fitness, nil)
	if len(comp) > 0 {
		ev.Compression = stat.Mean(comp, nil)
		ev.Speed = stat.Mean(speed, nil)
	}
	return ev
}

// runSimulation executes a single headless run until a fault or maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runResult {
	cfg := fe.copyConfig()
	var result runResult
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		result.faulted = true
		return result
	}

	s, err := sim.New(sim.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StatsWindow:    fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windows = append(result.windows, stats)
		},
	})
	if err != nil {
		result.faulted = true
		return result
	}
	defer s.Close()

	for s.Tick() < fe.maxTicks {
		if err := s.Step(); err != nil {
			result.faulted = true
			result.faultTick = s.Tick()
			return result
		}
	}
	return result
}

// copyConfig returns a copy of the base config safe to modify. Seeds run
// concurrently, so each run uses a single solver worker.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Emitter.Sources = append([]config.SourceConfig(nil), fe.baseConfig.Emitter.Sources...)
	cfg.Solver.Workers = 1
	return &cfg
}

// score maps one run to a cost. Faulted runs always cost more than healthy
// ones; among them, later faults cost less.
func score(r runResult, maxTicks uint64, refSpeed float64) float64 {
	if r.faulted {
		survived := 0.0
		if maxTicks > 0 {
			survived = float64(r.faultTick) / float64(maxTicks)
		}
		return faultPenalty * (2 - survived)
	}
	if len(r.windows) == 0 {
		return faultPenalty
	}
	comp, speed := lateMeans(r.windows)
	if refSpeed <= 0 {
		refSpeed = 1
	}
	cost := comp + speedWeight*speed/refSpeed
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return faultPenalty
	}
	return cost
}

// lateMeans averages the compression error and mean speed over the second
// half of the windows, after the block has had time to settle.
func lateMeans(windows []telemetry.WindowStats) (compression, speed float64) {
	if len(windows) == 0 {
		return 0, 0
	}
	late := windows[len(windows)/2:]
	comp := make([]float64, len(late))
	spd := make([]float64, len(late))
	for i, w := range late {
		comp[i] = math.Abs(w.Compression - 1)
		spd[i] = w.SpeedMean
	}
	return stat.Mean(comp, nil), stat.Mean(spd, nil)
}
