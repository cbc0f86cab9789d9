// Package main searches fluid constants with CMA-ES for a dam break that
// settles near rest density without faulting.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/sphfluid/config"
)

// evalRecord is one row of calibrate_log.csv.
type evalRecord struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	Faults      int     `csv:"faults"`
	Compression float64 `csv:"compression_err"`
	Speed       float64 `csv:"speed_mean"`
	GasConst    float64 `csv:"gas_const"`
	Viscosity   float64 `csv:"viscosity"`
	Damping     float64 `csv:"damping"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Uint64("max-ticks", 2000, "Simulation length per run in ticks")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *maxTicks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		slog.Error("failed to create log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			ev := evaluator.Last()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = append(bestParams[:0], clamped...)
			}

			rec := []evalRecord{{
				Eval:        evalCount,
				Fitness:     fitness,
				Faults:      ev.Faults,
				Compression: ev.Compression,
				Speed:       ev.Speed,
				GasConst:    clamped[0],
				Viscosity:   clamped[1],
				Damping:     clamped[2],
			}}
			if !headerWritten {
				err = gocsv.Marshal(rec, logFile)
				headerWritten = true
			} else {
				err = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if err != nil {
				slog.Warn("failed to write log row", "error", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("eval",
				"n", evalCount,
				"of", *maxEvals,
				"fitness", fitness,
				"faults", ev.Faults,
				"compression_err", ev.Compression,
				"best", bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	slog.Info("starting calibration",
		"params", dim,
		"population", popSize,
		"max_evals", *maxEvals,
		"seeds", *seeds,
		"max_ticks", *maxTicks,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		slog.Error("no evaluations completed")
		os.Exit(1)
	}

	attrs := []any{"evals", evalCount, "elapsed", formatDuration(time.Since(startTime)), "fitness", bestFitness}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Path, bestParams[i])
	}
	slog.Info("calibration complete", attrs...)

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to reload config", "error", err)
		os.Exit(1)
	}
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		slog.Error("failed to apply best params", "error", err)
		os.Exit(1)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		slog.Error("failed to write best config", "error", err)
		os.Exit(1)
	}
	slog.Info("best config saved", "path", configOutPath)
}
