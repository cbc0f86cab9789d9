package main

import (
	"github.com/pthm-cable/sphfluid/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path for display
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
}

// ParamVector holds the tuned parameters in a fixed order.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tuned parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "gas_const", Path: "fluid.gas_const", Min: 5e5, Max: 2e7, Default: 4e6},
			{Name: "viscosity", Path: "fluid.viscosity", Min: 0, Max: 1000, Default: 200},
			{Name: "damping", Path: "boundary.damping", Min: -0.9, Max: -0.1, Default: -0.5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values onto [0, 1] per parameter.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize maps [0, 1] values back to raw values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp bounds every value to its spec.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return out
}

// ApplyToConfig writes clamped values into cfg and refreshes derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	c := pv.Clamp(values)
	cfg.Fluid.GasConst = c[0]
	cfg.Fluid.Viscosity = c[1]
	cfg.Boundary.Damping = c[2]
	return cfg.Recompute()
}

// ExtractFromConfig reads the tuned values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Fluid.GasConst,
		cfg.Fluid.Viscosity,
		cfg.Boundary.Damping,
	}
}
