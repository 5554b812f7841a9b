package main

import (
	"github.com/wildfen/ecosim/config"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Apply   func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all calibratable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of parameters worth tuning:
// the energy economy and the reproduction pacing, which together decide
// whether the ecosystem cycles or collapses.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "base_cost", Min: 0.1, Max: 2.0, Default: 0.5,
				Apply: func(c *config.Config, v float64) { c.Energy.BaseCost = v }},
			{Name: "move_cost", Min: 0.1, Max: 3.0, Default: 1.0,
				Apply: func(c *config.Config, v float64) { c.Energy.MoveCost = v }},
			{Name: "attack_transfer", Min: 0.2, Max: 0.9, Default: 0.6,
				Apply: func(c *config.Config, v float64) { c.Energy.AttackTransfer = v }},
			{Name: "food_regen", Min: 0.5, Max: 10.0, Default: 3.0,
				Apply: func(c *config.Config, v float64) { c.Food.RegenRate = v }},
			{Name: "food_eat_rate", Min: 2.0, Max: 30.0, Default: 12.0,
				Apply: func(c *config.Config, v float64) { c.Food.EatRate = v }},
			{Name: "mutation_rate", Min: 0.01, Max: 0.3, Default: 0.08,
				Apply: func(c *config.Config, v float64) { c.Mutation.Rate = v }},
			{Name: "mutation_strength", Min: 0.01, Max: 0.2, Default: 0.05,
				Apply: func(c *config.Config, v float64) { c.Mutation.Strength = v }},
			{Name: "repro_threshold", Min: 0.5, Max: 0.95, Default: 0.7,
				Apply: func(c *config.Config, v float64) { applyAllTypes(c, func(tc *config.TypeConfig) { tc.ReproThreshold = v }) }},
			{Name: "repro_cooldown", Min: 5.0, Max: 60.0, Default: 20.0,
				Apply: func(c *config.Config, v float64) { applyAllTypes(c, func(tc *config.TypeConfig) { tc.ReproCooldown = v }) }},
		},
	}
}

func applyAllTypes(c *config.Config, fn func(*config.TypeConfig)) {
	for i := range c.Derived.ByType {
		fn(&c.Derived.ByType[i])
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

// Normalize converts raw parameter values to [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize converts [0,1] values back to raw, clamped to bounds.
func (pv *ParamVector) Denormalize(norm []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v := spec.Min + norm[i]*(spec.Max-spec.Min)
		if v < spec.Min {
			v = spec.Min
		}
		if v > spec.Max {
			v = spec.Max
		}
		out[i] = v
	}
	return out
}

// ApplyToConfig writes a raw parameter vector into a config.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) {
	for i, spec := range pv.Specs {
		spec.Apply(cfg, raw[i])
	}
}
