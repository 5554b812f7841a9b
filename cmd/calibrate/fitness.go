package main

import (
	"math/rand"
	"sync"

	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/food"
	"github.com/wildfen/ecosim/sim"
	"github.com/wildfen/ecosim/terrain"
)

// minViablePop is the total population below which the ecosystem counts
// as functionally collapsed.
const minViablePop = 20

// FitnessEvaluator runs headless simulations and computes fitness.
// Lower is better: negative survival time plus a health bonus.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	seeds      []int64
	configPath string
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, configPath string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		configPath: configPath,
	}
}

// Evaluate computes fitness for a raw parameter vector, averaging over
// all seeds. Seeds run in parallel; each gets its own config and world.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	results := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSeed(raw, s)
		}(i, seed)
	}
	wg.Wait()

	sum := 0.0
	for _, r := range results {
		sum += r
	}
	return sum / float64(len(results))
}

// runSeed runs one simulation and scores it. Survival dominates; the
// mean health score over the run breaks ties between surviving configs.
func (fe *FitnessEvaluator) runSeed(raw []float64, seed int64) float64 {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return 0
	}
	fe.params.ApplyToConfig(cfg, raw)

	tm := terrain.New(seed, cfg)
	ff := food.New(cfg, tm, rand.New(rand.NewSource(seed)))

	s := sim.New(sim.Options{
		Config:  cfg,
		Terrain: tm,
		Food:    ff,
		Seed:    uint64(seed),
	})
	defer s.Close()
	s.SpawnInitialPopulation()

	collector := s.Collector()
	healthSum := 0.0
	windows := 0
	survived := fe.maxTicks

	for s.Tick() < fe.maxTicks {
		s.Step()

		if collector.ShouldFlush(s.Tick()) {
			stats := collector.Flush(s.Tick())
			healthSum += stats.Health
			windows++
		}

		if s.Alive() < minViablePop {
			survived = s.Tick()
			break
		}
	}

	meanHealth := 0.0
	if windows > 0 {
		meanHealth = healthSum / float64(windows)
	}

	// Negative: the optimizer minimizes.
	return -(float64(survived) + meanHealth*float64(fe.maxTicks)*0.2)
}
