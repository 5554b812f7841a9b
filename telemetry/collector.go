// Package telemetry accumulates simulation events into windowed
// statistics, scores ecosystem health, and writes experiment output.
package telemetry

import (
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/traits"
)

// DeathCause classifies a death event.
type DeathCause uint8

const (
	CauseStarved DeathCause = iota
	CauseOldAge
	CausePredation
	CauseCommand

	numCauses
)

// TickSample is the per-tick state fed to the collector by the
// simulation.
type TickSample struct {
	Tick         int64
	Populations  [traits.NumTypes]int
	MeanEnergy   float32
	SizeVariance float64
	SpeciesCount int
}

// Collector accumulates events within time windows and produces
// WindowStats.
type Collector struct {
	cfg *config.Config

	windowTicks     int64
	windowStartTick int64

	births           [traits.NumTypes]int
	deaths           [traits.NumTypes][numCauses]int
	kills            [traits.NumTypes]int
	reproRefusals    [traits.NumTypes]int
	stabilizerSpawns [traits.NumTypes]int
	gridDrops        int

	last TickSample

	// popHistory backs the rolling variance of total population, sampled
	// once per tick and bounded by the configured window.
	popHistory []float64
}

// NewCollector creates a collector using the configured metrics windows.
func NewCollector(cfg *config.Config) *Collector {
	windowTicks := int64(cfg.Telemetry.StatsWindowTicks)
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		cfg:         cfg,
		windowTicks: windowTicks,
		popHistory:  make([]float64, 0, cfg.Metrics.VarianceWindow),
	}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(t traits.CreatureType) {
	c.births[t]++
}

// RecordDeath records a death event with its cause.
func (c *Collector) RecordDeath(t traits.CreatureType, cause DeathCause) {
	c.deaths[t][cause]++
}

// RecordKill records a successful predation by the attacker's type.
func (c *Collector) RecordKill(t traits.CreatureType) {
	c.kills[t]++
}

// RecordReproRefusal records a reproduction attempt refused by the
// population cap.
func (c *Collector) RecordReproRefusal(t traits.CreatureType) {
	c.reproRefusals[t]++
}

// RecordStabilizerSpawns records compensatory spawns for a type.
func (c *Collector) RecordStabilizerSpawns(t traits.CreatureType, n int) {
	c.stabilizerSpawns[t] += n
}

// RecordGridDrops records spatial-index inserts discarded by full cells.
func (c *Collector) RecordGridDrops(n int) {
	c.gridDrops += n
}

// Sample records one tick's population state.
func (c *Collector) Sample(s TickSample) {
	c.last = s

	total := 0
	for _, n := range s.Populations {
		total += n
	}
	if len(c.popHistory) >= c.cfg.Metrics.VarianceWindow && len(c.popHistory) > 0 {
		copy(c.popHistory, c.popHistory[1:])
		c.popHistory = c.popHistory[:len(c.popHistory)-1]
	}
	c.popHistory = append(c.popHistory, float64(total))
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64) WindowStats {
	dt := c.cfg.Derived.DT32

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(dt),
		SpeciesCount:    c.last.SpeciesCount,
		MeanEnergy:      float64(c.last.MeanEnergy),
		SizeVariance:    c.last.SizeVariance,
		GridDrops:       c.gridDrops,
	}

	for t := traits.CreatureType(0); t < traits.NumTypes; t++ {
		n := c.last.Populations[t]
		stats.TotalPopulation += n
		if traits.IsPredator(t) {
			stats.Predators += n
		} else if traits.EatsFood(t) {
			stats.Prey += n
		}

		stats.Births += c.births[t]
		for cause := DeathCause(0); cause < numCauses; cause++ {
			stats.Deaths += c.deaths[t][cause]
		}
		stats.Starvations += c.deaths[t][CauseStarved]
		stats.Predations += c.deaths[t][CausePredation]
		stats.Kills += c.kills[t]
		stats.ReproRefusals += c.reproRefusals[t]
		stats.StabilizerSpawns += c.stabilizerSpawns[t]
	}

	stats.Health = c.healthScore(&stats)

	c.windowStartTick = currentTick
	c.births = [traits.NumTypes]int{}
	c.deaths = [traits.NumTypes][numCauses]int{}
	c.kills = [traits.NumTypes]int{}
	c.reproRefusals = [traits.NumTypes]int{}
	c.stabilizerSpawns = [traits.NumTypes]int{}
	c.gridDrops = 0

	return stats
}

// Populations returns the most recent per-type counts.
func (c *Collector) Populations() [traits.NumTypes]int {
	return c.last.Populations
}
