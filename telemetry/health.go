package telemetry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Health score weights. The three terms measure different failure modes:
// a skewed trophic pyramid, a collapsed gene pool, and boom-bust cycling.
const (
	weightRatio     = 0.4
	weightDiversity = 0.3
	weightStability = 0.3
)

// healthScore combines the predator:prey ratio deviation, species
// diversity, and population stability into one bounded [0,1] score.
func (c *Collector) healthScore(s *WindowStats) float64 {
	m := &c.cfg.Metrics

	// Ratio term: 1 at the ideal predator:prey ratio, falling linearly
	// to 0 at twice the deviation.
	ratioTerm := 0.0
	if s.Prey > 0 {
		ratio := float64(s.Predators) / float64(s.Prey)
		dev := math.Abs(ratio-m.IdealPredatorRatio) / math.Max(m.IdealPredatorRatio, 1e-9)
		ratioTerm = math.Max(0, 1-dev/2)
	}

	// Diversity term: species count against the configured target.
	diversityTerm := 0.0
	if m.DiversityTarget > 0 {
		diversityTerm = math.Min(1, float64(s.SpeciesCount)/float64(m.DiversityTarget))
	}

	// Stability term: coefficient of variation of total population over
	// the rolling window. A steady population scores 1.
	stabilityTerm := 1.0
	if len(c.popHistory) >= 2 {
		mean, variance := stat.MeanVariance(c.popHistory, nil)
		if mean > 0 {
			cv := math.Sqrt(variance) / mean
			stabilityTerm = math.Max(0, 1-cv)
		} else {
			stabilityTerm = 0
		}
	}

	h := weightRatio*ratioTerm + weightDiversity*diversityTerm + weightStability*stabilityTerm
	return math.Min(1, math.Max(0, h))
}
