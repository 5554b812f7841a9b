// Package genome implements the heritable trait representation: a haploid
// trait vector with a neural weight vector, and an optional richer diploid
// variant with dominance and epigenetic marks.
package genome

import "github.com/wildfen/ecosim/traits"

// TraitID indexes a named trait scalar in the genome.
type TraitID uint8

const (
	TraitSize TraitID = iota
	TraitSpeed
	TraitVisionRange
	TraitEfficiency
	TraitAttackRange
	TraitColorR
	TraitColorG
	TraitColorB
	TraitVisionFOV
	TraitVisionAcuity
	TraitHearing
	TraitSmell
	TraitTouch
	TraitWingSpan
	TraitFinSize
	TraitPreferredHeight

	NumTraits
)

// Category groups traits for mutation volatility: different trait
// categories mutate at different rates (color drifts faster than core
// physical traits).
type Category uint8

const (
	CatPhysical Category = iota
	CatColor
	CatSensory
	CatLocomotion
)

// CrossoverKind selects the inheritance strategy for one trait.
type CrossoverKind uint8

const (
	// CrossDiscrete picks one parent's value 50/50.
	CrossDiscrete CrossoverKind = iota
	// CrossBlend interpolates strictly between the parents.
	CrossBlend
)

// TraitDef declares one trait's name, valid range, category, and
// crossover strategy. Every genome operation clamps results to [Min, Max].
type TraitDef struct {
	Name  string
	Min   float32
	Max   float32
	Cat   Category
	Cross CrossoverKind
}

// Defs is the closed trait table. Indexed by TraitID.
var Defs = [NumTraits]TraitDef{
	TraitSize:            {"size", 0.5, 3.0, CatPhysical, CrossDiscrete},
	TraitSpeed:           {"speed", 1.0, 20.0, CatPhysical, CrossDiscrete},
	TraitVisionRange:     {"vision_range", 10.0, 120.0, CatSensory, CrossDiscrete},
	TraitEfficiency:      {"efficiency", 0.5, 1.5, CatPhysical, CrossBlend},
	TraitAttackRange:     {"attack_range", 1.0, 10.0, CatPhysical, CrossDiscrete},
	TraitColorR:          {"color_r", 0.0, 1.0, CatColor, CrossBlend},
	TraitColorG:          {"color_g", 0.0, 1.0, CatColor, CrossBlend},
	TraitColorB:          {"color_b", 0.0, 1.0, CatColor, CrossBlend},
	TraitVisionFOV:       {"vision_fov", 1.5, 5.5, CatSensory, CrossDiscrete},
	TraitVisionAcuity:    {"vision_acuity", 0.0, 1.0, CatSensory, CrossBlend},
	TraitHearing:         {"hearing", 0.0, 1.0, CatSensory, CrossBlend},
	TraitSmell:           {"smell", 0.0, 1.0, CatSensory, CrossBlend},
	TraitTouch:           {"touch", 0.0, 1.0, CatSensory, CrossBlend},
	TraitWingSpan:        {"wing_span", 0.2, 2.0, CatLocomotion, CrossDiscrete},
	TraitFinSize:         {"fin_size", 0.2, 2.0, CatLocomotion, CrossDiscrete},
	TraitPreferredHeight: {"preferred_height", 2.0, 60.0, CatLocomotion, CrossBlend},
}

// categoryVolatility scales mutation strength per trait category. Fixed
// constants, not config: color traits mutate fastest, core physical
// traits slowest.
var categoryVolatility = [4]float32{
	CatPhysical:   1.0,
	CatColor:      2.0,
	CatSensory:    1.2,
	CatLocomotion: 1.1,
}

// Weight vector bounds. Individual network weights are clamped here by
// mutation, like any other trait range.
const (
	WeightMin = -4.0
	WeightMax = 4.0
)

// rangeOverride narrows a trait's randomization band for one type.
type rangeOverride struct {
	Trait    TraitID
	Min, Max float32
}

// typeOverrides gives type-distinguishing traits narrower draw bands at
// randomization time. Mutation still clamps against the full Defs range.
var typeOverrides = [traits.NumTypes][]rangeOverride{
	traits.Flying: {
		{TraitSpeed, 6.0, 14.0},
		{TraitVisionRange, 40.0, 100.0},
		{TraitWingSpan, 1.0, 2.0},
		{TraitPreferredHeight, 10.0, 60.0},
	},
	traits.Aquatic: {
		{TraitFinSize, 1.0, 2.0},
		{TraitPreferredHeight, 5.0, 40.0},
	},
	traits.ApexPredator: {
		{TraitSize, 1.5, 3.0},
		{TraitAttackRange, 4.0, 10.0},
		{TraitSpeed, 8.0, 20.0},
	},
	traits.SmallPredator: {
		{TraitAttackRange, 2.0, 6.0},
		{TraitSpeed, 6.0, 18.0},
	},
	traits.Parasite: {
		{TraitSize, 0.5, 0.9},
		{TraitSpeed, 2.0, 8.0},
	},
	traits.Grazer: {
		{TraitSpeed, 3.0, 12.0},
	},
}

// drawRange returns the randomization band for a trait given the creature
// type, falling back to the full declared range.
func drawRange(t traits.CreatureType, id TraitID) (min, max float32) {
	def := Defs[id]
	min, max = def.Min, def.Max
	if t < traits.NumTypes {
		for _, ov := range typeOverrides[t] {
			if ov.Trait == id {
				return ov.Min, ov.Max
			}
		}
	}
	return min, max
}
