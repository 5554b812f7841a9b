package systems

import (
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/genome"
)

// MetabolicCost returns the energy drained from a creature over dt
// seconds: a base rate scaled by body size plus a movement term scaled by
// the square of the speed fraction, divided by metabolic efficiency.
func MetabolicCost(traitVals *[genome.NumTraits]float32, speed float32, ec *config.EnergyConfig, dt float32) float32 {
	size := traitVals[genome.TraitSize]
	maxSpeed := maxF(traitVals[genome.TraitSpeed], 0.001)
	eff := maxF(traitVals[genome.TraitEfficiency], 0.001)

	frac := speed / maxSpeed
	cost := float32(ec.BaseCost)*size + float32(ec.MoveCost)*frac*frac
	return cost / eff * dt
}

// AttackGain returns the energy a predator receives from a kill: a
// configured fraction of the victim's remaining energy.
func AttackGain(victimEnergy float32, ec *config.EnergyConfig) float32 {
	if victimEnergy <= 0 {
		return 0
	}
	return victimEnergy * float32(ec.AttackTransfer)
}

// CarcassBiomass returns the biomass a dead creature leaves behind, a
// fraction of its peak energy capacity so starved creatures still feed
// the scavenger loop.
func CarcassBiomass(maxEnergy float32, ec *config.EnergyConfig) float32 {
	return maxEnergy * float32(ec.CarcassFraction)
}
