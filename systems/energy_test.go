package systems

import (
	"testing"

	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/genome"
)

func energyConfig() *config.EnergyConfig {
	return &config.EnergyConfig{
		BaseCost:        1.0,
		MoveCost:        2.0,
		AttackTransfer:  0.5,
		CarcassFraction: 0.6,
	}
}

func energyTraits(size, speed, eff float32) *[genome.NumTraits]float32 {
	var tv [genome.NumTraits]float32
	tv[genome.TraitSize] = size
	tv[genome.TraitSpeed] = speed
	tv[genome.TraitEfficiency] = eff
	return &tv
}

func TestMetabolicCostAtRest(t *testing.T) {
	ec := energyConfig()
	cost := MetabolicCost(energyTraits(2, 10, 1), 0, ec, 1)
	if cost != 2 {
		t.Errorf("resting cost = %g, want base*size = 2", cost)
	}
}

func TestMetabolicCostQuadraticInSpeed(t *testing.T) {
	ec := energyConfig()
	tv := energyTraits(1, 10, 1)

	half := MetabolicCost(tv, 5, ec, 1)
	full := MetabolicCost(tv, 10, ec, 1)

	// Subtract the shared base term to isolate the movement term.
	if moveHalf, moveFull := half-1, full-1; moveFull != 4*moveHalf {
		t.Errorf("move cost %g at full speed, want 4x the half-speed %g", moveFull, moveHalf)
	}
}

func TestMetabolicCostEfficiencyDiscount(t *testing.T) {
	ec := energyConfig()

	lean := MetabolicCost(energyTraits(1, 10, 1.5), 5, ec, 1)
	base := MetabolicCost(energyTraits(1, 10, 1.0), 5, ec, 1)
	if lean >= base {
		t.Errorf("efficient cost %g not below baseline %g", lean, base)
	}
}

func TestMetabolicCostScalesWithDT(t *testing.T) {
	ec := energyConfig()
	tv := energyTraits(1, 10, 1)

	one := MetabolicCost(tv, 5, ec, 1)
	tick := MetabolicCost(tv, 5, ec, 0.5)
	if tick != one*0.5 {
		t.Errorf("half-dt cost %g, want %g", tick, one*0.5)
	}
}

func TestAttackGain(t *testing.T) {
	ec := energyConfig()
	if got := AttackGain(80, ec); got != 40 {
		t.Errorf("gain = %g, want 40", got)
	}
	if got := AttackGain(0, ec); got != 0 {
		t.Errorf("gain from empty victim = %g, want 0", got)
	}
	if got := AttackGain(-5, ec); got != 0 {
		t.Errorf("gain from negative energy = %g, want 0", got)
	}
}

func TestCarcassBiomass(t *testing.T) {
	ec := energyConfig()
	got := CarcassBiomass(100, ec)
	if got < 59.999 || got > 60.001 {
		t.Errorf("biomass = %g, want 60", got)
	}
}
