package systems

import (
	"testing"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/traits"
)

func testContext(t *testing.T) *BehaviorContext {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return &BehaviorContext{
		Cfg:         cfg,
		Terrain:     flatTerrain{height: 10},
		Tick:        100,
		DT:          cfg.Derived.DT32,
		WaterLevel:  cfg.Derived.WaterLevel32,
		WorldHeight: cfg.Derived.WorldH32,
	}
}

func behaviorState(ct traits.CreatureType) *CreatureState {
	st := &CreatureState{
		Type:      ct,
		Pos:       components.Vec3{X: 500, Y: 10, Z: 500},
		Energy:    40,
		MaxEnergy: 100,
	}
	st.Traits[genome.TraitSpeed] = 8
	st.Traits[genome.TraitVisionRange] = 40
	st.Traits[genome.TraitSize] = 1.5
	st.Traits[genome.TraitPreferredHeight] = 20
	return st
}

func TestSafetyOverrideDominates(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	// A flyer below ground clearance must be pushed straight up, no
	// matter what else is going on around it.
	st := behaviorState(traits.Flying)
	st.Pos.Y = 10.5
	prey := Neighbor{Pos: components.Vec3{X: 510, Y: 10, Z: 500}, Type: traits.Aquatic, DistSq: 100}
	s := &Sense{Prey: &prey}
	out[neural.OutEat] = 1

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.Y <= 0 || force.X != 0 || force.Z != 0 {
		t.Errorf("override force %+v, want pure upward push", force)
	}

	// A swimmer at the surface is pushed back down. Sea floor sits well
	// below the water level here.
	seaCtx := *ctx
	seaCtx.Terrain = flatTerrain{height: 2, water: true}
	st = behaviorState(traits.Aquatic)
	st.Pos.Y = seaCtx.WaterLevel
	force = SteerCreature(st, &Sense{}, nil, &out, &seaCtx)
	if force.Y >= 0 {
		t.Errorf("surfaced swimmer force %+v, want downward push", force)
	}
}

func TestHerbivoreFleesCloseThreat(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.Grazer)
	st.Vel = components.Vec3{}
	threat := Neighbor{
		Pos:    components.Vec3{X: 510, Y: 10, Z: 500},
		Vel:    components.Vec3{X: -5},
		Type:   traits.SmallPredator,
		DistSq: 100,
	}
	food := FoodTarget{Pos: components.Vec3{X: 510, Y: 10, Z: 500}}
	s := &Sense{Threat: &threat, Food: food, HasFood: true}

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.X >= 0 {
		t.Errorf("force X = %g, want negative (away from threat, despite food)", force.X)
	}
}

func TestHerbivoreSeeksFoodWhenHungry(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.Grazer)
	food := FoodTarget{Pos: components.Vec3{X: 520, Y: 10, Z: 500}}
	s := &Sense{Food: food, HasFood: true}

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.X <= 0 {
		t.Errorf("hungry grazer force X = %g, want positive toward food", force.X)
	}
}

func TestPredatorPursuesPrey(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.ApexPredator)
	prey := Neighbor{
		Pos:    components.Vec3{X: 520, Y: 10, Z: 500},
		Type:   traits.Grazer,
		DistSq: 400,
	}
	s := &Sense{Prey: &prey}

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.X <= 0 {
		t.Errorf("predator force X = %g, want positive toward prey", force.X)
	}
}

func TestOmnivoreSwitchesDiet(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	prey := Neighbor{
		Pos:    components.Vec3{X: 520, Y: 10, Z: 500},
		Type:   traits.Frugivore,
		DistSq: 400,
	}
	food := FoodTarget{Pos: components.Vec3{X: 480, Y: 10, Z: 500}}
	s := &Sense{Prey: &prey, Food: food, HasFood: true}

	// Hungry: hunts the frugivore in +X.
	st := behaviorState(traits.Omnivore)
	st.Energy = 10
	hunt := SteerCreature(st, s, nil, &out, ctx)
	if hunt.X <= 0 {
		t.Errorf("hungry omnivore force X = %g, want positive toward prey", hunt.X)
	}

	// Sated enough to ignore prey but still below the food threshold is
	// impossible here, so push energy above the hunt gate and verify the
	// prey no longer dominates.
	st.Energy = 90
	graze := SteerCreature(st, s, nil, &out, ctx)
	if graze.X >= hunt.X {
		t.Errorf("sated omnivore still hunting: force X %g vs %g", graze.X, hunt.X)
	}
}

func TestScavengerHeadsForCarcass(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.Scavenger)
	s := &Sense{
		Carcass:    CarcassInfo{Pos: components.Vec3{X: 520, Y: 10, Z: 500}, Biomass: 30},
		HasCarcass: true,
	}

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.X <= 0 {
		t.Errorf("scavenger force X = %g, want positive toward carcass", force.X)
	}
}

func TestParasitePursuesHost(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.Parasite)
	host := Neighbor{
		Pos:    components.Vec3{X: 520, Y: 10, Z: 500},
		Type:   traits.Browser,
		DistSq: 400,
	}
	s := &Sense{Host: &host}

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.X <= 0 {
		t.Errorf("parasite force X = %g, want positive toward host", force.X)
	}
}

func TestCleanerPrefersParasiteOverCarcass(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.Cleaner)
	goal := Neighbor{
		Pos:    components.Vec3{X: 520, Y: 10, Z: 500},
		Type:   traits.Parasite,
		DistSq: 400,
	}
	s := &Sense{
		CleanGoal:  &goal,
		Carcass:    CarcassInfo{Pos: components.Vec3{X: 480, Y: 10, Z: 500}, Biomass: 30},
		HasCarcass: true,
	}

	force := SteerCreature(st, s, nil, &out, ctx)
	if force.X <= 0 {
		t.Errorf("cleaner force X = %g, want positive toward the parasite", force.X)
	}
}

func TestEdgeAvoidPushesInward(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	st := behaviorState(traits.Grazer)
	st.Pos = components.Vec3{X: 2, Y: 10, Z: 2}

	force := SteerCreature(st, &Sense{}, nil, &out, ctx)
	if force.X <= 0 || force.Z <= 0 {
		t.Errorf("force %+v at the world corner, want inward push", force)
	}
}

func TestSteerForceLimited(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32
	for i := range out {
		out[i] = 1
	}

	st := behaviorState(traits.Grazer)
	threat := Neighbor{
		Pos:    components.Vec3{X: 501, Y: 10, Z: 500},
		Vel:    components.Vec3{X: -8},
		Type:   traits.ApexPredator,
		DistSq: 1,
	}
	s := &Sense{Threat: &threat}

	force := SteerCreature(st, s, nil, &out, ctx)
	maxForce := st.Traits[genome.TraitSpeed] * forcePerSpeed
	if force.Length() > maxForce*1.001 {
		t.Errorf("force magnitude %g exceeds budget %g", force.Length(), maxForce)
	}
}

func TestIdleWanderDriftsOverTime(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	// An idle grazer far from any edge steers purely by wander, which is
	// a function of (phase, tick) and must change as the clock advances.
	st := behaviorState(traits.Grazer)
	early := SteerCreature(st, &Sense{}, nil, &out, ctx)

	late := *ctx
	late.Tick = 50000
	later := SteerCreature(st, &Sense{}, nil, &out, &late)

	if early == later {
		t.Errorf("wander force %+v identical at ticks %d and %d", early, ctx.Tick, late.Tick)
	}
}

func TestVerticalPreferencePullsTowardBand(t *testing.T) {
	ctx := testContext(t)
	var out [neural.NumOutputs]float32

	// Flyer far above its preferred altitude is pulled down.
	st := behaviorState(traits.Flying)
	st.Traits[genome.TraitPreferredHeight] = 15
	st.Pos.Y = 100
	f := verticalPreference(st, ctx, &out, 24)
	if f.Y >= 0 {
		t.Errorf("high flyer vertical force %g, want negative", f.Y)
	}

	// Flyer below its band is pulled up.
	st.Pos.Y = 13
	f = verticalPreference(st, ctx, &out, 24)
	if f.Y <= 0 {
		t.Errorf("low flyer vertical force %g, want positive", f.Y)
	}
}
