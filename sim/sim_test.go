package sim

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/systems"
	"github.com/wildfen/ecosim/traits"
)

// flatTerrain is dry land at a constant height, keeping movement tests
// independent of noise generation.
type flatTerrain struct{}

func (flatTerrain) HeightAt(x, z float32) float32 { return 10 }
func (flatTerrain) IsWater(x, z float32) bool     { return false }

// testConfig loads the embedded defaults and shrinks the population to a
// small deterministic core: grazers and small predators only, stabilizer
// off.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	for ct := traits.CreatureType(0); ct < traits.NumTypes; ct++ {
		tc := &cfg.Derived.ByType[ct]
		tc.Initial = 0
		tc.Min = 0
	}
	cfg.Derived.ByType[traits.Grazer].Initial = 12
	cfg.Derived.ByType[traits.SmallPredator].Initial = 4
	return cfg
}

func newTestSim(t *testing.T, seed uint64) *Simulation {
	t.Helper()
	s := New(Options{
		Config:  testConfig(t),
		Terrain: flatTerrain{},
		Seed:    seed,
	})
	t.Cleanup(s.Close)
	return s
}

// eachCreature applies fn to every live creature's component.
func eachCreature(s *Simulation, fn func(cr *components.Creature)) {
	query := s.creatureFilter.Query()
	for query.Next() {
		_, _, cr, _, _ := query.Get()
		fn(cr)
	}
}

func TestDeterministicUnderSeed(t *testing.T) {
	a := newTestSim(t, 99)
	b := newTestSim(t, 99)

	a.SpawnInitialPopulation()
	b.SpawnInitialPopulation()
	for i := 0; i < 40; i++ {
		a.Step()
		b.Step()
	}

	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatal("same-seed runs diverged after 40 ticks")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := newTestSim(t, 1)
	b := newTestSim(t, 2)

	a.SpawnInitialPopulation()
	b.SpawnInitialPopulation()
	a.Step()
	b.Step()

	if reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatal("different seeds produced identical state")
	}
}

func TestReproCheckGates(t *testing.T) {
	s := newTestSim(t, 1)
	grazer := s.cfg.Type(traits.Grazer)

	ready := components.Creature{
		Type:      traits.Grazer,
		Age:       float32(grazer.MaturityAge) + 1,
		Energy:    float32(grazer.MaxEnergy),
		MaxEnergy: float32(grazer.MaxEnergy),
	}

	cases := []struct {
		name   string
		mutate func(cr *components.Creature)
		counts int
		want   ReproOutcome
	}{
		{"ready", func(cr *components.Creature) {}, 0, ReproOK},
		{"immature", func(cr *components.Creature) { cr.Age = 1 }, 0, ReproImmature},
		{"low_energy", func(cr *components.Creature) { cr.Energy = cr.MaxEnergy * 0.1 }, 0, ReproLowEnergy},
		{"cooling_down", func(cr *components.Creature) { cr.ReproCooldown = 5 }, 0, ReproCoolingDown},
		{"at_capacity", func(cr *components.Creature) {}, grazer.Max, ReproAtCapacity},
	}
	for _, tc := range cases {
		cr := ready
		tc.mutate(&cr)
		s.counts[traits.Grazer] = tc.counts
		if got := s.reproCheck(&cr); got != tc.want {
			t.Errorf("%s: outcome %s, want %s", tc.name, got, tc.want)
		}
	}
	s.counts[traits.Grazer] = 0

	// Predators additionally have to earn kills before breeding.
	pred := s.cfg.Type(traits.SmallPredator)
	cr := components.Creature{
		Type:      traits.SmallPredator,
		Age:       float32(pred.MaturityAge) + 1,
		Energy:    float32(pred.MaxEnergy),
		MaxEnergy: float32(pred.MaxEnergy),
	}
	if got := s.reproCheck(&cr); got != ReproNeedsKills {
		t.Errorf("killless predator: outcome %s, want %s", got, ReproNeedsKills)
	}
	cr.Kills = int32(pred.MinKills)
	if got := s.reproCheck(&cr); got != ReproOK {
		t.Errorf("predator with kills: outcome %s, want %s", got, ReproOK)
	}
}

func TestCapRefusalIsQuietNoOp(t *testing.T) {
	s := newTestSim(t, 5)
	s.SetPopulationBounds(traits.Grazer, 0, 1)
	s.Spawn(traits.Grazer, 1)

	eachCreature(s, func(cr *components.Creature) {
		cr.Age = 100
		cr.Energy = cr.MaxEnergy
		cr.ReproCooldown = 0
	})

	s.updateReproduction()

	if s.Alive() != 1 {
		t.Fatalf("alive = %d, want 1 (no offspring past the cap)", s.Alive())
	}
	if s.refused != 1 {
		t.Errorf("refused = %d, want 1", s.refused)
	}
	// The parent keeps its energy: a refusal is not a failed birth.
	eachCreature(s, func(cr *components.Creature) {
		if cr.Energy != cr.MaxEnergy {
			t.Errorf("parent energy %g, want untouched %g", cr.Energy, cr.MaxEnergy)
		}
	})

	stats := s.collector.Flush(s.tick)
	if stats.ReproRefusals != 1 {
		t.Errorf("window repro refusals = %d, want 1", stats.ReproRefusals)
	}
}

func TestCapNotOvershotWithinOneTick(t *testing.T) {
	s := newTestSim(t, 10)
	s.SetPopulationBounds(traits.Grazer, 0, 7)
	s.Spawn(traits.Grazer, 6)

	eachCreature(s, func(cr *components.Creature) {
		cr.Age = 100
		cr.Energy = cr.MaxEnergy
		cr.ReproCooldown = 0
	})

	// Six eligible parents, one free slot: exactly one birth may land.
	s.updateSpatialGrid()
	s.updateReproduction()

	if got := s.Population(traits.Grazer); got != 7 {
		t.Fatalf("population = %d after one reproduction pass, want cap 7", got)
	}
	if s.refused != 5 {
		t.Errorf("refused = %d, want 5", s.refused)
	}
}

func TestReproductionPastGatesSpawnsOffspring(t *testing.T) {
	s := newTestSim(t, 6)
	s.Spawn(traits.Grazer, 2)

	eachCreature(s, func(cr *components.Creature) {
		cr.Age = 100
		cr.Energy = cr.MaxEnergy
		cr.ReproCooldown = 0
	})

	s.updateSpatialGrid()
	s.updateReproduction()

	if s.Alive() <= 2 {
		t.Fatalf("alive = %d, want offspring beyond the 2 parents", s.Alive())
	}
	eachCreature(s, func(cr *components.Creature) {
		if cr.Age > 50 && cr.Energy >= cr.MaxEnergy {
			t.Error("a breeding parent paid no energy cost")
		}
	})
}

func TestStarvationLeavesCarcass(t *testing.T) {
	s := newTestSim(t, 3)
	s.Spawn(traits.Grazer, 1)

	var maxEnergy float32
	eachCreature(s, func(cr *components.Creature) {
		maxEnergy = cr.MaxEnergy
		cr.Energy = 0
	})

	s.updateDeaths()

	if s.Alive() != 0 {
		t.Fatalf("alive = %d after starvation, want 0", s.Alive())
	}
	s.snapshotCarcasses()
	if len(s.carcassSnap) != 1 {
		t.Fatalf("carcasses = %d, want 1", len(s.carcassSnap))
	}
	// The same pass decays the fresh carcass by one tick.
	want := systems.CarcassBiomass(maxEnergy, &s.cfg.Energy) - float32(s.cfg.Energy.CarcassDecay)*s.cfg.Derived.DT32
	got := s.carcassSnap[0].Biomass
	if diff := got - want; diff < -0.001 || diff > 0.001 {
		t.Errorf("carcass biomass %g, want %g", got, want)
	}
}

func TestKillAllLeavesCarcasses(t *testing.T) {
	s := newTestSim(t, 4)
	s.Spawn(traits.Grazer, 5)
	s.Spawn(traits.SmallPredator, 2)

	if killed := s.KillAll(); killed != 7 {
		t.Fatalf("killed = %d, want 7", killed)
	}
	if s.Alive() != 0 {
		t.Errorf("alive = %d after kill-all, want 0", s.Alive())
	}

	s.snapshotCarcasses()
	if len(s.carcassSnap) != 7 {
		t.Errorf("carcasses = %d, want 7", len(s.carcassSnap))
	}
}

func TestSpawnRespectsCap(t *testing.T) {
	s := newTestSim(t, 8)
	s.SetPopulationBounds(traits.Grazer, 0, 5)

	if spawned := s.Spawn(traits.Grazer, 10); spawned != 5 {
		t.Errorf("spawned = %d, want 5", spawned)
	}
	if s.Population(traits.Grazer) != 5 {
		t.Errorf("population = %d, want 5", s.Population(traits.Grazer))
	}
}

func TestSnapshotRestoreContinuesRun(t *testing.T) {
	s1 := newTestSim(t, 7)
	s1.SpawnInitialPopulation()
	for i := 0; i < 20; i++ {
		s1.Step()
	}

	// Round-trip through JSON, the on-disk representation.
	data, err := json.Marshal(s1.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		s1.Step()
	}
	want := s1.Snapshot()

	s2 := newTestSim(t, 0)
	if err := s2.Restore(&snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s2.Tick() != snap.Tick {
		t.Fatalf("restored tick %d, want %d", s2.Tick(), snap.Tick)
	}
	for i := 0; i < 20; i++ {
		s2.Step()
	}
	got := s2.Snapshot()

	// Species identities are registry-local labels and may renumber
	// across a restore; the dynamics must not.
	for i := range want.Creatures {
		want.Creatures[i].SpeciesID = 0
	}
	for i := range got.Creatures {
		got.Creatures[i].SpeciesID = 0
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatal("restored run diverged from the original within 20 ticks")
	}
}

func TestRestoreRejectsBadRecords(t *testing.T) {
	s := newTestSim(t, 9)
	s.Spawn(traits.Grazer, 2)
	good := s.Snapshot()

	badType := *good
	badType.Creatures = append([]CreatureRecord(nil), good.Creatures...)
	badType.Creatures[0].Type = 200
	if err := s.Restore(&badType); err == nil {
		t.Error("unknown creature type accepted")
	}
	if s.Alive() != 2 {
		t.Errorf("failed restore mutated the world: alive = %d, want 2", s.Alive())
	}

	badWeights := *good
	badWeights.Creatures = append([]CreatureRecord(nil), good.Creatures...)
	badWeights.Creatures[0].Weights = badWeights.Creatures[0].Weights[:3]
	if err := s.Restore(&badWeights); err == nil {
		t.Error("truncated weight vector accepted")
	}

	badTraits := *good
	badTraits.Creatures = append([]CreatureRecord(nil), good.Creatures...)
	rec := badTraits.Creatures[0]
	rec.Traits = append([]float32(nil), rec.Traits...)
	rec.Traits[genome.TraitSize] = 999
	badTraits.Creatures[0] = rec
	if err := s.Restore(&badTraits); err == nil {
		t.Error("out-of-range trait value accepted")
	}
	if s.Alive() != 2 {
		t.Errorf("failed restore mutated the world: alive = %d, want 2", s.Alive())
	}
}

func TestPredatorKillTransfersEnergy(t *testing.T) {
	s := newTestSim(t, 11)
	s.Spawn(traits.Grazer, 1)
	s.Spawn(traits.SmallPredator, 1)

	// Put both on the same spot with the predator committed to eating.
	spot := components.Vec3{X: 500, Y: 10, Z: 500}
	var preyEnergy, hunterBefore float32
	query := s.creatureFilter.Query()
	for query.Next() {
		pos, _, cr, _, _ := query.Get()
		pos.Vec3 = spot
		if cr.Type == traits.SmallPredator {
			cr.Energy = cr.MaxEnergy * 0.3
			cr.LastEat = 1
			hunterBefore = cr.Energy
		} else {
			preyEnergy = cr.Energy
		}
	}

	s.updateSpatialGrid()
	s.resolveAttacks()

	wantGain := systems.AttackGain(preyEnergy, &s.cfg.Energy)
	eachCreature(s, func(cr *components.Creature) {
		switch cr.Type {
		case traits.SmallPredator:
			if cr.Kills != 1 {
				t.Errorf("predator kills = %d, want 1", cr.Kills)
			}
			got := cr.Energy - hunterBefore
			if diff := got - wantGain; diff < -0.001 || diff > 0.001 {
				t.Errorf("predator gained %g energy, want %g", got, wantGain)
			}
		case traits.Grazer:
			if cr.Alive {
				t.Error("attacked grazer still alive")
			}
		}
	})

	// The body routes to a carcass on the death pass.
	s.updateDeaths()
	s.snapshotCarcasses()
	if s.Alive() != 1 {
		t.Errorf("alive = %d after the kill, want 1", s.Alive())
	}
	if len(s.carcassSnap) != 1 {
		t.Errorf("carcasses = %d, want 1", len(s.carcassSnap))
	}
}

func TestStabilizerRefillsToMinimum(t *testing.T) {
	s := newTestSim(t, 12)
	s.SetPopulationBounds(traits.Grazer, 6, 50)

	s.updateStabilizer()
	if got := s.Population(traits.Grazer); got != 6 {
		t.Fatalf("population = %d after stabilizer pass, want floor 6", got)
	}

	// At the floor the stabilizer is idle.
	s.updateStabilizer()
	if got := s.Population(traits.Grazer); got != 6 {
		t.Errorf("population = %d after second pass, want 6", got)
	}

	stats := s.collector.Flush(s.tick)
	if stats.StabilizerSpawns != 6 {
		t.Errorf("stabilizer spawns = %d, want 6", stats.StabilizerSpawns)
	}
}

func TestColonyStarvesToZeroWithoutFood(t *testing.T) {
	s := newTestSim(t, 13)
	s.Spawn(traits.Grazer, 8)

	// No food collaborator is wired, so energy only drains. Start near
	// empty to keep the run short.
	eachCreature(s, func(cr *components.Creature) { cr.Energy = 2 })

	for i := 0; i < 5000 && s.Alive() > 0; i++ {
		s.Step()
	}

	if s.Alive() != 0 {
		t.Fatalf("alive = %d after 5000 foodless ticks, want 0", s.Alive())
	}
	stats := s.collector.Flush(s.tick)
	if stats.Starvations != 8 {
		t.Errorf("starvations = %d, want 8", stats.Starvations)
	}
	s.snapshotCarcasses()
	if len(s.carcassSnap) == 0 {
		t.Error("no carcasses left behind by the starved colony")
	}
}

func TestSourceStateRoundTrip(t *testing.T) {
	src := NewSource(12345)
	for i := 0; i < 10; i++ {
		src.Uint64()
	}

	state := src.State()
	var want [8]uint64
	for i := range want {
		want[i] = src.Uint64()
	}

	src.SetState(state)
	for i := range want {
		if got := src.Uint64(); got != want[i] {
			t.Fatalf("draw %d after state restore: %d, want %d", i, got, want[i])
		}
	}
}
