// Package sim owns the simulation world: the ECS storage, the tick
// pipeline, population management, and the command surface exposed to
// hosts. External concerns (terrain, food, persistence, presentation)
// plug in through interfaces and never reach into the world directly.
package sim

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/systems"
	"github.com/wildfen/ecosim/telemetry"
	"github.com/wildfen/ecosim/traits"
)

// Food is the full food collaborator contract. Sensing goes through the
// embedded read-only face; consumption and regrowth are single-threaded
// side effects driven by the tick pipeline.
type Food interface {
	systems.FoodSource
	Consume(id int, amount float32) float32
	Tick(dt float32)
}

// Simulation holds the complete simulation state.
type Simulation struct {
	cfg   *config.Config
	world *ecs.World
	src   *Source
	rng   *rand.Rand

	// Entity mappers over the 5 components every creature carries.
	creatureMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Creature,
		components.Genotype,
		components.Brain,
	]
	creatureFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Creature,
		components.Genotype,
		components.Brain,
	]

	carcassMapper *ecs.Map2[components.Position, components.Carcass]
	carcassFilter *ecs.Filter2[components.Position, components.Carcass]

	// Individual component mappers for lookups.
	posMap     *ecs.Map1[components.Position]
	velMap     *ecs.Map1[components.Velocity]
	creatMap   *ecs.Map1[components.Creature]
	genoMap    *ecs.Map1[components.Genotype]
	brainMap   *ecs.Map1[components.Brain]
	carcassMap *ecs.Map1[components.Carcass]

	grid    *systems.SpatialGrid
	terrain systems.Terrain
	food    Food

	species   *genome.Registry
	collector *telemetry.Collector

	parallel *parallelState

	tick    int64
	nextID  uint32
	counts  [traits.NumTypes]int
	alive   int
	dead    int
	refused int64 // reproduction attempts refused by population caps

	// carcassSnap is rebuilt each tick for scavenger sensing.
	carcassSnap []systems.CarcassInfo
}

// Options bundles the collaborators and seed a simulation starts from.
type Options struct {
	Config  *config.Config
	Terrain systems.Terrain
	Food    Food
	Seed    uint64
}

// New builds an empty world wired to its collaborators. Call
// SpawnInitialPopulation (or Restore) before stepping.
func New(opts Options) *Simulation {
	cfg := opts.Config
	world := ecs.NewWorld()
	src := NewSource(opts.Seed)

	s := &Simulation{
		cfg:   cfg,
		world: world,
		src:   src,
		rng:   rand.New(src),
		creatureMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Creature,
			components.Genotype,
			components.Brain,
		](world),
		creatureFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Creature,
			components.Genotype,
			components.Brain,
		](world),
		carcassMapper: ecs.NewMap2[components.Position, components.Carcass](world),
		carcassFilter: ecs.NewFilter2[components.Position, components.Carcass](world),
		posMap:        ecs.NewMap1[components.Position](world),
		velMap:        ecs.NewMap1[components.Velocity](world),
		creatMap:      ecs.NewMap1[components.Creature](world),
		genoMap:       ecs.NewMap1[components.Genotype](world),
		brainMap:      ecs.NewMap1[components.Brain](world),
		carcassMap:    ecs.NewMap1[components.Carcass](world),
		terrain:       opts.Terrain,
		food:          opts.Food,
		species:       genome.NewRegistry(float32(cfg.Species.DistanceThreshold)),
		collector:     telemetry.NewCollector(cfg),
	}

	s.grid = systems.NewSpatialGrid(
		cfg.Derived.WorldW32,
		cfg.Derived.WorldH32,
		cfg.Derived.WorldD32,
		float32(cfg.Spatial.CellSize),
		cfg.Spatial.CellCapacity,
	)
	s.parallel = newParallelState()

	return s
}

// Close releases worker goroutines. The simulation must not be stepped
// afterwards.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}

// Tick returns the current tick counter.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// Alive returns the live creature count.
func (s *Simulation) Alive() int {
	return s.alive
}

// Population returns the live count for one creature type.
func (s *Simulation) Population(t traits.CreatureType) int {
	return s.counts[t]
}

// Collector exposes the telemetry collector for hosts.
func (s *Simulation) Collector() *telemetry.Collector {
	return s.collector
}

// SpeciesCount returns the number of live species clusters.
func (s *Simulation) SpeciesCount() int {
	return s.species.Count()
}

// logState emits the periodic population summary.
func (s *Simulation) logState() {
	attrs := make([]any, 0, 2*int(traits.NumTypes)+4)
	attrs = append(attrs, "tick", s.tick, "alive", s.alive)
	for t := traits.CreatureType(0); t < traits.NumTypes; t++ {
		if s.counts[t] > 0 {
			attrs = append(attrs, t.String(), s.counts[t])
		}
	}
	slog.Info("population", attrs...)
}
