package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/systems"
	"github.com/wildfen/ecosim/telemetry"
	"github.com/wildfen/ecosim/traits"
)

// SpawnInitialPopulation seeds the world with each type's configured
// initial count.
func (s *Simulation) SpawnInitialPopulation() {
	for t := traits.CreatureType(0); t < traits.NumTypes; t++ {
		tc := s.cfg.Type(t)
		for i := 0; i < tc.Initial; i++ {
			s.spawnRandom(t)
		}
	}
	slog.Info("initial_population", "alive", s.alive)
}

// spawnRandom creates a fresh creature of the given type with a random
// genome at a valid spawn position.
func (s *Simulation) spawnRandom(t traits.CreatureType) ecs.Entity {
	g := genome.Randomize(s.rng, t)
	var dip *genome.Genotype
	if s.cfg.Diploid.Enabled {
		gt := genome.RandomGenotype(s.rng, t)
		g = genome.ToGenome(&gt, g.Weights)
		dip = &gt
	}
	e, err := s.spawnCreature(t, s.randomSpawnPos(t), g, dip, 0)
	if err != nil {
		// Random genomes are drawn in-range; a failure here is a bug.
		slog.Error("spawn_rejected", "type", t.String(), "err", err)
		return ecs.Entity{}
	}
	return e
}

// spawnCreature validates the genome, builds the controller, and creates
// the entity. Construction is fail-fast: an invalid genome or weight
// vector rejects the creature without touching the world.
func (s *Simulation) spawnCreature(t traits.CreatureType, pos components.Vec3, g genome.Genome, dip *genome.Genotype, generation int32) (ecs.Entity, error) {
	if err := g.Validate(); err != nil {
		return ecs.Entity{}, err
	}
	net, err := neural.NewController(g.Weights)
	if err != nil {
		return ecs.Entity{}, err
	}

	id := s.nextID
	s.nextID++
	tc := s.cfg.Type(t)

	p := components.Position{Vec3: pos}
	v := components.Velocity{}
	cr := components.Creature{
		ID:            id,
		Type:          t,
		Energy:        float32(tc.MaxEnergy) * 0.6,
		MaxEnergy:     float32(tc.MaxEnergy),
		Alive:         true,
		Generation:    generation,
		ReproCooldown: float32(tc.MaturityAge),
		WanderPhase:   s.rng.Float32(),
		SpeciesID:     s.species.Assign(&g),
	}
	gt := components.Genotype{G: g, Dip: dip}
	brain := components.Brain{Net: net}

	entity := s.creatureMapper.NewEntity(&p, &v, &cr, &gt, &brain)
	s.alive++
	s.counts[t]++
	s.collector.RecordBirth(t)

	return entity, nil
}

// randomSpawnPos picks a spawn position valid for the type's locomotion
// class.
func (s *Simulation) randomSpawnPos(t traits.CreatureType) components.Vec3 {
	cfg := s.cfg
	for attempt := 0; attempt < 16; attempt++ {
		x := s.rng.Float32() * cfg.Derived.WorldW32
		z := s.rng.Float32() * cfg.Derived.WorldD32

		ground := float32(0)
		water := false
		if s.terrain != nil {
			ground = s.terrain.HeightAt(x, z)
			water = s.terrain.IsWater(x, z)
		}

		switch {
		case traits.IsAquatic(t):
			if !water && s.terrain != nil {
				continue
			}
			depth := ground + (cfg.Derived.WaterLevel32-ground)*s.rng.Float32()
			return components.Vec3{X: x, Y: depth, Z: z}
		case traits.IsAirborne(t):
			alt := ground + s.rng.Float32()*(cfg.Derived.WorldH32-ground)*0.5
			return components.Vec3{X: x, Y: alt, Z: z}
		default:
			if water && s.terrain != nil {
				continue
			}
			return components.Vec3{X: x, Y: ground, Z: z}
		}
	}

	// Fallback when no valid column was found; the confine step will
	// settle the creature next tick.
	x := s.rng.Float32() * cfg.Derived.WorldW32
	z := s.rng.Float32() * cfg.Derived.WorldD32
	return components.Vec3{X: x, Y: cfg.Derived.WaterLevel32, Z: z}
}

// updateDeaths removes creatures that starved or aged out, leaving a
// carcass behind, and decays existing carcasses.
func (s *Simulation) updateDeaths() {
	type deadInfo struct {
		entity ecs.Entity
		t      traits.CreatureType
		pos    components.Vec3
		maxE   float32
	}
	var toRemove []deadInfo

	query := s.creatureFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, cr, _, _ := query.Get()

		if cr.Alive && cr.Energy <= 0 {
			cr.Alive = false
			s.collector.RecordDeath(cr.Type, telemetry.CauseStarved)
		}
		if cr.Alive && cr.Age > float32(s.cfg.Type(cr.Type).MaxAge) {
			cr.Alive = false
			s.collector.RecordDeath(cr.Type, telemetry.CauseOldAge)
		}

		if !cr.Alive {
			toRemove = append(toRemove, deadInfo{entity: entity, t: cr.Type, pos: pos.Vec3, maxE: cr.MaxEnergy})
		}
	}

	for _, dead := range toRemove {
		s.creatureMapper.Remove(dead.entity)
		s.alive--
		s.dead++
		s.counts[dead.t]--

		biomass := systems.CarcassBiomass(dead.maxE, &s.cfg.Energy)
		if biomass > 0 {
			p := components.Position{Vec3: dead.pos}
			c := components.Carcass{Biomass: biomass, Decay: float32(s.cfg.Energy.CarcassDecay)}
			s.carcassMapper.NewEntity(&p, &c)
		}
	}

	s.decayCarcasses()
}

// decayCarcasses shrinks carcass biomass and removes exhausted ones.
func (s *Simulation) decayCarcasses() {
	dt := s.cfg.Derived.DT32

	var empty []ecs.Entity
	query := s.carcassFilter.Query()
	for query.Next() {
		_, c := query.Get()
		c.Biomass -= c.Decay * dt
		if c.Biomass <= 0 {
			empty = append(empty, query.Entity())
		}
	}
	for _, e := range empty {
		s.carcassMapper.Remove(e)
	}
}

// updateStabilizer spawns fresh random creatures for any type below its
// configured population floor. Compensatory, not evolutionary: the
// spawns carry random genomes, keeping a type from winking out without
// steering its gene pool.
func (s *Simulation) updateStabilizer() {
	for t := traits.CreatureType(0); t < traits.NumTypes; t++ {
		tc := s.cfg.Type(t)
		if tc.Min <= 0 || s.counts[t] >= tc.Min {
			continue
		}

		needed := tc.Min - s.counts[t]
		for i := 0; i < needed; i++ {
			s.spawnRandom(t)
		}
		s.collector.RecordStabilizerSpawns(t, needed)
		slog.Debug("stabilizer_spawn", "type", t.String(), "count", needed)
	}
}
