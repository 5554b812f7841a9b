package sim

import (
	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/systems"
	"github.com/wildfen/ecosim/telemetry"
	"github.com/wildfen/ecosim/traits"
)

// logInterval is the tick cadence of the population summary log line.
const logInterval = 600

// Step advances the simulation by one tick. The pipeline order is fixed:
// index rebuild, food regrowth, the snapshot/compute/commit movement
// cycle, then the single-threaded resolution phases that need the RNG.
func (s *Simulation) Step() {
	s.tick++
	dt := s.cfg.Derived.DT32

	s.updateSpatialGrid()
	s.snapshotCarcasses()

	if s.food != nil {
		s.food.Tick(dt)
	}

	s.updateBehavior()
	s.resolveFeeding()
	s.resolveAttacks()
	s.resolveParasites()
	s.updateEnergy()
	s.updateDeaths()
	s.updateReproduction()
	s.updateStabilizer()

	if s.cfg.Species.RecomputeTicks > 0 && s.tick%int64(s.cfg.Species.RecomputeTicks) == 0 {
		s.recomputeSpecies()
	}

	s.sampleMetrics()

	if s.tick%logInterval == 0 {
		s.logState()
	}
}

// updateSpatialGrid rebuilds the spatial index from live creatures.
func (s *Simulation) updateSpatialGrid() {
	s.grid.Clear()

	query := s.creatureFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, cr, _, _ := query.Get()

		if cr.Alive {
			s.grid.Insert(entity, pos.Vec3, vel.Vec3, cr.Type)
		}
	}

	if dropped := s.grid.Dropped(); dropped > 0 {
		s.collector.RecordGridDrops(dropped)
	}
}

// snapshotCarcasses rebuilds the read-only carcass list workers scan.
func (s *Simulation) snapshotCarcasses() {
	s.carcassSnap = s.carcassSnap[:0]

	query := s.carcassFilter.Query()
	for query.Next() {
		pos, c := query.Get()
		s.carcassSnap = append(s.carcassSnap, systems.CarcassInfo{
			E:       query.Entity(),
			Pos:     pos.Vec3,
			Biomass: c.Biomass,
		})
	}
}

// resolveFeeding lets plant eaters consume from the food field and
// carrion eaters strip carcasses. Single-threaded: the food field and
// carcass components are mutated here.
func (s *Simulation) resolveFeeding() {
	cfg := s.cfg
	dt := cfg.Derived.DT32
	eatRadius := float32(cfg.Food.EatRadius)
	eatRate := float32(cfg.Food.EatRate)
	scavengeRate := float32(cfg.Energy.ScavengeRate)
	eatRadiusSq := eatRadius * eatRadius

	query := s.creatureFilter.Query()
	for query.Next() {
		pos, _, cr, _, _ := query.Get()

		if !cr.Alive || cr.LastEat < 0.5 || cr.Energy >= cr.MaxEnergy {
			continue
		}

		if traits.EatsFood(cr.Type) && s.food != nil {
			target, ok := s.food.Nearest(pos.Vec3, eatRadius)
			if ok && components.DistSq(pos.Vec3, target.Pos) <= eatRadiusSq {
				got := s.food.Consume(target.ID, eatRate*dt)
				cr.Energy = minF(cr.Energy+got, cr.MaxEnergy)
			}
		}

		if traits.EatsCarrion(cr.Type) {
			for i := range s.carcassSnap {
				ci := &s.carcassSnap[i]
				if components.DistSq(pos.Vec3, ci.Pos) > eatRadiusSq {
					continue
				}
				c := s.carcassMap.Get(ci.E)
				if c == nil || c.Biomass <= 0 {
					continue
				}
				bite := minF(scavengeRate*dt, c.Biomass)
				c.Biomass -= bite
				cr.Energy = minF(cr.Energy+bite, cr.MaxEnergy)
				break
			}
		}
	}
}

// resolveAttacks applies predator kills. One kill per attacker per tick,
// gated on the controller's eat output and the genome's attack reach.
// The victim dies in place; its energy transfers by the configured
// fraction and the body is routed to a carcass in updateDeaths.
func (s *Simulation) resolveAttacks() {
	transfer := &s.cfg.Energy

	query := s.creatureFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, cr, gen, _ := query.Get()

		if !cr.Alive || !traits.IsPredator(cr.Type) || cr.LastEat < 0.5 {
			continue
		}

		reach := gen.G.Traits[genome.TraitAttackRange]
		neighbors := s.grid.QueryByType(pos.Vec3, reach, entity, traits.PreyMask(cr.Type))

		for i := range neighbors {
			victim := s.creatMap.Get(neighbors[i].E)
			if victim == nil || !victim.Alive {
				continue
			}

			cr.Energy = minF(cr.Energy+systems.AttackGain(victim.Energy, transfer), cr.MaxEnergy)
			cr.Kills++
			cr.Fitness += 1
			victim.Alive = false
			victim.Energy = 0
			s.collector.RecordKill(cr.Type)
			s.collector.RecordDeath(victim.Type, telemetry.CausePredation)
			break
		}
	}
}

// resolveParasites drains hosts with an attached parasite and lets
// cleaners strip parasites off. Attachment is proximity-based: a
// parasite within its attack reach of a host is feeding.
func (s *Simulation) resolveParasites() {
	cfg := s.cfg
	dt := cfg.Derived.DT32
	drain := float32(cfg.Energy.ParasiteDrain) * dt
	hostMask := traits.MaskOf(traits.HostTable...)

	// Reset loads; they are recomputed from live attachments each tick.
	query := s.creatureFilter.Query()
	for query.Next() {
		_, _, cr, _, _ := query.Get()
		cr.ParasiteLoad = 0
	}

	query = s.creatureFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, cr, gen, _ := query.Get()

		if !cr.Alive {
			continue
		}

		switch cr.Type {
		case traits.Parasite:
			reach := gen.G.Traits[genome.TraitAttackRange]
			neighbors := s.grid.QueryByType(pos.Vec3, reach, entity, hostMask)
			if len(neighbors) == 0 {
				continue
			}
			host := s.creatMap.Get(neighbors[0].E)
			if host == nil || !host.Alive {
				continue
			}
			host.Energy -= drain
			host.ParasiteLoad++
			cr.Energy = minF(cr.Energy+drain, cr.MaxEnergy)

		case traits.Cleaner:
			reach := gen.G.Traits[genome.TraitAttackRange]
			neighbors := s.grid.QueryByType(pos.Vec3, reach, entity, traits.MaskOf(traits.CleanTable...))
			if len(neighbors) == 0 {
				continue
			}
			target := s.creatMap.Get(neighbors[0].E)
			if target == nil || !target.Alive {
				continue
			}
			// Eating a parasite is the cleaner's service and its meal.
			target.Alive = false
			target.Energy = 0
			cr.Energy = minF(cr.Energy+float32(cfg.Energy.AttackTransfer)*target.MaxEnergy, cr.MaxEnergy)
			s.collector.RecordDeath(traits.Parasite, telemetry.CausePredation)
		}
	}
}

// updateEnergy applies metabolic drain, aging, and cooldown decay.
func (s *Simulation) updateEnergy() {
	dt := s.cfg.Derived.DT32
	ec := &s.cfg.Energy

	query := s.creatureFilter.Query()
	for query.Next() {
		_, vel, cr, gen, _ := query.Get()

		if !cr.Alive {
			continue
		}

		cr.Energy -= systems.MetabolicCost(&gen.G.Traits, vel.Length(), ec, dt)
		cr.Age += dt
		cr.Fitness += dt * 0.01

		if cr.ReproCooldown > 0 {
			cr.ReproCooldown -= dt
			if cr.ReproCooldown < 0 {
				cr.ReproCooldown = 0
			}
		}
	}
}

// recomputeSpecies re-clusters the population from scratch, so species
// identities track the drifting gene pool instead of founding genomes.
func (s *Simulation) recomputeSpecies() {
	s.species.BeginRecompute()

	query := s.creatureFilter.Query()
	for query.Next() {
		_, _, cr, gen, _ := query.Get()
		if cr.Alive {
			cr.SpeciesID = s.species.Assign(&gen.G)
		}
	}

	s.species.Prune()
}

// sampleMetrics feeds the telemetry collector one tick sample.
func (s *Simulation) sampleMetrics() {
	var sample telemetry.TickSample
	sample.Tick = s.tick
	sample.Populations = s.counts
	sample.SpeciesCount = s.species.Count()

	var energySum float32
	var sizeSum, sizeSqSum float64
	n := 0

	query := s.creatureFilter.Query()
	for query.Next() {
		_, _, cr, gen, _ := query.Get()
		if !cr.Alive {
			continue
		}
		energySum += cr.Energy / maxF32(cr.MaxEnergy, 1)
		size := float64(gen.G.Traits[genome.TraitSize])
		sizeSum += size
		sizeSqSum += size * size
		n++
	}

	if n > 0 {
		sample.MeanEnergy = energySum / float32(n)
		mean := sizeSum / float64(n)
		sample.SizeVariance = sizeSqSum/float64(n) - mean*mean
	}

	s.collector.Sample(sample)
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
