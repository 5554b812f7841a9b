package sim

import (
	"fmt"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/traits"
)

// Snapshot is the complete serializable simulation state. A restored
// snapshot continues the exact run: creature state, carcasses, the tick
// counter, the ID counter, and the RNG stream position all round-trip.
type Snapshot struct {
	Tick     int64  `json:"tick"`
	NextID   uint32 `json:"next_id"`
	RNGState uint64 `json:"rng_state"`

	Creatures []CreatureRecord `json:"creatures"`
	Carcasses []CarcassRecord  `json:"carcasses"`
}

// CreatureRecord is one creature's serialized state.
type CreatureRecord struct {
	ID   uint32 `json:"id"`
	Type uint8  `json:"type"`

	Pos [3]float32 `json:"pos"`
	Vel [3]float32 `json:"vel"`

	Energy    float32 `json:"energy"`
	MaxEnergy float32 `json:"max_energy"`
	Age       float32 `json:"age"`

	Kills         int32   `json:"kills"`
	ReproCooldown float32 `json:"repro_cooldown"`
	Generation    int32   `json:"generation"`
	Fitness       float32 `json:"fitness"`
	WanderPhase   float32 `json:"wander_phase"`
	SpeciesID     int32   `json:"species_id"`
	ParasiteLoad  int32   `json:"parasite_load"`

	Traits  []float32        `json:"traits"`
	Weights []float32        `json:"weights"`
	Diploid *genome.Genotype `json:"diploid,omitempty"`
}

// CarcassRecord is one carcass's serialized state.
type CarcassRecord struct {
	Pos     [3]float32 `json:"pos"`
	Biomass float32    `json:"biomass"`
	Decay   float32    `json:"decay"`
}

// Snapshot captures the current state. Call between ticks.
func (s *Simulation) Snapshot() *Snapshot {
	snap := &Snapshot{
		Tick:     s.tick,
		NextID:   s.nextID,
		RNGState: s.src.State(),
	}

	query := s.creatureFilter.Query()
	for query.Next() {
		pos, vel, cr, gen, _ := query.Get()
		if !cr.Alive {
			continue
		}

		traitsCopy := make([]float32, genome.NumTraits)
		copy(traitsCopy, gen.G.Traits[:])
		weights := make([]float32, len(gen.G.Weights))
		copy(weights, gen.G.Weights)

		snap.Creatures = append(snap.Creatures, CreatureRecord{
			ID:            cr.ID,
			Type:          uint8(cr.Type),
			Pos:           [3]float32{pos.X, pos.Y, pos.Z},
			Vel:           [3]float32{vel.X, vel.Y, vel.Z},
			Energy:        cr.Energy,
			MaxEnergy:     cr.MaxEnergy,
			Age:           cr.Age,
			Kills:         cr.Kills,
			ReproCooldown: cr.ReproCooldown,
			Generation:    cr.Generation,
			Fitness:       cr.Fitness,
			WanderPhase:   cr.WanderPhase,
			SpeciesID:     cr.SpeciesID,
			ParasiteLoad:  cr.ParasiteLoad,
			Traits:        traitsCopy,
			Weights:       weights,
			Diploid:       gen.Dip,
		})
	}

	cq := s.carcassFilter.Query()
	for cq.Next() {
		pos, c := cq.Get()
		snap.Carcasses = append(snap.Carcasses, CarcassRecord{
			Pos:     [3]float32{pos.X, pos.Y, pos.Z},
			Biomass: c.Biomass,
			Decay:   c.Decay,
		})
	}

	return snap
}

// Restore replaces the world with a snapshot's state. Invalid creature
// records abort the restore before any partial state takes effect.
func (s *Simulation) Restore(snap *Snapshot) error {
	// Validate everything up front.
	for i := range snap.Creatures {
		rec := &snap.Creatures[i]
		if rec.Type >= uint8(traits.NumTypes) {
			return fmt.Errorf("sim: creature %d has unknown type %d", rec.ID, rec.Type)
		}
		if len(rec.Traits) != int(genome.NumTraits) {
			return fmt.Errorf("sim: creature %d has %d traits, want %d", rec.ID, len(rec.Traits), genome.NumTraits)
		}
		if len(rec.Weights) != neural.WeightCount {
			return fmt.Errorf("sim: creature %d has %d weights, want %d", rec.ID, len(rec.Weights), neural.WeightCount)
		}
		var g genome.Genome
		copy(g.Traits[:], rec.Traits)
		g.Weights = rec.Weights
		if err := g.Validate(); err != nil {
			return fmt.Errorf("sim: creature %d: %w", rec.ID, err)
		}
	}

	s.removeAllEntities()

	s.tick = snap.Tick
	s.nextID = snap.NextID
	s.src.SetState(snap.RNGState)

	for i := range snap.Creatures {
		rec := &snap.Creatures[i]

		var g genome.Genome
		copy(g.Traits[:], rec.Traits)
		g.Weights = make([]float32, len(rec.Weights))
		copy(g.Weights, rec.Weights)

		net, err := neural.NewController(g.Weights)
		if err != nil {
			return fmt.Errorf("sim: creature %d: %w", rec.ID, err)
		}

		t := traits.CreatureType(rec.Type)
		p := components.Position{Vec3: components.Vec3{X: rec.Pos[0], Y: rec.Pos[1], Z: rec.Pos[2]}}
		v := components.Velocity{Vec3: components.Vec3{X: rec.Vel[0], Y: rec.Vel[1], Z: rec.Vel[2]}}
		cr := components.Creature{
			ID:            rec.ID,
			Type:          t,
			Energy:        rec.Energy,
			MaxEnergy:     rec.MaxEnergy,
			Age:           rec.Age,
			Alive:         true,
			Kills:         rec.Kills,
			ReproCooldown: rec.ReproCooldown,
			Generation:    rec.Generation,
			Fitness:       rec.Fitness,
			WanderPhase:   rec.WanderPhase,
			SpeciesID:     rec.SpeciesID,
			ParasiteLoad:  rec.ParasiteLoad,
		}
		gt := components.Genotype{G: g, Dip: rec.Diploid}
		brain := components.Brain{Net: net}

		s.creatureMapper.NewEntity(&p, &v, &cr, &gt, &brain)
		s.alive++
		s.counts[t]++
	}

	for i := range snap.Carcasses {
		rec := &snap.Carcasses[i]
		p := components.Position{Vec3: components.Vec3{X: rec.Pos[0], Y: rec.Pos[1], Z: rec.Pos[2]}}
		c := components.Carcass{Biomass: rec.Biomass, Decay: rec.Decay}
		s.carcassMapper.NewEntity(&p, &c)
	}

	// Species identities were stored per creature; the registry rebuilds
	// itself on the next recompute cadence.
	s.recomputeSpecies()

	return nil
}
