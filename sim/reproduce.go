package sim

import (
	"log/slog"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/traits"
)

// ReproOutcome classifies one reproduction attempt.
type ReproOutcome uint8

const (
	ReproOK ReproOutcome = iota
	ReproImmature
	ReproLowEnergy
	ReproCoolingDown
	ReproNeedsKills
	// ReproAtCapacity is the cap refusal: a quiet no-op, not an error.
	// The attempt is counted and the parent keeps its energy.
	ReproAtCapacity
)

func (r ReproOutcome) String() string {
	switch r {
	case ReproOK:
		return "ok"
	case ReproImmature:
		return "immature"
	case ReproLowEnergy:
		return "low_energy"
	case ReproCoolingDown:
		return "cooling_down"
	case ReproNeedsKills:
		return "needs_kills"
	case ReproAtCapacity:
		return "at_capacity"
	}
	return "unknown"
}

// reproCheck evaluates every reproduction gate for one creature. All
// gates must pass: maturity, energy threshold, cooldown, the predator
// kill requirement, and the population cap.
func (s *Simulation) reproCheck(cr *components.Creature) ReproOutcome {
	tc := s.cfg.Type(cr.Type)

	if cr.Age < float32(tc.MaturityAge) {
		return ReproImmature
	}
	if cr.MaxEnergy <= 0 || cr.Energy/cr.MaxEnergy < float32(tc.ReproThreshold) {
		return ReproLowEnergy
	}
	if cr.ReproCooldown > 0 {
		return ReproCoolingDown
	}
	if tc.MinKills > 0 && int(cr.Kills) < tc.MinKills {
		return ReproNeedsKills
	}
	if tc.Max > 0 && s.counts[cr.Type] >= tc.Max {
		return ReproAtCapacity
	}
	return ReproOK
}

// updateReproduction runs the reproduction gates over the population and
// spawns offspring. A nearby species-compatible kin contributes a second
// genome through crossover; a lone parent clones itself. Either way the
// child genome passes through mutation before birth.
func (s *Simulation) updateReproduction() {
	cfg := s.cfg
	mRate := float32(cfg.Mutation.Rate)
	mStrength := float32(cfg.Mutation.Strength)

	type birthInfo struct {
		t          traits.CreatureType
		pos        components.Vec3
		g          genome.Genome
		dip        *genome.Genotype
		generation int32
		parentE    uint32
	}
	var births []birthInfo

	// Births collected this pass count against the cap immediately, so a
	// tick full of eligible parents cannot overshoot the per-type maximum.
	var pending [traits.NumTypes]int

	query := s.creatureFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, cr, gen, _ := query.Get()

		if !cr.Alive {
			continue
		}

		outcome := s.reproCheck(cr)
		if outcome == ReproOK {
			if limit := cfg.Type(cr.Type).Max; limit > 0 && s.counts[cr.Type]+pending[cr.Type] >= limit {
				outcome = ReproAtCapacity
			}
		}
		switch outcome {
		case ReproOK:
		case ReproAtCapacity:
			s.refused++
			s.collector.RecordReproRefusal(cr.Type)
			continue
		default:
			continue
		}

		tc := cfg.Type(cr.Type)

		// Mate search: nearest same-type neighbor whose genome is within
		// the species compatibility threshold.
		var mate *components.Genotype
		vision := gen.G.Traits[genome.TraitVisionRange]
		neighbors := s.grid.QueryByType(pos.Vec3, vision, entity, traits.MaskOf(cr.Type))
		for i := range neighbors {
			mg := s.genoMap.Get(neighbors[i].E)
			if mg != nil && s.species.Compatible(&gen.G, &mg.G) {
				mate = mg
				break
			}
		}

		var child genome.Genome
		var childDip *genome.Genotype
		if cfg.Diploid.Enabled && gen.Dip != nil && mate != nil && mate.Dip != nil {
			mp := s.meiosisParams()
			ga := genome.Meiosis(s.rng, gen.Dip, mp)
			gb := genome.Meiosis(s.rng, mate.Dip, mp)
			gt := genome.Fertilize(ga, gb)
			weights := genome.Crossover(s.rng, gen.G, mate.G).Weights
			child = genome.ToGenome(&gt, weights).Mutate(s.rng, mRate, mStrength)
			childDip = &gt
		} else if mate != nil {
			child = genome.Crossover(s.rng, gen.G, mate.G).Mutate(s.rng, mRate, mStrength)
		} else {
			child = gen.G.Mutate(s.rng, mRate, mStrength)
		}

		// Parent pays the birth price and starts its cooldown.
		cr.Energy -= cr.MaxEnergy * float32(tc.ReproCost)
		cr.ReproCooldown = float32(tc.ReproCooldown)
		cr.Fitness += 1

		offset := components.Vec3{
			X: (s.rng.Float32() - 0.5) * 10,
			Z: (s.rng.Float32() - 0.5) * 10,
		}
		births = append(births, birthInfo{
			t:          cr.Type,
			pos:        pos.Vec3.Add(offset),
			g:          child,
			dip:        childDip,
			generation: cr.Generation + 1,
			parentE:    cr.ID,
		})
		pending[cr.Type]++
	}

	for _, b := range births {
		pos, _ := s.confine(b.t, b.pos, components.Vec3{})
		if _, err := s.spawnCreature(b.t, pos, b.g, b.dip, b.generation); err != nil {
			// Mutation and crossover are range-preserving, so a rejected
			// child genome indicates a bug upstream.
			slog.Error("offspring_rejected", "type", b.t.String(), "parent", b.parentE, "err", err)
		}
	}
}

// meiosisParams maps config overrides onto the defaults.
func (s *Simulation) meiosisParams() genome.MeiosisParams {
	p := genome.DefaultMeiosisParams()
	if s.cfg.Diploid.SinglePointProb > 0 {
		p.SinglePointProb = float32(s.cfg.Diploid.SinglePointProb)
	}
	if s.cfg.Diploid.DoublePointProb > 0 {
		p.DoublePointProb = float32(s.cfg.Diploid.DoublePointProb)
	}
	if s.cfg.Diploid.MarkInheritProb > 0 {
		p.MarkInheritProb = float32(s.cfg.Diploid.MarkInheritProb)
	}
	return p
}
