package sim

import (
	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/traits"
)

// CreatureView is the read-only projection handed to presentation
// layers. It carries display state only; genomes and brains stay inside
// the core.
type CreatureView struct {
	ID   uint32
	Type traits.CreatureType

	Pos components.Vec3
	Vel components.Vec3

	Energy    float32
	MaxEnergy float32
	Age       float32

	Generation int32
	SpeciesID  int32
	Size       float32
	Color      [3]float32
}

// VisitCreatures calls fn once per live creature. The view is built on
// the stack per call; fn must not retain it across ticks.
func (s *Simulation) VisitCreatures(fn func(CreatureView)) {
	query := s.creatureFilter.Query()
	for query.Next() {
		pos, vel, cr, gen, _ := query.Get()
		if !cr.Alive {
			continue
		}

		fn(CreatureView{
			ID:         cr.ID,
			Type:       cr.Type,
			Pos:        pos.Vec3,
			Vel:        vel.Vec3,
			Energy:     cr.Energy,
			MaxEnergy:  cr.MaxEnergy,
			Age:        cr.Age,
			Generation: cr.Generation,
			SpeciesID:  cr.SpeciesID,
			Size:       gen.G.Traits[genome.TraitSize],
			Color: [3]float32{
				gen.G.Traits[genome.TraitColorR],
				gen.G.Traits[genome.TraitColorG],
				gen.G.Traits[genome.TraitColorB],
			},
		})
	}
}

// VisitCarcasses calls fn once per carcass.
func (s *Simulation) VisitCarcasses(fn func(pos components.Vec3, biomass float32)) {
	query := s.carcassFilter.Query()
	for query.Next() {
		pos, c := query.Get()
		fn(pos.Vec3, c.Biomass)
	}
}
