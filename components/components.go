// Package components defines ECS components for the simulation.
package components

import (
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/traits"
)

// Position is a creature's world position.
type Position struct {
	Vec3
}

// Velocity is a creature's velocity in world units per second.
type Velocity struct {
	Vec3
}

// Creature holds per-organism simulation state. One Creature component per
// live (or freshly dead) entity; the genome and brain live in their own
// components.
type Creature struct {
	ID   uint32
	Type traits.CreatureType

	Energy    float32
	MaxEnergy float32
	Age       float32
	Alive     bool

	Kills         int32
	ReproCooldown float32
	Generation    int32
	Fitness       float32 // offspring count + survival credit, for dashboards

	// WanderPhase seeds the deterministic wander noise. Drawn once at
	// birth so the parallel compute phase stays RNG-free.
	WanderPhase float32

	// LastEat is the controller's eat output from the last compute
	// phase; the feeding resolution reads it at commit time.
	LastEat float32

	SpeciesID int32

	// ParasiteLoad counts attached parasites; drains energy each tick
	// until a cleaner removes them.
	ParasiteLoad int32
}

// Genotype carries the creature's heritable genome by value. Owned
// exclusively by its entity, never shared between creatures. Dip is set
// only when the diploid genetics mode is enabled; the expressed haploid
// genome in G stays authoritative for phenotype lookups either way.
type Genotype struct {
	G   genome.Genome
	Dip *genome.Genotype
}

// Brain holds the creature's neural controller, built from the genome's
// weight vector at birth.
type Brain struct {
	Net *neural.Controller
}

// Carcass is the remains of a dead creature: a decaying biomass pool that
// scavengers and cleaners feed from.
type Carcass struct {
	Biomass float32
	Decay   float32 // biomass lost per second
}
