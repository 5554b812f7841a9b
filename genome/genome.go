package genome

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/traits"
)

// Genome is the haploid heritable representation: a fixed trait vector
// plus the neural weight vector. Owned by value by exactly one creature.
//
// Invariant: every trait stays within its declared [Min, Max] after any
// operation, and the weight vector length always equals
// neural.WeightCount.
type Genome struct {
	Traits  [NumTraits]float32
	Weights []float32
}

// Trait returns the value for a trait ID.
func (g *Genome) Trait(id TraitID) float32 {
	return g.Traits[id]
}

// Clone returns a deep copy (the weight slice is duplicated).
func (g Genome) Clone() Genome {
	w := make([]float32, len(g.Weights))
	copy(w, g.Weights)
	g.Weights = w
	return g
}

// Validate checks the genome invariants. Creatures built from an invalid
// genome must be rejected at construction.
func (g *Genome) Validate() error {
	for id := TraitID(0); id < NumTraits; id++ {
		def := Defs[id]
		v := g.Traits[id]
		if v < def.Min || v > def.Max || v != v {
			return fmt.Errorf("genome: trait %s value %g outside [%g, %g]", def.Name, v, def.Min, def.Max)
		}
	}
	if len(g.Weights) != neural.WeightCount {
		return fmt.Errorf("genome: weight vector length %d, want %d", len(g.Weights), neural.WeightCount)
	}
	return nil
}

// Randomize draws a fresh genome for the given creature type. Each trait
// is uniform within its valid band; type-distinguishing traits use the
// narrower per-type override bands.
func Randomize(rng *rand.Rand, t traits.CreatureType) Genome {
	var g Genome
	for id := TraitID(0); id < NumTraits; id++ {
		lo, hi := drawRange(t, id)
		g.Traits[id] = lo + rng.Float32()*(hi-lo)
	}
	g.Weights = neural.RandomWeights(rng)
	return g
}

// Mutate returns a perturbed copy. Each trait independently mutates with
// probability rate; the perturbation is Gaussian, scaled by strength, the
// trait's range, and its category volatility, then clamped back into
// range. Weight elements mutate the same way against the weight bounds.
// Mutation never produces an out-of-range value.
func (g Genome) Mutate(rng *rand.Rand, rate, strength float32) Genome {
	out := g.Clone()

	for id := TraitID(0); id < NumTraits; id++ {
		if rng.Float32() >= rate {
			continue
		}
		def := Defs[id]
		span := def.Max - def.Min
		delta := float32(rng.NormFloat64()) * strength * span * categoryVolatility[def.Cat]
		out.Traits[id] = clamp(out.Traits[id]+delta, def.Min, def.Max)
	}

	for i := range out.Weights {
		if rng.Float32() >= rate {
			continue
		}
		delta := float32(rng.NormFloat64()) * strength
		out.Weights[i] = clamp(out.Weights[i]+delta, WeightMin, WeightMax)
	}

	return out
}

// Crossover combines two parent genomes into a child. Per trait, the
// declared strategy applies: discrete 50/50 parent selection, or
// arithmetic blending strictly between the parents. The neural weight
// vector crosses over uniformly per element, so the child's vector length
// always matches the fixed topology.
func Crossover(rng *rand.Rand, a, b Genome) Genome {
	var child Genome

	for id := TraitID(0); id < NumTraits; id++ {
		def := Defs[id]
		switch def.Cross {
		case CrossBlend:
			// Alpha stays off the endpoints so blended values land
			// strictly between differing parents.
			alpha := 0.25 + 0.5*rng.Float32()
			v := a.Traits[id]*(1-alpha) + b.Traits[id]*alpha
			child.Traits[id] = clamp(v, def.Min, def.Max)
		default:
			if rng.Float32() < 0.5 {
				child.Traits[id] = a.Traits[id]
			} else {
				child.Traits[id] = b.Traits[id]
			}
		}
	}

	n := len(a.Weights)
	if len(b.Weights) < n {
		n = len(b.Weights)
	}
	child.Weights = make([]float32, n)
	for i := 0; i < n; i++ {
		if rng.Float32() < 0.5 {
			child.Weights[i] = a.Weights[i]
		} else {
			child.Weights[i] = b.Weights[i]
		}
	}

	return child
}

// Distance is the normalized genetic distance between two genomes in
// [0, ~1]: per-trait differences normalized by range, root-mean-squared.
// Used for species clustering and mate compatibility.
func Distance(a, b *Genome) float32 {
	var sum float32
	for id := TraitID(0); id < NumTraits; id++ {
		def := Defs[id]
		span := def.Max - def.Min
		if span <= 0 {
			continue
		}
		d := (a.Traits[id] - b.Traits[id]) / span
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum / float32(NumTraits))))
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
