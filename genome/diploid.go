package genome

import (
	"math/rand"

	"github.com/wildfen/ecosim/traits"
)

// The diploid variant organizes the same trait set as chromosome pairs.
// Each gene carries two alleles and a fixed dominance coefficient;
// epigenetic marks modify the expressed value by a fixed percentage and
// are inherited with a per-generation probability.

// MarkKind identifies an epigenetic mark.
type MarkKind uint8

const (
	Methylation MarkKind = iota
	Acetylation
	Phosphorylation
	Imprinting

	numMarkKinds
)

// markDef pins each mark's expression effect and inheritance probability.
// These are fixed constants from a closed table, not free parameters.
type markDef struct {
	Name        string
	Effect      float32 // fractional change to the expressed value
	InheritProb float32 // per-generation copy probability
}

// MarkDefs is the closed epigenetic mark table.
var MarkDefs = [numMarkKinds]markDef{
	Methylation:     {"methylation", -0.15, 0.30},
	Acetylation:     {"acetylation", 0.10, 0.30},
	Phosphorylation: {"phosphorylation", 0.05, 0.30},
	Imprinting:      {"imprinting", -0.30, 0.30},
}

// dominanceTable pins the dominance coefficient per trait, in [0,1].
// expressed = d*A + (1-d)*B. Fixed constants, not heritable.
var dominanceTable = [NumTraits]float32{
	TraitSize:            0.7,
	TraitSpeed:           0.6,
	TraitVisionRange:     0.5,
	TraitEfficiency:      0.5,
	TraitAttackRange:     0.6,
	TraitColorR:          0.8,
	TraitColorG:          0.8,
	TraitColorB:          0.8,
	TraitVisionFOV:       0.5,
	TraitVisionAcuity:    0.5,
	TraitHearing:         0.5,
	TraitSmell:           0.5,
	TraitTouch:           0.5,
	TraitWingSpan:        0.6,
	TraitFinSize:         0.6,
	TraitPreferredHeight: 0.5,
}

// Gene holds one allele pair plus its epigenetic marks (bitset of
// MarkKind).
type Gene struct {
	A, B  float32
	Marks uint8
}

// HasMark reports whether the mark is set on the gene.
func (g *Gene) HasMark(k MarkKind) bool {
	return g.Marks&(1<<k) != 0
}

// Chromosome is one pair-carrying chromosome: a run of genes covering the
// traits of a single category.
type Chromosome struct {
	Genes []Gene
}

// Genotype is the full diploid genome: one chromosome per trait category.
type Genotype struct {
	Chromosomes [4]Chromosome
}

// chromosomeLayout maps each chromosome (by Category) to its trait IDs,
// in trait-table order. Built once at init.
var chromosomeLayout [4][]TraitID

func init() {
	for id := TraitID(0); id < NumTraits; id++ {
		cat := Defs[id].Cat
		chromosomeLayout[cat] = append(chromosomeLayout[cat], id)
	}
}

// Gamete is a haploid product of meiosis: one allele per trait plus the
// marks that survived inheritance.
type Gamete struct {
	Alleles [NumTraits]float32
	Marks   [NumTraits]uint8
}

// MeiosisParams pins the recombination and inheritance probabilities.
type MeiosisParams struct {
	SinglePointProb float32
	DoublePointProb float32
	// MarkInheritProb overrides the per-kind table when > 0.
	MarkInheritProb float32
}

// DefaultMeiosisParams matches the pinned constant table.
func DefaultMeiosisParams() MeiosisParams {
	return MeiosisParams{SinglePointProb: 0.30, DoublePointProb: 0.10}
}

// RandomGenotype draws a fresh diploid genome for a creature type, using
// the same per-type override bands as the haploid path. Each mark kind
// appears on a gene with a small background probability.
func RandomGenotype(rng *rand.Rand, t traits.CreatureType) Genotype {
	var gt Genotype
	for cat := 0; cat < 4; cat++ {
		genes := make([]Gene, len(chromosomeLayout[cat]))
		for i, id := range chromosomeLayout[cat] {
			lo, hi := drawRange(t, id)
			genes[i] = Gene{
				A: lo + rng.Float32()*(hi-lo),
				B: lo + rng.Float32()*(hi-lo),
			}
			for k := MarkKind(0); k < numMarkKinds; k++ {
				if rng.Float32() < 0.05 {
					genes[i].Marks |= 1 << k
				}
			}
		}
		gt.Chromosomes[cat] = Chromosome{Genes: genes}
	}
	return gt
}

// Express resolves the genotype to a phenotype trait vector: dominance-
// weighted allele resolution plus epigenetic modifiers, clamped to the
// trait bounds. Pure: identical genotype and marks always yield the
// identical phenotype.
func Express(gt *Genotype) [NumTraits]float32 {
	var out [NumTraits]float32
	for cat := 0; cat < 4; cat++ {
		for i, id := range chromosomeLayout[cat] {
			gene := &gt.Chromosomes[cat].Genes[i]
			d := dominanceTable[id]
			v := d*gene.A + (1-d)*gene.B
			for k := MarkKind(0); k < numMarkKinds; k++ {
				if gene.HasMark(k) {
					v *= 1 + MarkDefs[k].Effect
				}
			}
			def := Defs[id]
			out[id] = clamp(v, def.Min, def.Max)
		}
	}
	return out
}

// Meiosis produces one gamete. Per chromosome: single-point crossover
// with probability SinglePointProb, double-point with DoublePointProb,
// otherwise no crossover; breakpoints are uniform within the chromosome.
// Each mark copies to the gamete with its inheritance probability.
func Meiosis(rng *rand.Rand, gt *Genotype, p MeiosisParams) Gamete {
	var gam Gamete
	for cat := 0; cat < 4; cat++ {
		genes := gt.Chromosomes[cat].Genes
		n := len(genes)
		if n == 0 {
			continue
		}

		// Strand-switch points within chromosome bounds.
		var switchAt [2]int
		switches := 0
		r := rng.Float32()
		switch {
		case r < p.SinglePointProb:
			switchAt[0] = rng.Intn(n)
			switches = 1
		case r < p.SinglePointProb+p.DoublePointProb:
			switchAt[0] = rng.Intn(n)
			switchAt[1] = rng.Intn(n)
			if switchAt[0] > switchAt[1] {
				switchAt[0], switchAt[1] = switchAt[1], switchAt[0]
			}
			switches = 2
		}

		onA := rng.Float32() < 0.5
		for i, id := range chromosomeLayout[cat] {
			for s := 0; s < switches; s++ {
				if switchAt[s] == i {
					onA = !onA
				}
			}
			if onA {
				gam.Alleles[id] = genes[i].A
			} else {
				gam.Alleles[id] = genes[i].B
			}
			for k := MarkKind(0); k < numMarkKinds; k++ {
				if !genes[i].HasMark(k) {
					continue
				}
				prob := MarkDefs[k].InheritProb
				if p.MarkInheritProb > 0 {
					prob = p.MarkInheritProb
				}
				if rng.Float32() < prob {
					gam.Marks[id] |= 1 << k
				}
			}
		}
	}
	return gam
}

// Fertilize combines two gametes into a genotype. Allele A comes from the
// first gamete, B from the second; marks are unioned.
func Fertilize(a, b Gamete) Genotype {
	var gt Genotype
	for cat := 0; cat < 4; cat++ {
		genes := make([]Gene, len(chromosomeLayout[cat]))
		for i, id := range chromosomeLayout[cat] {
			genes[i] = Gene{
				A:     a.Alleles[id],
				B:     b.Alleles[id],
				Marks: a.Marks[id] | b.Marks[id],
			}
		}
		gt.Chromosomes[cat] = Chromosome{Genes: genes}
	}
	return gt
}

// ToGenome collapses a genotype to a haploid Genome carrying the expressed
// phenotype as its trait vector. The neural weight vector stays on the
// haploid inheritance path and is supplied by the caller.
func ToGenome(gt *Genotype, weights []float32) Genome {
	return Genome{Traits: Express(gt), Weights: weights}
}
