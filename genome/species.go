package genome

// Species clustering groups creatures by genetic distance. Read-only
// derived state: recomputed on a slow cadence, used for the diversity
// metric, presentation, and distance-gated mate compatibility. It never
// owns creatures.

// Species is one cluster of genetically similar creatures.
type Species struct {
	ID             int32
	Representative Genome // compatibility anchor, copied on creation
	MemberCount    int
	Age            int // recompute cycles since the species appeared
}

// Registry assigns genomes to species by distance to each species'
// representative, creating a new species when nothing is compatible.
type Registry struct {
	Species   []*Species
	threshold float32
	nextID    int32
}

// NewRegistry creates a registry with the given compatibility threshold
// (normalized genetic distance below which two genomes share a species).
func NewRegistry(threshold float32) *Registry {
	return &Registry{threshold: threshold, nextID: 1}
}

// Assign finds or creates a species for the genome and returns its ID.
func (r *Registry) Assign(g *Genome) int32 {
	for _, sp := range r.Species {
		if Distance(g, &sp.Representative) < r.threshold {
			sp.MemberCount++
			return sp.ID
		}
	}

	sp := &Species{
		ID:             r.nextID,
		Representative: g.Clone(),
		MemberCount:    1,
	}
	r.nextID++
	r.Species = append(r.Species, sp)
	return sp.ID
}

// BeginRecompute resets member counts ahead of a full reassignment pass.
func (r *Registry) BeginRecompute() {
	for _, sp := range r.Species {
		sp.MemberCount = 0
		sp.Age++
	}
}

// Prune drops species that ended a recompute with no members.
func (r *Registry) Prune() {
	kept := r.Species[:0]
	for _, sp := range r.Species {
		if sp.MemberCount > 0 {
			kept = append(kept, sp)
		}
	}
	r.Species = kept
}

// Count returns the number of live species.
func (r *Registry) Count() int {
	return len(r.Species)
}

// Compatible reports whether two genomes are close enough to mate under
// the registry's threshold.
func (r *Registry) Compatible(a, b *Genome) bool {
	return Distance(a, b) < r.threshold
}
