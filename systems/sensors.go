package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/traits"
)

// Terrain is the external terrain collaborator. The core queries it for
// grounding and depth logic but never generates or owns terrain data.
type Terrain interface {
	HeightAt(x, z float32) float32
	IsWater(x, z float32) bool
}

// FoodTarget is one food spot as seen by a creature.
type FoodTarget struct {
	ID       int
	Pos      components.Vec3
	Quantity float32
}

// FoodSource is the read-only face of the external food collaborator,
// safe to call from parallel workers. Consumption is a separate side
// effect applied at commit time.
type FoodSource interface {
	Nearest(pos components.Vec3, radius float32) (FoodTarget, bool)
}

// CarcassInfo is a read-only carcass snapshot for scavenger sensing.
type CarcassInfo struct {
	E       ecs.Entity
	Pos     components.Vec3
	Biomass float32
}

// CreatureState is the immutable per-creature snapshot read by the
// compute phase. Built from the previous commit's component values.
type CreatureState struct {
	E    ecs.Entity
	ID   uint32
	Type traits.CreatureType

	Pos components.Vec3
	Vel components.Vec3

	Energy    float32
	MaxEnergy float32
	Age       float32

	WanderPhase  float32
	ParasiteLoad int32

	Traits [genome.NumTraits]float32
	Brain  *neural.Controller
}

// Sense holds the nearest-target results of one sensing pass, shared
// between input-vector construction and behavior composition.
type Sense struct {
	Threat    *Neighbor
	Prey      *Neighbor
	Kin       *Neighbor
	Host      *Neighbor // parasite attach target
	CleanGoal *Neighbor // cleaner service target

	Food    FoodTarget
	HasFood bool

	Carcass    CarcassInfo
	HasCarcass bool

	Crowding int // neighbor count within vision
}

// ComputeSense scans the neighbor list once, picking the nearest entry in
// each role the creature's type cares about, and resolves the nearest
// food spot and carcass.
func ComputeSense(st *CreatureState, neighbors []Neighbor, food FoodSource, carcasses []CarcassInfo) Sense {
	var s Sense
	threats := traits.ThreatMask(st.Type)
	prey := traits.PreyMask(st.Type)
	hosts := traits.Mask(0)
	cleans := traits.Mask(0)
	if st.Type == traits.Parasite {
		hosts = traits.MaskOf(traits.HostTable...)
	}
	if st.Type == traits.Cleaner {
		cleans = traits.MaskOf(traits.CleanTable...)
	}

	var bestThreat, bestPrey, bestKin, bestHost, bestClean float32 = -1, -1, -1, -1, -1
	for i := range neighbors {
		n := &neighbors[i]
		s.Crowding++

		if threats.Has(n.Type) && (bestThreat < 0 || n.DistSq < bestThreat) {
			bestThreat = n.DistSq
			s.Threat = n
		}
		if prey.Has(n.Type) && (bestPrey < 0 || n.DistSq < bestPrey) {
			bestPrey = n.DistSq
			s.Prey = n
		}
		if n.Type == st.Type && (bestKin < 0 || n.DistSq < bestKin) {
			bestKin = n.DistSq
			s.Kin = n
		}
		if hosts.Has(n.Type) && (bestHost < 0 || n.DistSq < bestHost) {
			bestHost = n.DistSq
			s.Host = n
		}
		if cleans.Has(n.Type) && (bestClean < 0 || n.DistSq < bestClean) {
			bestClean = n.DistSq
			s.CleanGoal = n
		}
	}

	vision := st.Traits[genome.TraitVisionRange]
	if food != nil && traits.EatsFood(st.Type) {
		s.Food, s.HasFood = food.Nearest(st.Pos, vision)
	}

	if traits.EatsCarrion(st.Type) {
		visionSq := vision * vision
		best := float32(-1)
		for i := range carcasses {
			d := components.DistSq(st.Pos, carcasses[i].Pos)
			if d <= visionSq && (best < 0 || d < best) {
				best = d
				s.Carcass = carcasses[i]
				s.HasCarcass = true
			}
		}
	}

	return s
}

// BuildInputs assembles the fixed-size sensory vector for the neural
// controller. Every scalar is normalized; sensors that don't apply to the
// creature's situation read as their neutral value.
func BuildInputs(st *CreatureState, s *Sense, terrain Terrain, worldHeight float32) [neural.NumInputs]float32 {
	var in [neural.NumInputs]float32

	vision := maxF(st.Traits[genome.TraitVisionRange], 0.001)
	heading := headingOf(st.Vel)

	// Primary target: prey for hunters, food for grazers, carcass for
	// scavengers. Distance 1 = nothing in range.
	in[neural.InFoodDist] = 1
	switch {
	case s.Prey != nil:
		in[neural.InFoodDist] = normDist(s.Prey.DistSq, vision)
		in[neural.InFoodAngle] = relAngle(st.Pos, s.Prey.Pos, heading)
	case s.HasFood:
		d := components.DistSq(st.Pos, s.Food.Pos)
		in[neural.InFoodDist] = normDist(d, vision)
		in[neural.InFoodAngle] = relAngle(st.Pos, s.Food.Pos, heading)
	case s.HasCarcass:
		d := components.DistSq(st.Pos, s.Carcass.Pos)
		in[neural.InFoodDist] = normDist(d, vision)
		in[neural.InFoodAngle] = relAngle(st.Pos, s.Carcass.Pos, heading)
	}

	in[neural.InThreatDist] = 1
	if s.Threat != nil {
		in[neural.InThreatDist] = normDist(s.Threat.DistSq, vision)
		in[neural.InThreatAngle] = relAngle(st.Pos, s.Threat.Pos, heading)
	}

	// Secondary target: nearest kin (flocking partner) or host.
	in[neural.InAltDist] = 1
	switch {
	case s.Host != nil:
		in[neural.InAltDist] = normDist(s.Host.DistSq, vision)
		in[neural.InAltAngle] = relAngle(st.Pos, s.Host.Pos, heading)
	case s.Kin != nil:
		in[neural.InAltDist] = normDist(s.Kin.DistSq, vision)
		in[neural.InAltAngle] = relAngle(st.Pos, s.Kin.Pos, heading)
	}

	if st.MaxEnergy > 0 {
		in[neural.InEnergy] = clampF(st.Energy/st.MaxEnergy, 0, 1)
	}
	maxSpeed := maxF(st.Traits[genome.TraitSpeed], 0.001)
	in[neural.InSpeed] = clampF(st.Vel.Length()/maxSpeed, 0, 1)

	ground := float32(0)
	if terrain != nil {
		ground = terrain.HeightAt(st.Pos.X, st.Pos.Z)
	}
	if worldHeight > 0 {
		in[neural.InTerrainHeight] = clampF(ground/worldHeight, 0, 1)
		in[neural.InAltitude] = clampF((st.Pos.Y-ground)/worldHeight, -1, 1)
	}

	in[neural.InCrowding] = saturate(float32(s.Crowding) / 8)
	in[neural.InBias] = 1

	return in
}

// headingOf returns the horizontal heading of a velocity, or 0 when the
// creature is at rest.
func headingOf(vel components.Vec3) float32 {
	if vel.X == 0 && vel.Z == 0 {
		return 0
	}
	return float32(math.Atan2(float64(vel.Z), float64(vel.X)))
}

// relAngle returns the horizontal angle to a target relative to heading,
// normalized to [-1, 1].
func relAngle(from, to components.Vec3, heading float32) float32 {
	dx := to.X - from.X
	dz := to.Z - from.Z
	if dx == 0 && dz == 0 {
		return 0
	}
	a := float32(math.Atan2(float64(dz), float64(dx))) - heading
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a / math.Pi
}

// normDist converts a squared distance to a [0,1] fraction of range.
func normDist(distSq, rng float32) float32 {
	return clampF(float32(math.Sqrt(float64(distSq)))/rng, 0, 1)
}

// saturate uses 1 - exp(-x) for smooth [0,1) saturation.
func saturate(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return 1 - float32(math.Exp(float64(-x)))
}
