package systems

import (
	"math"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/traits"
)

// BehaviorContext carries the read-only collaborators and constants the
// steering composition needs. One instance per tick, shared by workers.
type BehaviorContext struct {
	Cfg         *config.Config
	Terrain     Terrain
	Tick        int64
	DT          float32
	WaterLevel  float32
	WorldHeight float32
}

// forcePerSpeed converts a genome speed cap into a steering force budget.
const forcePerSpeed = 3.0

// groundClearance is the minimum height swimmers and flyers keep above
// terrain before the safety override kicks in.
const groundClearance = 2.0

// SteerCreature composes steering primitives into a single force vector
// for one creature, according to its type's strategy. Neural outputs
// scale the fear/exploration/social terms; genome traits set the
// structural parameters (vision range, speed cap, attack reach).
//
// The creature-type set is closed; the switch below is expected to cover
// every variant.
func SteerCreature(st *CreatureState, s *Sense, neighbors []Neighbor, out *[neural.NumOutputs]float32, ctx *BehaviorContext) components.Vec3 {
	maxSpeed := st.Traits[genome.TraitSpeed]
	maxForce := maxSpeed * forcePerSpeed
	tc := ctx.Cfg.Type(st.Type)

	// Hard safety override near terrain/surface boundaries dominates all
	// other steering for creatures with a free vertical axis.
	if ov, violated := safetyOverride(st, ctx, maxForce); violated {
		return ov
	}

	var force components.Vec3

	switch st.Type {
	case traits.Grazer, traits.Browser, traits.Frugivore:
		force = herbivoreSteer(st, s, neighbors, out, tc, maxSpeed, maxForce, ctx)

	case traits.SmallPredator, traits.ApexPredator:
		force = predatorSteer(st, s, out, tc, maxSpeed, maxForce, ctx)

	case traits.Omnivore:
		// Omnivores hunt like predators when prey is visible and hungry,
		// otherwise graze like herbivores.
		if s.Prey != nil && energyFrac(st) < float32(tc.FoodThreshold) {
			force = predatorSteer(st, s, out, tc, maxSpeed, maxForce, ctx)
		} else {
			force = herbivoreSteer(st, s, neighbors, out, tc, maxSpeed, maxForce, ctx)
		}

	case traits.Scavenger:
		force = scavengerSteer(st, s, out, tc, maxSpeed, maxForce, ctx)

	case traits.Aquatic:
		force = herbivoreSteer(st, s, neighbors, out, tc, maxSpeed, maxForce, ctx)
		force = force.Add(verticalPreference(st, ctx, out, maxForce))

	case traits.Flying:
		if s.Prey != nil && out[neural.OutEat] > 0.5 {
			// Dive on surfaced prey.
			force = Pursue(st.Pos, st.Vel, s.Prey.Pos, s.Prey.Vel, maxSpeed, maxForce)
		} else {
			force = wanderTerm(st, out, ctx, maxForce)
			if s.HasFood && energyFrac(st) < float32(tc.FoodThreshold) {
				force = force.Add(Arrive(st.Pos, st.Vel, s.Food.Pos, maxSpeed, maxForce, 10))
			}
		}
		force = force.Add(verticalPreference(st, ctx, out, maxForce))

	case traits.Parasite:
		if s.Host != nil {
			force = Pursue(st.Pos, st.Vel, s.Host.Pos, s.Host.Vel, maxSpeed, maxForce)
		} else {
			force = wanderTerm(st, out, ctx, maxForce)
		}
		if s.Threat != nil {
			force = force.Add(fleeTerm(st, s, out, tc, maxSpeed, maxForce))
		}

	case traits.Cleaner:
		switch {
		case s.CleanGoal != nil:
			force = Pursue(st.Pos, st.Vel, s.CleanGoal.Pos, s.CleanGoal.Vel, maxSpeed, maxForce)
		case s.HasCarcass:
			force = Arrive(st.Pos, st.Vel, s.Carcass.Pos, maxSpeed, maxForce, 8)
		default:
			force = wanderTerm(st, out, ctx, maxForce)
		}

	default:
		force = wanderTerm(st, out, ctx, maxForce)
	}

	// World edge avoidance applies to everyone.
	force = force.Add(edgeAvoid(st.Pos, ctx, maxForce))

	return force.Limit(maxForce)
}

// herbivoreSteer: flee detected predators with urgency proportional to
// inverse distance, seek food when hungry, flock with kin, wander
// otherwise.
func herbivoreSteer(st *CreatureState, s *Sense, neighbors []Neighbor, out *[neural.NumOutputs]float32, tc *config.TypeConfig, maxSpeed, maxForce float32, ctx *BehaviorContext) components.Vec3 {
	if s.Threat != nil {
		dist := float32(math.Sqrt(float64(s.Threat.DistSq)))
		if dist < float32(tc.FleeDistance) {
			return fleeTerm(st, s, out, tc, maxSpeed, maxForce)
		}
	}

	var force components.Vec3
	busy := false

	if s.HasFood && energyFrac(st) < float32(tc.FoodThreshold) {
		force = force.Add(Arrive(st.Pos, st.Vel, s.Food.Pos, maxSpeed, maxForce, 8))
		busy = true
	}

	if s.Kin != nil {
		kin := sameTypeNeighbors(st, neighbors)
		social := out[neural.OutSocial]
		w := FlockWeights{
			Separate: 1.4 * social,
			Align:    0.8 * social,
			Cohere:   0.6 * social,
		}
		force = force.Add(Flock(st.Pos, st.Vel, kin, w, st.Traits[genome.TraitSize]*4, maxSpeed, maxForce).Scale(0.6))
	}

	if !busy {
		force = force.Add(wanderTerm(st, out, ctx, maxForce))
	}

	return force
}

// predatorSteer: pursue the nearest valid prey, wander when nothing is in
// range. Prey eligibility is the fixed per-predator-type table.
func predatorSteer(st *CreatureState, s *Sense, out *[neural.NumOutputs]float32, tc *config.TypeConfig, maxSpeed, maxForce float32, ctx *BehaviorContext) components.Vec3 {
	if s.Prey == nil {
		return wanderTerm(st, out, ctx, maxForce)
	}
	return Pursue(st.Pos, st.Vel, s.Prey.Pos, s.Prey.Vel, maxSpeed, maxForce)
}

// scavengerSteer: head for the nearest carcass, stay clear of live
// predators, wander when the field is bare.
func scavengerSteer(st *CreatureState, s *Sense, out *[neural.NumOutputs]float32, tc *config.TypeConfig, maxSpeed, maxForce float32, ctx *BehaviorContext) components.Vec3 {
	var force components.Vec3
	if s.HasCarcass {
		force = Arrive(st.Pos, st.Vel, s.Carcass.Pos, maxSpeed, maxForce, 8)
	} else {
		force = wanderTerm(st, out, ctx, maxForce)
	}
	if s.Threat != nil {
		force = force.Add(fleeTerm(st, s, out, tc, maxSpeed, maxForce))
	}
	return force
}

// fleeTerm evades the nearest threat with urgency proportional to inverse
// distance, scaled by the controller's flee output.
func fleeTerm(st *CreatureState, s *Sense, out *[neural.NumOutputs]float32, tc *config.TypeConfig, maxSpeed, maxForce float32) components.Vec3 {
	dist := float32(math.Sqrt(float64(s.Threat.DistSq)))
	if dist <= 0.001 {
		dist = 0.001
	}
	urgency := clampF(float32(tc.FleeDistance)/dist, 0, 3) * (0.5 + out[neural.OutFlee])
	return Evade(st.Pos, st.Vel, s.Threat.Pos, s.Threat.Vel, maxSpeed, maxForce).Scale(urgency)
}

// wanderTerm is deterministic exploration, steered by the controller's
// turn output.
func wanderTerm(st *CreatureState, out *[neural.NumOutputs]float32, ctx *BehaviorContext, maxForce float32) components.Vec3 {
	phase := st.WanderPhase + (2*out[neural.OutTurn] - 1)
	return Wander(phase, ctx.Tick, ctx.DT, maxForce)
}

// verticalPreference pulls aquatic/flying creatures toward their
// genome-preferred depth/altitude, blended by the vertical output.
func verticalPreference(st *CreatureState, ctx *BehaviorContext, out *[neural.NumOutputs]float32, maxForce float32) components.Vec3 {
	pref := st.Traits[genome.TraitPreferredHeight]

	var targetY float32
	if st.Type == traits.Aquatic {
		// Preferred depth below the water surface.
		targetY = ctx.WaterLevel - pref
		floor := float32(0)
		if ctx.Terrain != nil {
			floor = ctx.Terrain.HeightAt(st.Pos.X, st.Pos.Z)
		}
		if targetY < floor+groundClearance {
			targetY = floor + groundClearance
		}
	} else {
		// Preferred altitude above the terrain.
		ground := float32(0)
		if ctx.Terrain != nil {
			ground = ctx.Terrain.HeightAt(st.Pos.X, st.Pos.Z)
		}
		targetY = ground + pref
		if targetY > ctx.WorldHeight-groundClearance {
			targetY = ctx.WorldHeight - groundClearance
		}
	}

	dy := targetY - st.Pos.Y
	strength := (0.3 + 0.7*out[neural.OutVertical]) * maxForce * 0.5
	return components.Vec3{Y: clampF(dy*0.2, -1, 1) * strength}
}

// safetyOverride returns an emergency correction when a creature with a
// free vertical axis violates its terrain/surface boundary. When
// triggered it dominates all other steering for the tick.
func safetyOverride(st *CreatureState, ctx *BehaviorContext, maxForce float32) (components.Vec3, bool) {
	if !traits.IsAquatic(st.Type) && !traits.IsAirborne(st.Type) {
		return components.Vec3{}, false
	}

	ground := float32(0)
	if ctx.Terrain != nil {
		ground = ctx.Terrain.HeightAt(st.Pos.X, st.Pos.Z)
	}

	if st.Pos.Y < ground+groundClearance {
		return components.Vec3{Y: maxForce}, true
	}

	if traits.IsAquatic(st.Type) && st.Pos.Y > ctx.WaterLevel-0.5 {
		// Swimmers must not break the surface.
		return components.Vec3{Y: -maxForce}, true
	}
	if traits.IsAirborne(st.Type) && st.Pos.Y > ctx.WorldHeight-groundClearance {
		return components.Vec3{Y: -maxForce}, true
	}

	return components.Vec3{}, false
}

// edgeAvoid pushes creatures away from the world's X/Z boundaries.
func edgeAvoid(pos components.Vec3, ctx *BehaviorContext, maxForce float32) components.Vec3 {
	const margin = 20.0
	w := ctx.Cfg.Derived.WorldW32
	d := ctx.Cfg.Derived.WorldD32

	var force components.Vec3
	if pos.X < margin {
		force.X = maxForce * (1 - pos.X/margin)
	} else if pos.X > w-margin {
		force.X = -maxForce * (1 - (w-pos.X)/margin)
	}
	if pos.Z < margin {
		force.Z = maxForce * (1 - pos.Z/margin)
	} else if pos.Z > d-margin {
		force.Z = -maxForce * (1 - (d-pos.Z)/margin)
	}
	return force
}

// sameTypeNeighbors filters the neighbor list down to flocking kin.
// Reuses a small stack allocation per call.
func sameTypeNeighbors(st *CreatureState, neighbors []Neighbor) []Neighbor {
	kin := make([]Neighbor, 0, 16)
	for i := range neighbors {
		if neighbors[i].Type == st.Type {
			kin = append(kin, neighbors[i])
			if len(kin) == cap(kin) {
				break
			}
		}
	}
	return kin
}

func energyFrac(st *CreatureState) float32 {
	if st.MaxEnergy <= 0 {
		return 0
	}
	return st.Energy / st.MaxEnergy
}
