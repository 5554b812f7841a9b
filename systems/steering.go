package systems

import (
	"math"

	"github.com/wildfen/ecosim/components"
)

// Steering primitives. Each returns a force vector in the Reynolds style:
// desired velocity minus current velocity, limited to maxForce. All are
// pure functions, safe to call from parallel workers.

// Seek steers toward a target at full speed.
func Seek(pos, vel, target components.Vec3, maxSpeed, maxForce float32) components.Vec3 {
	desired := target.Sub(pos)
	if desired.LengthSq() == 0 {
		return components.Vec3{}
	}
	desired = desired.WithMagnitude(maxSpeed)
	return desired.Sub(vel).Limit(maxForce)
}

// Flee steers directly away from a threat at full speed.
func Flee(pos, vel, threat components.Vec3, maxSpeed, maxForce float32) components.Vec3 {
	desired := pos.Sub(threat)
	if desired.LengthSq() == 0 {
		return components.Vec3{}
	}
	desired = desired.WithMagnitude(maxSpeed)
	return desired.Sub(vel).Limit(maxForce)
}

// Arrive seeks with deceleration inside slowRadius, coming to rest at the
// target instead of orbiting it.
func Arrive(pos, vel, target components.Vec3, maxSpeed, maxForce, slowRadius float32) components.Vec3 {
	offset := target.Sub(pos)
	dist := offset.Length()
	if dist == 0 {
		return components.Vec3{}
	}

	speed := maxSpeed
	if dist < slowRadius {
		speed = maxSpeed * dist / slowRadius
	}
	desired := offset.WithMagnitude(speed)
	return desired.Sub(vel).Limit(maxForce)
}

// Pursue seeks a moving target's predicted position. Lead time scales
// with distance and shrinks as the pursuer closes in.
func Pursue(pos, vel, targetPos, targetVel components.Vec3, maxSpeed, maxForce float32) components.Vec3 {
	dist := targetPos.Sub(pos).Length()
	lead := dist / maxF(maxSpeed, 0.001)
	predicted := targetPos.Add(targetVel.Scale(lead))
	return Seek(pos, vel, predicted, maxSpeed, maxForce)
}

// Evade flees from a moving threat's predicted position.
func Evade(pos, vel, threatPos, threatVel components.Vec3, maxSpeed, maxForce float32) components.Vec3 {
	dist := threatPos.Sub(pos).Length()
	lead := dist / maxF(maxSpeed, 0.001)
	predicted := threatPos.Add(threatVel.Scale(lead))
	return Flee(pos, vel, predicted, maxSpeed, maxForce)
}

// Wander produces a smoothly drifting exploration force. It is a pure
// function of the creature's wander phase and the tick clock, so the
// parallel compute phase needs no RNG and stays reproducible.
func Wander(phase float32, tick int64, dt, maxForce float32) components.Vec3 {
	t := float32(tick) * dt
	yaw := float32(math.Pi) * (0.9*sinF(0.37*t+phase*17.0) + 0.6*sinF(0.131*t+phase*31.0))
	pitch := 0.35 * sinF(0.23*t+phase*11.0)

	dir := components.Vec3{
		X: cosF(yaw) * cosF(pitch),
		Y: sinF(pitch),
		Z: sinF(yaw) * cosF(pitch),
	}
	return dir.Scale(maxForce * 0.6)
}

// FlockWeights holds the independent weights of the three flocking terms.
type FlockWeights struct {
	Separate float32
	Align    float32
	Cohere   float32
}

// Separate steers away from neighbors that are too close, weighted by
// inverse distance.
func Separate(pos, vel components.Vec3, neighbors []Neighbor, radius, maxSpeed, maxForce float32) components.Vec3 {
	var sum components.Vec3
	count := 0
	radiusSq := radius * radius

	for i := range neighbors {
		n := &neighbors[i]
		if n.DistSq == 0 || n.DistSq > radiusSq {
			continue
		}
		away := pos.Sub(n.Pos)
		sum = sum.Add(away.Scale(1 / n.DistSq))
		count++
	}
	if count == 0 {
		return components.Vec3{}
	}

	desired := sum.WithMagnitude(maxSpeed)
	return desired.Sub(vel).Limit(maxForce)
}

// Align steers toward the average heading of neighbors.
func Align(vel components.Vec3, neighbors []Neighbor, maxSpeed, maxForce float32) components.Vec3 {
	var sum components.Vec3
	count := 0
	for i := range neighbors {
		sum = sum.Add(neighbors[i].Vel)
		count++
	}
	if count == 0 || sum.LengthSq() == 0 {
		return components.Vec3{}
	}

	desired := sum.WithMagnitude(maxSpeed)
	return desired.Sub(vel).Limit(maxForce)
}

// Cohere steers toward the centroid of neighbors.
func Cohere(pos, vel components.Vec3, neighbors []Neighbor, maxSpeed, maxForce float32) components.Vec3 {
	var sum components.Vec3
	count := 0
	for i := range neighbors {
		sum = sum.Add(neighbors[i].Pos)
		count++
	}
	if count == 0 {
		return components.Vec3{}
	}

	centroid := sum.Scale(1 / float32(count))
	return Seek(pos, vel, centroid, maxSpeed, maxForce)
}

// Flock composes separation, alignment, and cohesion with independent
// weights.
func Flock(pos, vel components.Vec3, neighbors []Neighbor, w FlockWeights, sepRadius, maxSpeed, maxForce float32) components.Vec3 {
	force := Separate(pos, vel, neighbors, sepRadius, maxSpeed, maxForce).Scale(w.Separate)
	force = force.Add(Align(vel, neighbors, maxSpeed, maxForce).Scale(w.Align))
	force = force.Add(Cohere(pos, vel, neighbors, maxSpeed, maxForce).Scale(w.Cohere))
	return force.Limit(maxForce)
}

func sinF(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

func cosF(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampF(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
