// Package neural provides the fixed-topology feedforward controller that
// maps a creature's sensory inputs to action outputs. All weights and
// biases come from the owning creature's genome; the controller itself is
// stateless and pure.
package neural

import (
	"fmt"
	"math"
	"math/rand"
)

// Network dimensions (compile-time constants for array sizing). Changing
// the topology changes WeightCount, which must change in lockstep with the
// genome's weight-vector length across the whole population.
const (
	NumInputs  = 12
	NumHidden  = 10
	NumOutputs = 6
)

// WeightCount is the flattened length of all weights and biases:
// hidden weights + hidden biases + output weights + output biases.
const WeightCount = NumHidden*NumInputs + NumHidden + NumOutputs*NumHidden + NumOutputs

// Input vector indices. The input set is fixed regardless of creature
// type; sensors that don't apply to a type read as zero.
const (
	InFoodDist = iota // normalized distance to nearest food/prey target
	InFoodAngle
	InThreatDist // normalized distance to nearest threat
	InThreatAngle
	InAltDist // secondary target (kin, carcass, host)
	InAltAngle
	InEnergy
	InSpeed
	InTerrainHeight // terrain height under the creature, normalized
	InAltitude      // height above terrain / depth below surface
	InCrowding      // local neighbor density
	InBias          // constant 1
)

// Output vector indices, each in [0,1].
const (
	OutTurn     = iota // turn amount; consumers map to [-1,1] via 2x-1
	OutSpeed           // speed multiplier on the genome speed cap
	OutEat             // eat intention
	OutFlee            // flee urgency scale
	OutVertical        // vertical preference blend for aquatic/flying types
	OutSocial          // flocking weight scale
)

// Controller is a two-layer feedforward network: NumInputs -> tanh hidden
// layer -> sigmoid outputs. It holds no state across Forward calls.
type Controller struct {
	w1 [NumHidden][NumInputs]float32
	b1 [NumHidden]float32
	w2 [NumOutputs][NumHidden]float32
	b2 [NumOutputs]float32
}

// NewController unpacks a genome weight vector into a controller.
// A length mismatch is a fatal construction error: a partially-valid
// network is worse than none, so the caller must reject the creature.
func NewController(weights []float32) (*Controller, error) {
	if len(weights) != WeightCount {
		return nil, fmt.Errorf("neural: weight vector length %d, topology requires %d", len(weights), WeightCount)
	}

	c := &Controller{}
	k := 0
	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			c.w1[i][j] = weights[k]
			k++
		}
	}
	for i := 0; i < NumHidden; i++ {
		c.b1[i] = weights[k]
		k++
	}
	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			c.w2[i][j] = weights[k]
			k++
		}
	}
	for i := 0; i < NumOutputs; i++ {
		c.b2[i] = weights[k]
		k++
	}

	return c, nil
}

// Forward computes the output vector for one input vector. Deterministic
// given the same weights and inputs; no hidden memory across calls.
func (c *Controller) Forward(inputs *[NumInputs]float32) [NumOutputs]float32 {
	var hidden [NumHidden]float32
	for i := 0; i < NumHidden; i++ {
		sum := c.b1[i]
		for j := 0; j < NumInputs; j++ {
			sum += c.w1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var out [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := c.b2[i]
		for j := 0; j < NumHidden; j++ {
			sum += c.w2[i][j] * hidden[j]
		}
		out[i] = sigmoid(sum)
	}

	return out
}

// Activations holds captured layer values for inspection dashboards.
type Activations struct {
	Inputs  [NumInputs]float32
	Hidden  [NumHidden]float32
	Outputs [NumOutputs]float32
}

// ForwardWithCapture is Forward plus a copy of all layer activations.
// Used only on inspection paths, never in the tick hot loop.
func (c *Controller) ForwardWithCapture(inputs *[NumInputs]float32) ([NumOutputs]float32, *Activations) {
	act := &Activations{Inputs: *inputs}

	for i := 0; i < NumHidden; i++ {
		sum := c.b1[i]
		for j := 0; j < NumInputs; j++ {
			sum += c.w1[i][j] * inputs[j]
		}
		act.Hidden[i] = tanh(sum)
	}

	var out [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := c.b2[i]
		for j := 0; j < NumHidden; j++ {
			sum += c.w2[i][j] * act.Hidden[j]
		}
		out[i] = sigmoid(sum)
	}
	act.Outputs = out

	return out, act
}

// RandomWeights draws a Xavier-initialized weight vector of the correct
// length for the fixed topology.
func RandomWeights(rng *rand.Rand) []float32 {
	weights := make([]float32, WeightCount)
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(NumHidden)))

	k := 0
	for i := 0; i < NumHidden*NumInputs; i++ {
		weights[k] = float32(rng.NormFloat64()) * scale1
		k++
	}
	for i := 0; i < NumHidden; i++ {
		weights[k] = 0
		k++
	}
	for i := 0; i < NumOutputs*NumHidden; i++ {
		weights[k] = float32(rng.NormFloat64()) * scale2
		k++
	}
	for i := 0; i < NumOutputs; i++ {
		weights[k] = 0
		k++
	}

	return weights
}

// tanh uses a fast rational approximation avoiding float64 conversion.
// The rational form hits exactly 1 at |x| = 3 and overshoots beyond it,
// so the cutoff sits at 3; the final clamp absorbs rounding just inside
// the cutoff, keeping the range strictly within [-1, 1].
func tanh(x float32) float32 {
	if x >= 3 {
		return 1
	}
	if x <= -3 {
		return -1
	}
	x2 := x * x
	r := x * (27 + x2) / (27 + 9*x2)
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// sigmoid maps to (0,1) via the tanh approximation.
func sigmoid(x float32) float32 {
	return 0.5 * (tanh(0.5*x) + 1)
}
