// Package food provides the bundled food field: a fixed set of regrowing
// food spots scattered over dry land, implementing the simulation's food
// collaborator contract.
package food

import (
	"math/rand"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/systems"
)

// spot is one food location.
type spot struct {
	pos      components.Vec3
	quantity float32
	max      float32
}

// Field is a set of regrowing food spots. Nearest is a pure read, safe
// for parallel workers; Consume and Tick mutate and must stay on the
// tick goroutine.
type Field struct {
	spots     []spot
	regenRate float32
}

// New scatters the configured number of spots over dry land. Spots in
// water columns are re-rolled a bounded number of times, then accepted
// anyway so sparse landmasses can't stall setup.
func New(cfg *config.Config, terrain systems.Terrain, rng *rand.Rand) *Field {
	f := &Field{
		spots:     make([]spot, cfg.Food.Count),
		regenRate: float32(cfg.Food.RegenRate),
	}

	for i := range f.spots {
		var x, z float32
		for attempt := 0; attempt < 16; attempt++ {
			x = rng.Float32() * cfg.Derived.WorldW32
			z = rng.Float32() * cfg.Derived.WorldD32
			if terrain == nil || !terrain.IsWater(x, z) {
				break
			}
		}

		y := float32(0)
		if terrain != nil {
			y = terrain.HeightAt(x, z)
		}
		f.spots[i] = spot{
			pos:      components.Vec3{X: x, Y: y, Z: z},
			quantity: float32(cfg.Food.Quantity),
			max:      float32(cfg.Food.Quantity),
		}
	}

	return f
}

// Nearest returns the closest non-empty spot within radius.
func (f *Field) Nearest(pos components.Vec3, radius float32) (systems.FoodTarget, bool) {
	radiusSq := radius * radius
	best := -1
	bestDist := float32(0)

	for i := range f.spots {
		if f.spots[i].quantity <= 0 {
			continue
		}
		d := components.DistSq(pos, f.spots[i].pos)
		if d > radiusSq {
			continue
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}

	if best < 0 {
		return systems.FoodTarget{}, false
	}
	return systems.FoodTarget{
		ID:       best,
		Pos:      f.spots[best].pos,
		Quantity: f.spots[best].quantity,
	}, true
}

// Consume removes up to amount from a spot and returns what was actually
// taken.
func (f *Field) Consume(id int, amount float32) float32 {
	if id < 0 || id >= len(f.spots) {
		return 0
	}
	s := &f.spots[id]
	if amount > s.quantity {
		amount = s.quantity
	}
	s.quantity -= amount
	return amount
}

// Tick regrows all spots toward their capacity.
func (f *Field) Tick(dt float32) {
	for i := range f.spots {
		s := &f.spots[i]
		if s.quantity < s.max {
			s.quantity += f.regenRate * dt
			if s.quantity > s.max {
				s.quantity = s.max
			}
		}
	}
}

// Total returns the summed quantity across all spots.
func (f *Field) Total() float32 {
	var sum float32
	for i := range f.spots {
		sum += f.spots[i].quantity
	}
	return sum
}
