package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/traits"
)

// testEntities hands out distinct live entity handles for grid tests.
func testEntities(t *testing.T, world *ecs.World, n int) []ecs.Entity {
	t.Helper()
	mapper := ecs.NewMap1[components.Position](world)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = mapper.NewEntity(&components.Position{})
	}
	return out
}

func TestGridQueryExactRadius(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, 3)
	g := NewSpatialGrid(200, 100, 200, 25, 64)

	center := components.Vec3{X: 100, Y: 10, Z: 100}
	near := components.Vec3{X: 105, Y: 10, Z: 100}
	far := components.Vec3{X: 150, Y: 10, Z: 100}

	g.Insert(ents[0], center, components.Vec3{}, traits.Grazer)
	g.Insert(ents[1], near, components.Vec3{}, traits.Grazer)
	g.Insert(ents[2], far, components.Vec3{}, traits.Grazer)

	results := g.Query(center, 10, ents[0])
	if len(results) != 1 {
		t.Fatalf("got %d neighbors, want 1", len(results))
	}
	if results[0].E != ents[1] {
		t.Error("wrong neighbor returned")
	}
	if results[0].DistSq != 25 {
		t.Errorf("DistSq = %g, want 25", results[0].DistSq)
	}
}

func TestGridQueryExcludesSelf(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, 1)
	g := NewSpatialGrid(100, 100, 100, 25, 64)

	pos := components.Vec3{X: 50, Y: 10, Z: 50}
	g.Insert(ents[0], pos, components.Vec3{}, traits.Grazer)

	if results := g.Query(pos, 50, ents[0]); len(results) != 0 {
		t.Errorf("query returned the excluded entity")
	}
}

func TestGridQueryByTypeFilter(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, 4)
	g := NewSpatialGrid(200, 100, 200, 25, 64)

	center := components.Vec3{X: 100, Y: 10, Z: 100}
	g.Insert(ents[0], components.Vec3{X: 102, Y: 10, Z: 100}, components.Vec3{}, traits.Grazer)
	g.Insert(ents[1], components.Vec3{X: 104, Y: 10, Z: 100}, components.Vec3{}, traits.ApexPredator)
	g.Insert(ents[2], components.Vec3{X: 106, Y: 10, Z: 100}, components.Vec3{}, traits.Grazer)

	results := g.QueryByType(center, 20, ents[3], traits.MaskOf(traits.Grazer))
	if len(results) != 2 {
		t.Fatalf("got %d grazers, want 2", len(results))
	}
	for _, n := range results {
		if n.Type != traits.Grazer {
			t.Errorf("type filter leaked %s", n.Type)
		}
	}
}

func TestGridCellCapacityDropsInserts(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, 10)
	g := NewSpatialGrid(100, 100, 100, 25, 4)

	pos := components.Vec3{X: 10, Y: 10, Z: 10}
	inserted := 0
	for _, e := range ents {
		if g.Insert(e, pos, components.Vec3{}, traits.Grazer) {
			inserted++
		}
	}

	if inserted != 4 {
		t.Errorf("inserted %d, want 4 (cell capacity)", inserted)
	}
	if g.Dropped() != 6 {
		t.Errorf("dropped %d, want 6", g.Dropped())
	}

	// Degraded, not broken: queries still return what fit.
	if results := g.Query(pos, 5, ecs.Entity{}); len(results) != 4 {
		t.Errorf("query returned %d, want 4", len(results))
	}
}

func TestGridClearResets(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, 2)
	g := NewSpatialGrid(100, 100, 100, 25, 1)

	pos := components.Vec3{X: 10, Y: 10, Z: 10}
	g.Insert(ents[0], pos, components.Vec3{}, traits.Grazer)
	g.Insert(ents[1], pos, components.Vec3{}, traits.Grazer)
	g.Clear()

	if g.Dropped() != 0 {
		t.Error("Clear did not reset drop counter")
	}
	if results := g.Query(pos, 50, ecs.Entity{}); len(results) != 0 {
		t.Error("entries survived Clear")
	}
}

func TestGridQueryCapsResults(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, MaxQueryResults*2)
	g := NewSpatialGrid(1000, 100, 1000, 25, 1024)
	rng := rand.New(rand.NewSource(42))

	center := components.Vec3{X: 500, Y: 10, Z: 500}
	for _, e := range ents {
		pos := components.Vec3{
			X: center.X + rng.Float32()*40 - 20,
			Y: 10,
			Z: center.Z + rng.Float32()*40 - 20,
		}
		g.Insert(e, pos, components.Vec3{}, traits.Grazer)
	}

	results := g.Query(center, 100, ecs.Entity{})
	if len(results) != MaxQueryResults {
		t.Errorf("got %d results, want cap %d", len(results), MaxQueryResults)
	}
}

func TestGridPositionsOutsideBoundsClamp(t *testing.T) {
	world := ecs.NewWorld()
	ents := testEntities(t, world, 2)
	g := NewSpatialGrid(100, 100, 100, 25, 64)

	// Positions outside the world must not panic and must stay findable.
	out := components.Vec3{X: -50, Y: 200, Z: 500}
	g.Insert(ents[0], out, components.Vec3{}, traits.Grazer)

	results := g.QueryInto(nil, out, 10, ents[1], traits.AllMask)
	if len(results) != 1 {
		t.Errorf("out-of-bounds entry not found, got %d results", len(results))
	}
}
