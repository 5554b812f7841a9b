// Package systems provides the spatial index, steering primitives,
// sensors, and per-type behavior strategies of the simulation core.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/traits"
)

// Neighbor holds a nearby entity with precomputed spatial data, avoiding
// position lookups and distance recomputation in the behavior hot path.
type Neighbor struct {
	E      ecs.Entity
	Pos    components.Vec3
	Vel    components.Vec3
	Type   traits.CreatureType
	DistSq float32
}

// gridEntry is one cell slot. Position, velocity, and type are copied at
// insert time so queries never touch ECS storage, which keeps the grid
// safe for read-only use from parallel workers.
type gridEntry struct {
	E    ecs.Entity
	Pos  components.Vec3
	Vel  components.Vec3
	Type traits.CreatureType
}

// MaxQueryResults caps the number of neighbors returned by spatial
// queries, so density spikes cannot cause unbounded work.
const MaxQueryResults = 128

// SpatialGrid is a 3D spatial hash over a bounded world, giving near-O(1)
// radius queries. It is rebuilt from scratch every tick; entries are
// non-owning references that never outlive the tick.
type SpatialGrid struct {
	cellSize float32
	cols     int // X cells
	rows     int // Z cells
	layers   int // Y cells
	capacity int

	cells [][]gridEntry

	// scratch backs Query/QueryByType results; the returned slice is
	// valid until the next query call on this grid.
	scratch []Neighbor

	dropped int // inserts discarded by full cells this rebuild
}

// NewSpatialGrid creates a grid covering a world of the given extents.
// cellCapacity bounds entries per cell; inserts beyond it are dropped
// (degraded queries, not an error).
func NewSpatialGrid(width, height, depth, cellSize float32, cellCapacity int) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(depth/cellSize) + 1
	layers := int(height/cellSize) + 1

	cells := make([][]gridEntry, cols*rows*layers)
	for i := range cells {
		cells[i] = make([]gridEntry, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		layers:   layers,
		capacity: cellCapacity,
		cells:    cells,
		scratch:  make([]Neighbor, 0, MaxQueryResults),
	}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.dropped = 0
}

// Insert adds an entity at the given position. Returns false when the
// target cell is at capacity and the entry was dropped.
func (g *SpatialGrid) Insert(e ecs.Entity, pos, vel components.Vec3, t traits.CreatureType) bool {
	idx := g.cellIndex(pos)
	if len(g.cells[idx]) >= g.capacity {
		g.dropped++
		return false
	}
	g.cells[idx] = append(g.cells[idx], gridEntry{E: e, Pos: pos, Vel: vel, Type: t})
	return true
}

// Dropped reports how many inserts were discarded since the last Clear.
func (g *SpatialGrid) Dropped() int {
	return g.dropped
}

// Query returns all entries within radius of pos, exact-distance
// filtered. The result reuses the grid's scratch buffer: it is valid only
// until the next Query/QueryByType call.
func (g *SpatialGrid) Query(pos components.Vec3, radius float32, exclude ecs.Entity) []Neighbor {
	g.scratch = g.QueryInto(g.scratch[:0], pos, radius, exclude, traits.AllMask)
	return g.scratch
}

// QueryByType is Query with a type-tag filter applied before the distance
// check, for predator/prey scans.
func (g *SpatialGrid) QueryByType(pos components.Vec3, radius float32, exclude ecs.Entity, filter traits.Mask) []Neighbor {
	g.scratch = g.QueryInto(g.scratch[:0], pos, radius, exclude, filter)
	return g.scratch
}

// QueryInto appends matches to dst (up to MaxQueryResults) and returns the
// updated slice. Parallel workers pass their own dst to avoid sharing the
// grid scratch buffer.
func (g *SpatialGrid) QueryInto(dst []Neighbor, pos components.Vec3, radius float32, exclude ecs.Entity, filter traits.Mask) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1

	cx := g.clampCell(int(pos.X/g.cellSize), g.cols)
	cy := g.clampCell(int(pos.Y/g.cellSize), g.layers)
	cz := g.clampCell(int(pos.Z/g.cellSize), g.rows)

	radiusSq := radius * radius

	for dy := -cellRadius; dy <= cellRadius; dy++ {
		layer := cy + dy
		if layer < 0 || layer >= g.layers {
			continue
		}
		for dz := -cellRadius; dz <= cellRadius; dz++ {
			row := cz + dz
			if row < 0 || row >= g.rows {
				continue
			}
			for dx := -cellRadius; dx <= cellRadius; dx++ {
				col := cx + dx
				if col < 0 || col >= g.cols {
					continue
				}

				idx := (layer*g.rows+row)*g.cols + col
				for i := range g.cells[idx] {
					entry := &g.cells[idx][i]
					if entry.E == exclude || !filter.Has(entry.Type) {
						continue
					}

					distSq := components.DistSq(pos, entry.Pos)
					if distSq > radiusSq {
						continue
					}

					dst = append(dst, Neighbor{
						E:      entry.E,
						Pos:    entry.Pos,
						Vel:    entry.Vel,
						Type:   entry.Type,
						DistSq: distSq,
					})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// cellIndex returns the flat index for a world position, clamped to the
// grid bounds.
func (g *SpatialGrid) cellIndex(pos components.Vec3) int {
	col := g.clampCell(int(pos.X/g.cellSize), g.cols)
	layer := g.clampCell(int(pos.Y/g.cellSize), g.layers)
	row := g.clampCell(int(pos.Z/g.cellSize), g.rows)
	return (layer*g.rows+row)*g.cols + col
}

func (g *SpatialGrid) clampCell(c, n int) int {
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}
