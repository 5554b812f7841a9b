package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/wildfen/ecosim/telemetry"
	"github.com/wildfen/ecosim/traits"
)

// Command surface for hosts (CLI, UI, scripting). All commands run
// between ticks on the caller's goroutine; the simulation is not safe
// for concurrent mutation.

// Spawn injects count fresh random creatures of the given type. The
// population cap applies: requests past it are quietly dropped, and the
// number actually spawned is returned.
func (s *Simulation) Spawn(t traits.CreatureType, count int) int {
	tc := s.cfg.Type(t)
	spawned := 0
	for i := 0; i < count; i++ {
		if tc.Max > 0 && s.counts[t] >= tc.Max {
			break
		}
		s.spawnRandom(t)
		spawned++
	}
	slog.Info("command_spawn", "type", t.String(), "requested", count, "spawned", spawned)
	return spawned
}

// KillAll removes every live creature, leaving carcasses behind so the
// scavenger loop sees a mass die-off rather than a vanishing. Returns the
// number killed.
func (s *Simulation) KillAll() int {
	killed := 0
	query := s.creatureFilter.Query()
	for query.Next() {
		_, _, cr, _, _ := query.Get()
		if cr.Alive {
			cr.Alive = false
			cr.Energy = 0
			s.collector.RecordDeath(cr.Type, telemetry.CauseCommand)
			killed++
		}
	}

	s.updateDeaths()
	slog.Info("command_kill_all", "killed", killed)
	return killed
}

// SetPopulationBounds overrides one type's population floor and cap at
// runtime. The stabilizer and the reproduction gate pick the new bounds
// up on the next tick.
func (s *Simulation) SetPopulationBounds(t traits.CreatureType, min, max int) {
	tc := &s.cfg.Derived.ByType[t]
	tc.Min = min
	tc.Max = max
	slog.Info("command_set_bounds", "type", t.String(), "min", min, "max", max)
}

// removeAllEntities clears the world completely, carcasses included.
// Used by Restore; not part of the public command surface.
func (s *Simulation) removeAllEntities() {
	var entities []ecs.Entity

	query := s.creatureFilter.Query()
	for query.Next() {
		entities = append(entities, query.Entity())
	}
	for _, e := range entities {
		s.creatureMapper.Remove(e)
	}

	entities = entities[:0]
	cq := s.carcassFilter.Query()
	for cq.Next() {
		entities = append(entities, cq.Entity())
	}
	for _, e := range entities {
		s.carcassMapper.Remove(e)
	}

	s.alive = 0
	s.counts = [traits.NumTypes]int{}
}
