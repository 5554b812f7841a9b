package sim

import (
	"runtime"
	"sync"

	"github.com/wildfen/ecosim/components"
	"github.com/wildfen/ecosim/genome"
	"github.com/wildfen/ecosim/neural"
	"github.com/wildfen/ecosim/systems"
	"github.com/wildfen/ecosim/traits"
)

// parallelThreshold is the minimum creature count to use parallel
// processing. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// intent captures one creature's computed movement and feeding intention,
// applied after the parallel phase.
type intent struct {
	NewPos components.Vec3
	NewVel components.Vec3
	Eat    float32
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []systems.Neighbor
	Inputs    [neural.NumInputs]float32
}

// workChunk is a range of snapshot indices for one worker.
type workChunk struct {
	start, end int
}

// parallelState holds resources for the snapshot/compute/commit cycle.
type parallelState struct {
	snapshots  []systems.CreatureState
	intents    []intent
	scratches  []workerScratch
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState() *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]systems.Neighbor, 0, systems.MaxQueryResults)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]systems.CreatureState, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker(s *Simulation, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// updateBehavior runs the snapshot/compute/commit cycle for one tick.
// Phase A snapshots live creatures single-threaded; phase B computes
// intents read-only (parallel above the threshold); phase C writes the
// intents back single-threaded, which keeps iteration order and thus the
// whole tick deterministic.
func (s *Simulation) updateBehavior() {
	// Phase A: snapshots.
	s.parallel.snapshots = s.parallel.snapshots[:0]

	query := s.creatureFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, cr, gen, brain := query.Get()

		if !cr.Alive {
			continue
		}

		st := systems.CreatureState{
			E:            entity,
			ID:           cr.ID,
			Type:         cr.Type,
			Pos:          pos.Vec3,
			Vel:          vel.Vec3,
			Energy:       cr.Energy,
			MaxEnergy:    cr.MaxEnergy,
			Age:          cr.Age,
			WanderPhase:  cr.WanderPhase,
			ParasiteLoad: cr.ParasiteLoad,
			Traits:       gen.G.Traits,
			Brain:        brain.Net,
		}
		s.parallel.snapshots = append(s.parallel.snapshots, st)
	}

	n := len(s.parallel.snapshots)
	if n == 0 {
		return
	}

	if cap(s.parallel.intents) < n {
		s.parallel.intents = make([]intent, n)
	}
	s.parallel.intents = s.parallel.intents[:n]

	// Phase B: compute.
	if n < parallelThreshold {
		s.computeChunk(0, n, &s.parallel.scratches[0])
	} else {
		s.computeParallel(n)
	}

	// Phase C: commit.
	s.applyIntents()
}

// computeParallel dispatches chunks to the worker pool and waits.
func (s *Simulation) computeParallel(n int) {
	if !s.parallel.running {
		s.parallel.startWorkers(s)
	}

	numWorkers := s.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	dispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		s.parallel.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-s.parallel.doneChan
	}
}

// computeChunk processes a snapshot range. Touches only the snapshot
// slice, the rebuilt grid, and read-only collaborators; no ECS access,
// no RNG.
func (s *Simulation) computeChunk(i0, i1 int, scratch *workerScratch) {
	cfg := s.cfg
	dt := cfg.Derived.DT32
	ctx := systems.BehaviorContext{
		Cfg:         cfg,
		Terrain:     s.terrain,
		Tick:        s.tick,
		DT:          dt,
		WaterLevel:  cfg.Derived.WaterLevel32,
		WorldHeight: cfg.Derived.WorldH32,
	}

	for i := i0; i < i1; i++ {
		snap := &s.parallel.snapshots[i]
		it := &s.parallel.intents[i]

		vision := snap.Traits[genome.TraitVisionRange]
		scratch.Neighbors = s.grid.QueryInto(
			scratch.Neighbors[:0], snap.Pos, vision, snap.E, traits.AllMask,
		)

		sense := systems.ComputeSense(snap, scratch.Neighbors, s.food, s.carcassSnap)
		scratch.Inputs = systems.BuildInputs(snap, &sense, s.terrain, ctx.WorldHeight)
		out := snap.Brain.Forward(&scratch.Inputs)

		force := systems.SteerCreature(snap, &sense, scratch.Neighbors, &out, &ctx)

		// Integrate. The controller's speed output scales the genome's
		// speed cap, so sprinting is a choice with a metabolic price.
		vel := snap.Vel.Add(force.Scale(dt))
		maxSpeed := snap.Traits[genome.TraitSpeed] * (0.2 + 0.8*out[neural.OutSpeed])
		vel = vel.Limit(maxSpeed)
		pos := snap.Pos.Add(vel.Scale(dt))

		pos, vel = s.confine(snap.Type, pos, vel)

		it.NewPos = pos
		it.NewVel = vel
		it.Eat = out[neural.OutEat]
	}
}

// confine clamps a position to the world bounds and resolves the
// vertical axis per locomotion class: ground types stay glued to the
// terrain surface, swimmers stay in the water column, flyers stay
// between terrain and ceiling.
func (s *Simulation) confine(t traits.CreatureType, pos, vel components.Vec3) (components.Vec3, components.Vec3) {
	cfg := s.cfg

	if pos.X < 0 {
		pos.X, vel.X = 0, 0
	} else if pos.X > cfg.Derived.WorldW32 {
		pos.X, vel.X = cfg.Derived.WorldW32, 0
	}
	if pos.Z < 0 {
		pos.Z, vel.Z = 0, 0
	} else if pos.Z > cfg.Derived.WorldD32 {
		pos.Z, vel.Z = cfg.Derived.WorldD32, 0
	}

	ground := float32(0)
	if s.terrain != nil {
		ground = s.terrain.HeightAt(pos.X, pos.Z)
	}

	switch {
	case traits.IsAquatic(t):
		if pos.Y < ground {
			pos.Y, vel.Y = ground, 0
		}
		if pos.Y > cfg.Derived.WaterLevel32 {
			pos.Y, vel.Y = cfg.Derived.WaterLevel32, 0
		}
	case traits.IsAirborne(t):
		if pos.Y < ground {
			pos.Y, vel.Y = ground, 0
		}
		if pos.Y > cfg.Derived.WorldH32 {
			pos.Y, vel.Y = cfg.Derived.WorldH32, 0
		}
	default:
		pos.Y, vel.Y = ground, 0
	}

	return pos, vel
}

// applyIntents writes computed results back to ECS components.
func (s *Simulation) applyIntents() {
	for i := range s.parallel.snapshots {
		snap := &s.parallel.snapshots[i]
		it := &s.parallel.intents[i]

		pos := s.posMap.Get(snap.E)
		vel := s.velMap.Get(snap.E)
		cr := s.creatMap.Get(snap.E)
		if pos == nil || vel == nil || cr == nil {
			continue
		}

		pos.Vec3 = it.NewPos
		vel.Vec3 = it.NewVel
		cr.LastEat = it.Eat
	}
}
