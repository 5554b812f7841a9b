package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wildfen/ecosim/config"
	"github.com/wildfen/ecosim/food"
	"github.com/wildfen/ecosim/persistence"
	"github.com/wildfen/ecosim/sim"
	"github.com/wildfen/ecosim/telemetry"
	"github.com/wildfen/ecosim/terrain"
)

// newSetupRand seeds the one-shot RNG used for world setup (food spot
// placement). The simulation's own stream is independent.
func newSetupRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite snapshot database path (empty = no persistence)")
	resume := flag.Bool("resume", false, "Resume from the latest snapshot in the database")
	snapshotEvery := flag.Int("snapshot-every", 0, "Save a snapshot every N ticks (0 = never)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	tm := terrain.New(rngSeed, cfg)
	ff := food.New(cfg, tm, newSetupRand(rngSeed))

	s := sim.New(sim.Options{
		Config:  cfg,
		Terrain: tm,
		Food:    ff,
		Seed:    uint64(rngSeed),
	})
	defer s.Close()

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	var store *persistence.Store
	if *dbPath != "" {
		store, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open snapshot database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if *resume && store != nil {
		snap, err := store.LoadLatest("")
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		if snap != nil {
			if err := s.Restore(snap); err != nil {
				slog.Error("failed to restore snapshot", "error", err)
				os.Exit(1)
			}
			slog.Info("resumed", "tick", snap.Tick, "creatures", len(snap.Creatures))
		}
	}
	if s.Alive() == 0 {
		s.SpawnInitialPopulation()
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"population", humanize.Comma(int64(s.Alive())),
	)

	collector := s.Collector()
	start := time.Now()

	for {
		s.Step()

		if collector.ShouldFlush(s.Tick()) {
			stats := collector.Flush(s.Tick())
			slog.Info("window", "stats", stats)
			if err := out.WriteStats(stats); err != nil {
				slog.Error("failed to write telemetry", "error", err)
			}
		}

		if store != nil && *snapshotEvery > 0 && s.Tick()%int64(*snapshotEvery) == 0 {
			if err := store.SaveSnapshot(s.Snapshot()); err != nil {
				slog.Error("failed to save snapshot", "error", err)
			}
		}

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			elapsed := time.Since(start)
			slog.Info("max ticks reached",
				"tick", s.Tick(),
				"elapsed", elapsed.Round(time.Millisecond).String(),
				"ticks_per_sec", float64(s.Tick())/elapsed.Seconds(),
			)
			if store != nil {
				if err := store.SaveSnapshot(s.Snapshot()); err != nil {
					slog.Error("failed to save final snapshot", "error", err)
				}
			}
			return
		}
	}
}
