package telemetry

import "log/slog"

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	TotalPopulation int `csv:"population"`
	Prey            int `csv:"prey"`
	Predators       int `csv:"predators"`
	SpeciesCount    int `csv:"species"`

	Births           int `csv:"births"`
	Deaths           int `csv:"deaths"`
	Starvations      int `csv:"starvations"`
	Predations       int `csv:"predations"`
	Kills            int `csv:"kills"`
	ReproRefusals    int `csv:"repro_refusals"`
	StabilizerSpawns int `csv:"stabilizer_spawns"`
	GridDrops        int `csv:"grid_drops"`

	MeanEnergy   float64 `csv:"mean_energy"`
	SizeVariance float64 `csv:"size_variance"`

	// Health is the bounded [0,1] ecosystem health score.
	Health float64 `csv:"health"`
}

// LogValue implements slog.LogValuer for compact structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.TotalPopulation),
		slog.Int("prey", s.Prey),
		slog.Int("predators", s.Predators),
		slog.Int("species", s.SpeciesCount),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("kills", s.Kills),
		slog.Float64("mean_energy", s.MeanEnergy),
		slog.Float64("health", s.Health),
	)
}
