// Package config provides configuration loading and access for the
// simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wildfen/ecosim/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Spatial      SpatialConfig      `yaml:"spatial"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Energy       EnergyConfig       `yaml:"energy"`
	Food         FoodConfig         `yaml:"food"`
	Terrain      TerrainConfig      `yaml:"terrain"`
	Diploid      DiploidConfig      `yaml:"diploid"`
	Species      SpeciesConfig      `yaml:"species"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Types        []TypeConfig       `yaml:"types"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions. Y is the vertical axis.
type WorldConfig struct {
	Width      float64 `yaml:"width"`       // X extent in world units
	Depth      float64 `yaml:"depth"`       // Z extent in world units
	Height     float64 `yaml:"height"`      // ceiling of the air column
	WaterLevel float64 `yaml:"water_level"` // terrain below this is water surface
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // seconds per tick
}

// SpatialConfig holds spatial hash grid parameters.
type SpatialConfig struct {
	CellSize     float64 `yaml:"cell_size"`
	CellCapacity int     `yaml:"cell_capacity"` // inserts past this are dropped
}

// MutationConfig holds genome mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`     // per-trait mutation probability
	Strength float64 `yaml:"strength"` // perturbation scale
}

// EnergyConfig holds energy economics parameters.
type EnergyConfig struct {
	BaseCost        float64 `yaml:"base_cost"`        // drain per second per unit size
	MoveCost        float64 `yaml:"move_cost"`        // drain per second per squared speed fraction
	AttackTransfer  float64 `yaml:"attack_transfer"`  // fraction of victim energy gained on a kill
	ParasiteDrain   float64 `yaml:"parasite_drain"`   // host energy per second per attached parasite
	CarcassFraction float64 `yaml:"carcass_fraction"` // fraction of body energy left as carcass biomass
	CarcassDecay    float64 `yaml:"carcass_decay"`    // carcass biomass lost per second
	ScavengeRate    float64 `yaml:"scavenge_rate"`    // carcass biomass eaten per second
}

// FoodConfig holds food collaborator parameters (used by the bundled
// field implementation; the core only sees the interface).
type FoodConfig struct {
	Count     int     `yaml:"count"`      // number of food spots
	Quantity  float64 `yaml:"quantity"`   // starting quantity per spot
	RegenRate float64 `yaml:"regen_rate"` // quantity regrown per second
	EatRadius float64 `yaml:"eat_radius"` // feeding reach
	EatRate   float64 `yaml:"eat_rate"`   // quantity consumed per second
}

// TerrainConfig holds terrain generation parameters for the bundled
// opensimplex implementation.
type TerrainConfig struct {
	Scale       float64 `yaml:"scale"`        // base noise frequency
	Octaves     int     `yaml:"octaves"`      // FBM octaves
	HeightScale float64 `yaml:"height_scale"` // vertical amplitude
}

// DiploidConfig pins the diploid genome probabilities.
type DiploidConfig struct {
	Enabled         bool    `yaml:"enabled"`
	SinglePointProb float64 `yaml:"single_point_prob"`
	DoublePointProb float64 `yaml:"double_point_prob"`
	MarkInheritProb float64 `yaml:"mark_inherit_prob"` // 0 = per-kind table
}

// SpeciesConfig holds species clustering parameters.
type SpeciesConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	RecomputeTicks    int     `yaml:"recompute_ticks"`
}

// MetricsConfig holds ecosystem health scoring parameters.
type MetricsConfig struct {
	VarianceWindow     int     `yaml:"variance_window"`      // rolling window length in samples
	IdealPredatorRatio float64 `yaml:"ideal_predator_ratio"` // target predator:prey ratio
	DiversityTarget    int     `yaml:"diversity_target"`     // species count treated as full diversity
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindowTicks int `yaml:"stats_window_ticks"`
}

// TypeConfig is the per-creature-type table: population bounds,
// reproduction gating, and lifespan. Names must match traits type names.
type TypeConfig struct {
	Name string `yaml:"name"`

	Initial int `yaml:"initial"`
	Min     int `yaml:"min"` // stabilizer spawns up to this
	Max     int `yaml:"max"` // reproduction refused beyond this

	ReproThreshold float64 `yaml:"repro_threshold"` // energy fraction required
	ReproCost      float64 `yaml:"repro_cost"`      // energy fraction paid by parent
	ReproCooldown  float64 `yaml:"repro_cooldown"`  // seconds between offspring
	MaturityAge    float64 `yaml:"maturity_age"`
	MaxAge         float64 `yaml:"max_age"`
	MinKills       int     `yaml:"min_kills"` // predators must earn this before breeding

	MaxEnergy     float64 `yaml:"max_energy"`
	FleeDistance  float64 `yaml:"flee_distance"`  // threat distance that triggers flee
	FoodThreshold float64 `yaml:"food_threshold"` // seek food below this energy fraction
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32
	WorldW32     float32
	WorldD32     float32
	WorldH32     float32
	WaterLevel32 float32
	TypeIndex    map[string]uint8
	// ByType is the per-type table indexed by traits.CreatureType, with
	// defaults filled for types absent from the YAML list.
	ByType [traits.NumTypes]TypeConfig
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldD32 = float32(c.World.Depth)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.WaterLevel32 = float32(c.World.WaterLevel)

	// Baseline for types the YAML list omits.
	base := TypeConfig{
		Min:            0,
		Max:            200,
		ReproThreshold: 0.7,
		ReproCost:      0.35,
		ReproCooldown:  20,
		MaturityAge:    15,
		MaxAge:         300,
		MaxEnergy:      100,
		FleeDistance:   40,
		FoodThreshold:  0.8,
	}
	for t := traits.CreatureType(0); t < traits.NumTypes; t++ {
		tc := base
		tc.Name = t.String()
		c.Derived.ByType[t] = tc
	}

	c.Derived.TypeIndex = make(map[string]uint8, len(c.Types))
	for _, tc := range c.Types {
		t, ok := traits.ParseType(tc.Name)
		if !ok {
			return fmt.Errorf("config: unknown creature type %q", tc.Name)
		}
		c.Derived.TypeIndex[tc.Name] = uint8(t)
		c.Derived.ByType[t] = tc
	}

	return nil
}

// Type returns the per-type table entry.
func (c *Config) Type(t traits.CreatureType) *TypeConfig {
	return &c.Derived.ByType[t]
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
