// Package terrain provides the bundled heightmap implementation of the
// simulation's terrain interface, built on layered opensimplex noise.
package terrain

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/wildfen/ecosim/config"
)

// Map is an immutable procedural heightmap. All methods are pure reads,
// safe for concurrent use from parallel workers.
type Map struct {
	noise       opensimplex.Noise
	scale       float64
	octaves     int
	heightScale float64
	waterLevel  float32
}

// New builds a terrain map from a seed and the configured noise
// parameters.
func New(seed int64, cfg *config.Config) *Map {
	octaves := cfg.Terrain.Octaves
	if octaves < 1 {
		octaves = 1
	}
	return &Map{
		noise:       opensimplex.New(seed),
		scale:       cfg.Terrain.Scale,
		octaves:     octaves,
		heightScale: cfg.Terrain.HeightScale,
		waterLevel:  cfg.Derived.WaterLevel32,
	}
}

// HeightAt returns the terrain height at a world X/Z coordinate.
// Fractional Brownian motion: each octave doubles frequency and halves
// amplitude.
func (m *Map) HeightAt(x, z float32) float32 {
	fx := float64(x) * m.scale
	fz := float64(z) * m.scale

	sum := 0.0
	amp := 1.0
	norm := 0.0
	for o := 0; o < m.octaves; o++ {
		sum += m.noise.Eval2(fx, fz) * amp
		norm += amp
		fx *= 2
		fz *= 2
		amp *= 0.5
	}

	// Map [-1,1] noise to [0, heightScale].
	h := (sum/norm + 1) * 0.5 * m.heightScale
	return float32(h)
}

// IsWater reports whether the terrain at X/Z sits below the water level.
func (m *Map) IsWater(x, z float32) bool {
	return m.HeightAt(x, z) < m.waterLevel
}
