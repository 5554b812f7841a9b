package terrain

import (
	"testing"

	"github.com/wildfen/ecosim/config"
)

func testMap(t *testing.T, seed int64) (*Map, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return New(seed, cfg), cfg
}

func TestHeightDeterministicPerSeed(t *testing.T) {
	a, _ := testMap(t, 42)
	b, _ := testMap(t, 42)
	c, _ := testMap(t, 43)

	diverged := false
	for x := float32(0); x < 1000; x += 137 {
		for z := float32(0); z < 1000; z += 91 {
			if a.HeightAt(x, z) != b.HeightAt(x, z) {
				t.Fatalf("same seed differs at (%g, %g)", x, z)
			}
			if a.HeightAt(x, z) != c.HeightAt(x, z) {
				diverged = true
			}
		}
	}
	if !diverged {
		t.Error("different seeds produced identical terrain")
	}
}

func TestHeightBounded(t *testing.T) {
	m, cfg := testMap(t, 7)
	limit := float32(cfg.Terrain.HeightScale)

	for x := float32(0); x < 1000; x += 53 {
		for z := float32(0); z < 1000; z += 47 {
			h := m.HeightAt(x, z)
			if h < 0 || h > limit {
				t.Fatalf("height %g at (%g, %g) outside [0, %g]", h, x, z, limit)
			}
		}
	}
}

func TestIsWaterConsistentWithHeight(t *testing.T) {
	m, cfg := testMap(t, 11)
	level := cfg.Derived.WaterLevel32

	for x := float32(0); x < 1000; x += 53 {
		for z := float32(0); z < 1000; z += 47 {
			want := m.HeightAt(x, z) < level
			if m.IsWater(x, z) != want {
				t.Fatalf("IsWater disagrees with height at (%g, %g)", x, z)
			}
		}
	}
}

func TestHeightVaries(t *testing.T) {
	m, _ := testMap(t, 3)

	first := m.HeightAt(0, 0)
	for x := float32(0); x < 1000; x += 37 {
		if m.HeightAt(x, x) != first {
			return
		}
	}
	t.Error("terrain is flat across the whole world")
}
