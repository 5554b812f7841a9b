package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wildfen/ecosim/traits"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.World.Width <= 0 || cfg.World.Depth <= 0 || cfg.World.Height <= 0 {
		t.Error("world dimensions not positive")
	}
	if cfg.Physics.DT <= 0 {
		t.Error("dt not positive")
	}
	if cfg.Spatial.CellSize <= 0 || cfg.Spatial.CellCapacity <= 0 {
		t.Error("spatial grid parameters not positive")
	}

	// Every creature type must resolve to a usable table entry.
	for ct := traits.CreatureType(0); ct < traits.NumTypes; ct++ {
		tc := cfg.Type(ct)
		if tc.Name != ct.String() {
			t.Errorf("type %s: table name %q", ct, tc.Name)
		}
		if tc.MaxEnergy <= 0 {
			t.Errorf("type %s: max energy %g", ct, tc.MaxEnergy)
		}
		if tc.ReproThreshold <= 0 || tc.ReproThreshold > 1 {
			t.Errorf("type %s: repro threshold %g outside (0,1]", ct, tc.ReproThreshold)
		}
	}
}

func TestTypeIndexMapsConfiguredNames(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Derived.TypeIndex) != len(cfg.Types) {
		t.Fatalf("type index has %d entries, want %d", len(cfg.Derived.TypeIndex), len(cfg.Types))
	}
	for _, tc := range cfg.Types {
		ct, ok := traits.ParseType(tc.Name)
		if !ok {
			t.Fatalf("defaults carry unknown type %q", tc.Name)
		}
		if got, present := cfg.Derived.TypeIndex[tc.Name]; !present || got != uint8(ct) {
			t.Errorf("TypeIndex[%q] = %d, want %d", tc.Name, got, uint8(ct))
		}
	}
}

func TestLoadDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Derived.WorldW32 != float32(cfg.World.Width) {
		t.Error("WorldW32 does not mirror world width")
	}
	if cfg.Derived.DT32 != float32(cfg.Physics.DT) {
		t.Error("DT32 does not mirror dt")
	}
	if cfg.Derived.WaterLevel32 != float32(cfg.World.WaterLevel) {
		t.Error("WaterLevel32 does not mirror water level")
	}
}

func TestLoadOverlayMergesWithDefaults(t *testing.T) {
	path := writeTempConfig(t, `
world:
  width: 512
types:
  - name: grazer
    initial: 7
    max: 9
    max_energy: 55
    repro_threshold: 0.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading overlay: %v", err)
	}

	if cfg.World.Width != 512 {
		t.Errorf("width = %g, want overlay value 512", cfg.World.Width)
	}
	if cfg.World.Depth <= 0 {
		t.Error("depth lost its default under overlay")
	}

	g := cfg.Type(traits.Grazer)
	if g.Initial != 7 || g.Max != 9 || g.MaxEnergy != 55 {
		t.Errorf("grazer overlay not applied: %+v", g)
	}

	// Types the overlay does not name keep baseline entries.
	if cfg.Type(traits.Cleaner).MaxEnergy <= 0 {
		t.Error("cleaner lost its table entry under overlay")
	}
}

func TestLoadRejectsUnknownType(t *testing.T) {
	path := writeTempConfig(t, `
types:
  - name: dragon
    initial: 5
`)
	if _, err := Load(path); err == nil {
		t.Fatal("unknown creature type accepted")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "world: [not, a, mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.World.Width = 777

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if back.World.Width != 777 {
		t.Errorf("width = %g after round trip, want 777", back.World.Width)
	}
}
