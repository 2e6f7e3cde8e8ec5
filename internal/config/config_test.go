package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/graph"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Iterations != DefaultIterations {
		t.Errorf("expected %d iterations, got %d", DefaultIterations, cfg.Iterations)
	}
	if cfg.Filter.MinSimilarity != 0.1 || cfg.Filter.MaxSimilarity != 1 {
		t.Errorf("unexpected filter %+v", cfg.Filter)
	}

	engine := cfg.Engine()
	want := dynamo.DefaultConfig()
	if engine.SpringCoefficient != want.SpringCoefficient || engine.Repulsion != want.Repulsion ||
		engine.TimeStep != want.TimeStep || engine.Theta != want.Theta || engine.Drag != want.Drag ||
		engine.StepSafety != want.StepSafety || engine.Cooling != want.Cooling {
		t.Errorf("engine config %+v does not match defaults %+v", engine, want)
	}
	if engine.SpringLength != nil {
		t.Error("inverse length should use the engine default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	data := []byte(`
input: artists.json
iterations: 250
merge: sum
physics:
  theta: 0.5
  spring_length: linear
  seed: 9
  step_safety: 0.5
  cooling: 0.02
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Input != "artists.json" || cfg.Iterations != 250 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Physics.Drag != dynamo.DefaultDrag {
		t.Errorf("omitted drag lost its default: %v", cfg.Physics.Drag)
	}
	if cfg.MergePolicy() != graph.MergeSum {
		t.Errorf("merge policy = %v, want sum", cfg.MergePolicy())
	}

	engine := cfg.Engine()
	if engine.Theta != 0.5 || engine.Seed != 9 || engine.StepSafety != 0.5 || engine.Cooling != 0.02 {
		t.Errorf("engine = %+v", engine)
	}
	if engine.SpringLength == nil || engine.Length(1) != 1 {
		t.Error("linear spring length not wired")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("iterations: [1, 2"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("precise")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip changed config:\n%+v\n%+v", loaded, cfg)
	}
}

func TestLoadRejectsInfiniteMinDistance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	data := []byte("physics:\n  min_distance: .inf\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative iterations", func(c *Config) { c.Iterations = -1 }},
		{"unknown merge", func(c *Config) { c.Merge = "union" }},
		{"inverted filter", func(c *Config) { c.Filter.MinSimilarity = 0.9; c.Filter.MaxSimilarity = 0.2 }},
		{"unknown length", func(c *Config) { c.Physics.SpringLength = "cubic" }},
		{"engine bounds", func(c *Config) { c.Physics.Drag = 2 }},
		{"full cooling", func(c *Config) { c.Physics.Cooling = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s listed but not found", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	orig := GetPreset("original")
	if orig.Physics.TimeStep != 20 || orig.Physics.MaxSpeed != 1 {
		t.Errorf("original preset = %+v", orig.Physics)
	}
	for _, name := range ListPresets() {
		if p := GetPreset(name).Physics; p.StepSafety <= 0 || p.Cooling <= 0 {
			t.Errorf("preset %s runs without step limit or cooling: %+v", name, p)
		}
	}
	orig.Iterations = 1
	if Presets["original"].Iterations == 1 {
		t.Error("GetPreset returned shared state")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	names := ListPresets()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetParam("theta", 0.4); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetParam("workers", 3.6); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetParam("cooling", 0.05); err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.Theta != 0.4 || cfg.Physics.Workers != 4 || cfg.Physics.Cooling != 0.05 {
		t.Errorf("params not applied: %+v", cfg.Physics)
	}

	if err := cfg.SetParam("warp", 1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	cfg.SetParam("drag", 2)
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range drag passed validation")
	}

	names := ParamNames()
	if len(names) != len(params) || names[0] != "centering" {
		t.Errorf("unexpected names %v", names)
	}
}
