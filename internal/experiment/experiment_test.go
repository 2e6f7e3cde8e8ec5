package experiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/geojson"
	"github.com/san-kum/springlayout/internal/graph"
)

const table = `[
  {"artist": "Adele", "similar_artists": [
    {"name": "Duffy", "similarity": 0.9},
    {"name": "Amy Winehouse", "similarity": 0.6},
    {"name": "Adele", "similarity": 1.0}
  ]},
  {"artist": "Duffy", "similar_artists": [
    {"name": "Adele", "similarity": 0.8},
    {"name": "Noise", "similarity": 0.05}
  ]}
]`

func writeInput(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "similar.json")
	if err := os.WriteFile(in, []byte(table), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Input = in
	cfg.Output = filepath.Join(dir, "layout.geojson")
	cfg.Iterations = 50
	return cfg, dir
}

type stepCounter struct{ n int }

func (c *stepCounter) OnStep(dynamo.Bodies, dynamo.StepStats) { c.n++ }

func TestExperimentEndToEnd(t *testing.T) {
	cfg, _ := writeInput(t)
	counter := &stepCounter{}
	exp := New(cfg, WithObserver(counter))

	if err := exp.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	stats := exp.Stats()
	if stats.Nodes != 3 || stats.Links != 2 || stats.Filtered != 1 || stats.Skipped != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if l, ok := exp.Graph().Link("Adele", "Duffy"); !ok || l.Weight != 0.9 {
		t.Errorf("max merge not applied: %+v", l)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Steps != 50 || counter.n != 50 {
		t.Errorf("steps = %d, observed %d", res.Steps, counter.n)
	}
	for _, name := range NewRegistry().ListMetrics() {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}

	if err := exp.WriteOutput(res); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	fc, err := geojson.Read(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	ids, pos := fc.Positions()
	want := []string{"Adele", "Duffy", "Amy Winehouse"}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("feature %d = %s, want %s", i, ids[i], id)
		}
		if pos[id] != res.Positions[id] {
			t.Errorf("%s written as %v, result %v", id, pos[id], res.Positions[id])
		}
	}
}

func TestExperimentNotSetup(t *testing.T) {
	exp := New(config.DefaultConfig())
	if _, err := exp.Run(context.Background()); !errors.Is(err, ErrNotSetup) {
		t.Errorf("expected ErrNotSetup, got %v", err)
	}
}

func TestExperimentRejects(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := New(cfg).Setup(); !errors.Is(err, dynamo.ErrInvalidGraph) {
		t.Errorf("missing input: got %v", err)
	}

	cfg.Input = filepath.Join(t.TempDir(), "absent.json")
	if err := New(cfg).Setup(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("absent input: got %v", err)
	}

	cfg, _ = writeInput(t)
	cfg.Physics.Drag = 0
	if err := New(cfg).Setup(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("bad drag: got %v", err)
	}
}

func TestExperimentUntilConverged(t *testing.T) {
	g := graph.New()
	g.AddLink("a", "b", 0.5)

	cfg := config.DefaultConfig()
	cfg.Iterations = 20000
	cfg.UntilConverged = true
	exp := New(cfg, WithMetrics())
	if err := exp.SetupGraph(g); err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged || res.Steps != res.ConvergedAt || res.Steps >= cfg.Iterations {
		t.Errorf("expected early stop at convergence, got steps=%d converged_at=%d", res.Steps, res.ConvergedAt)
	}
	if len(res.Metrics) != 0 {
		t.Errorf("metrics attached despite empty override: %v", res.Metrics)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetMetric("nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := r.GetObjective("nope"); err == nil {
		t.Error("expected error for unknown objective")
	}
	m, err := r.GetMetric("stability")
	if err != nil || m.Name() != "stability" {
		t.Errorf("GetMetric(stability) = %v, %v", m, err)
	}
	if len(r.DefaultMetrics()) != len(r.ListMetrics()) {
		t.Error("default metrics do not cover the registry")
	}

	g := graph.New()
	g.AddLink("a", "b", 0.5)
	exp := New(config.DefaultConfig())
	if err := exp.SetupGraph(g); err != nil {
		t.Fatal(err)
	}
	res, _ := exp.Run(context.Background())
	for _, name := range r.ListObjectives() {
		obj, _ := r.GetObjective(name)
		if v := obj(exp.Simulator(), res); v < 0 {
			t.Errorf("objective %s = %v", name, v)
		}
	}
}
