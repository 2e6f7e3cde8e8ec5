package dynamo

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestBody_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		body  Body
		valid bool
	}{
		{"zero", Body{Mass: 1}, true},
		{"normal", Body{Pos: r2.Vec{X: 1, Y: 2}, Vel: r2.Vec{X: -1}, Mass: 2}, true},
		{"NaN position", Body{Pos: r2.Vec{X: math.NaN()}, Mass: 1}, false},
		{"+Inf velocity", Body{Vel: r2.Vec{Y: math.Inf(1)}, Mass: 1}, false},
		{"zero mass", Body{}, false},
		{"negative mass", Body{Mass: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestBodies_KineticEnergyAndCentroid(t *testing.T) {
	bs := Bodies{
		{Pos: r2.Vec{X: 0, Y: 0}, Vel: r2.Vec{X: 3, Y: 4}, Mass: 1},
		{Pos: r2.Vec{X: 3, Y: 0}, Vel: r2.Vec{}, Mass: 2},
	}

	if got := bs.KineticEnergy(); math.Abs(got-12.5) > 1e-12 {
		t.Errorf("KineticEnergy() = %v, want 12.5", got)
	}

	c := bs.Centroid()
	if math.Abs(c.X-2) > 1e-12 || c.Y != 0 {
		t.Errorf("Centroid() = %v, want {2 0}", c)
	}

	clone := bs.Clone()
	clone[0].Pos.X = 99
	if bs[0].Pos.X == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestInverseLength(t *testing.T) {
	l := InverseLength(0.01)

	tests := []struct {
		w, want float64
	}{
		{0.5, 2},
		{1, 1},
		{0.01, 100},
		{0, 100},
		{-3, 100},
		{math.NaN(), 100},
	}

	for _, tt := range tests {
		if got := l(tt.w); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("InverseLength(0.01)(%v) = %v, want %v", tt.w, got, tt.want)
		}
	}

	if got := DefaultConfig().Length(0); got != 1/DefaultMinWeight {
		t.Errorf("default Length(0) = %v, want %v", got, 1/DefaultMinWeight)
	}
}

func TestLinearLength(t *testing.T) {
	l := LinearLength(0.01)

	tests := []struct {
		w, want float64
	}{
		{1, 1},
		{2, 1},
		{0.01, 100},
		{0, 100},
		{0.505, 50.5},
	}

	for _, tt := range tests {
		if got := l(tt.w); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("LinearLength(0.01)(%v) = %v, want %v", tt.w, got, tt.want)
		}
	}
	if LinearLength(1)(0.3) != 1 {
		t.Error("LinearLength(1) should be constant")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero time step", func(c *Config) { c.TimeStep = 0 }},
		{"drag above one", func(c *Config) { c.Drag = 1.5 }},
		{"zero drag", func(c *Config) { c.Drag = 0 }},
		{"theta too large", func(c *Config) { c.Theta = 2 }},
		{"negative theta", func(c *Config) { c.Theta = -0.1 }},
		{"zero min weight", func(c *Config) { c.MinWeight = 0 }},
		{"negative spring", func(c *Config) { c.SpringCoefficient = -1 }},
		{"NaN repulsion", func(c *Config) { c.Repulsion = math.NaN() }},
		{"zero min distance", func(c *Config) { c.MinDistance = 0 }},
		{"infinite min distance", func(c *Config) { c.MinDistance = math.Inf(1) }},
		{"NaN min distance", func(c *Config) { c.MinDistance = math.NaN() }},
		{"infinite step safety", func(c *Config) { c.StepSafety = math.Inf(1) }},
		{"negative step safety", func(c *Config) { c.StepSafety = -1 }},
		{"cooling of one", func(c *Config) { c.Cooling = 1 }},
		{"negative cooling", func(c *Config) { c.Cooling = -0.1 }},
		{"zero instability limit", func(c *Config) { c.InstabilityLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 12, Node: "a", Wrapped: ErrUnstable}
	if !errors.Is(err, ErrUnstable) {
		t.Error("SimulationError does not unwrap to ErrUnstable")
	}
	expected := `step 12 node "a": dynamo: simulation unstable (node diverged)`
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
