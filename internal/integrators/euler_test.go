package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/springlayout/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSemiImplicitEuler_Step(t *testing.T) {
	tests := []struct {
		name     string
		drag     float64
		maxSpeed float64
		safety   float64
		body     dynamo.Body
		dt       float64
		wantVel  r2.Vec
		wantPos  r2.Vec
	}{
		{
			name:    "force only",
			drag:    1,
			body:    dynamo.Body{Force: r2.Vec{X: 2}, Mass: 2},
			dt:      0.5,
			wantVel: r2.Vec{X: 0.5},
			wantPos: r2.Vec{X: 0.25},
		},
		{
			name:    "drag applied before move",
			drag:    0.5,
			body:    dynamo.Body{Vel: r2.Vec{Y: 4}, Mass: 1},
			dt:      1,
			wantVel: r2.Vec{Y: 2},
			wantPos: r2.Vec{Y: 2},
		},
		{
			name:     "speed clamp",
			drag:     1,
			maxSpeed: 1,
			body:     dynamo.Body{Pos: r2.Vec{X: 1}, Vel: r2.Vec{X: 3, Y: 4}, Mass: 1},
			dt:       2,
			wantVel:  r2.Vec{X: 0.6, Y: 0.8},
			wantPos:  r2.Vec{X: 2.2, Y: 1.6},
		},
		{
			name:    "stiff body takes a shorter step",
			drag:    1,
			safety:  1,
			body:    dynamo.Body{Force: r2.Vec{X: 4}, Mass: 1, Stiffness: 16},
			dt:      0.5,
			wantVel: r2.Vec{X: 1},
			wantPos: r2.Vec{X: 0.25},
		},
		{
			name:    "slack body keeps the full step",
			drag:    1,
			safety:  1,
			body:    dynamo.Body{Force: r2.Vec{X: 2}, Mass: 2, Stiffness: 0.5},
			dt:      0.5,
			wantVel: r2.Vec{X: 0.5},
			wantPos: r2.Vec{X: 0.25},
		},
		{
			name:    "stiffness ignored without a safety factor",
			drag:    1,
			body:    dynamo.Body{Force: r2.Vec{X: 2}, Mass: 2, Stiffness: 1e6},
			dt:      0.5,
			wantVel: r2.Vec{X: 0.5},
			wantPos: r2.Vec{X: 0.25},
		},
		{
			name:    "at rest",
			drag:    0.9,
			body:    dynamo.Body{Pos: r2.Vec{X: 7, Y: -7}, Mass: 3},
			dt:      0.5,
			wantPos: r2.Vec{X: 7, Y: -7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := dynamo.Bodies{tt.body}
			if reset := NewSemiImplicitEuler(tt.drag, tt.maxSpeed, tt.safety).Step(bodies, tt.dt); len(reset) != 0 {
				t.Fatalf("unexpected reset of %v", reset)
			}
			if r2.Norm(r2.Sub(bodies[0].Vel, tt.wantVel)) > 1e-12 {
				t.Errorf("vel = %v, want %v", bodies[0].Vel, tt.wantVel)
			}
			if r2.Norm(r2.Sub(bodies[0].Pos, tt.wantPos)) > 1e-12 {
				t.Errorf("pos = %v, want %v", bodies[0].Pos, tt.wantPos)
			}
		})
	}
}

func TestSemiImplicitEuler_NonFiniteRecovery(t *testing.T) {
	bodies := dynamo.Bodies{
		{ID: "ok", Pos: r2.Vec{X: 1}, Force: r2.Vec{X: 1}, Mass: 1},
		{ID: "nan", Pos: r2.Vec{X: 2}, Vel: r2.Vec{X: 1}, Force: r2.Vec{X: math.NaN()}, Mass: 1},
		{ID: "inf", Pos: r2.Vec{Y: 3}, Force: r2.Vec{Y: math.Inf(-1)}, Mass: 1},
		{ID: "overflow", Pos: r2.Vec{X: math.MaxFloat64}, Vel: r2.Vec{X: math.MaxFloat64}, Mass: 1},
	}

	reset := NewSemiImplicitEuler(1, 0, 0).Step(bodies, 1)

	want := []int{1, 2, 3}
	if len(reset) != len(want) {
		t.Fatalf("reset = %v, want %v", reset, want)
	}
	for i := range want {
		if reset[i] != want[i] {
			t.Fatalf("reset = %v, want %v", reset, want)
		}
	}

	for _, i := range want {
		b := bodies[i]
		if b.Vel != (r2.Vec{}) || b.Force != (r2.Vec{}) {
			t.Errorf("%s: velocity and force not zeroed: %v %v", b.ID, b.Vel, b.Force)
		}
		if !dynamo.Finite(b.Pos) {
			t.Errorf("%s: position not restored: %v", b.ID, b.Pos)
		}
	}
	if bodies[1].Pos != (r2.Vec{X: 2}) {
		t.Errorf("restored position = %v, want {2 0}", bodies[1].Pos)
	}
	if bodies[0].Pos.X != 2 {
		t.Errorf("healthy body did not move: %v", bodies[0].Pos)
	}
}

func TestSemiImplicitEuler_StiffSpringStaysBounded(t *testing.T) {
	// A unit mass on a spring of stiffness 50 at dt = 1 has ω·dt ≈ 7, far
	// past the explicit stability limit of 2.
	const k = 50.0
	for _, tt := range []struct {
		name    string
		safety  float64
		bounded bool
	}{
		{"limited", 1, true},
		{"unlimited", 0, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e := NewSemiImplicitEuler(0.9, 0, tt.safety)
			bodies := dynamo.Bodies{{Pos: r2.Vec{X: 1}, Mass: 1}}
			for i := 0; i < 200; i++ {
				bodies[0].Force = r2.Scale(-k, bodies[0].Pos)
				bodies[0].Stiffness = k
				e.Step(bodies, 1)
			}
			x := math.Abs(bodies[0].Pos.X)
			if tt.bounded && x > 1e-3 {
				t.Errorf("|x| = %v after 200 steps, want it damped out", x)
			}
			if !tt.bounded && x < 1 && dynamo.Finite(bodies[0].Pos) {
				t.Errorf("|x| = %v, expected the unlimited step to blow up", x)
			}
		})
	}
}

func BenchmarkSemiImplicitEuler(b *testing.B) {
	bodies := make(dynamo.Bodies, 1000)
	for i := range bodies {
		bodies[i] = dynamo.Body{Pos: r2.Vec{X: float64(i)}, Force: r2.Vec{Y: 0.01}, Mass: 1}
	}
	integrator := NewSemiImplicitEuler(0.9, 0, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(bodies, 0.5)
	}
}
