package integrators

import (
	"math"

	"github.com/san-kum/springlayout/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// SemiImplicitEuler updates velocity from force first and then moves each
// body with the new velocity:
//
//	v ← (v + f/m·h)·drag
//	p ← p + v·h
//
// h is dt, shortened per body to StepSafety·√(m/κ) where κ is the body's
// accumulated stiffness. That keeps ω·h ≤ StepSafety on stiff bodies while
// slack ones take the full step.
type SemiImplicitEuler struct {
	// Drag multiplies the velocity once per step, in (0, 1].
	Drag float64
	// MaxSpeed clamps |v| after drag; 0 leaves it unbounded.
	MaxSpeed float64
	// StepSafety bounds ω·h per body; 0 always uses dt.
	StepSafety float64
}

func NewSemiImplicitEuler(drag, maxSpeed, stepSafety float64) *SemiImplicitEuler {
	return &SemiImplicitEuler{Drag: drag, MaxSpeed: maxSpeed, StepSafety: stepSafety}
}

// StepFor returns the step body b takes when the nominal step is dt.
func (e *SemiImplicitEuler) StepFor(b *dynamo.Body, dt float64) float64 {
	if e.StepSafety <= 0 || b.Stiffness <= 0 {
		return dt
	}
	if h := e.StepSafety * math.Sqrt(b.Mass/b.Stiffness); h < dt {
		return h
	}
	return dt
}

// Step advances every body by at most dt. A body whose force, velocity or
// position turns non-finite keeps its previous position, loses its velocity
// and force, and has its index reported.
func (e *SemiImplicitEuler) Step(bodies dynamo.Bodies, dt float64) []int {
	var reset []int
	for i := range bodies {
		b := &bodies[i]
		prev := b.Pos
		h := e.StepFor(b, dt)

		v := r2.Add(b.Vel, r2.Scale(h/b.Mass, b.Force))
		v = r2.Scale(e.Drag, v)
		if e.MaxSpeed > 0 {
			if s := r2.Norm(v); s > e.MaxSpeed {
				v = r2.Scale(e.MaxSpeed/s, v)
			}
		}
		p := r2.Add(prev, r2.Scale(h, v))

		if !dynamo.Finite(b.Force) || !dynamo.Finite(v) || !dynamo.Finite(p) || math.IsNaN(b.Mass) {
			b.Pos = prev
			b.Vel = r2.Vec{}
			b.Force = r2.Vec{}
			reset = append(reset, i)
			continue
		}
		b.Vel = v
		b.Pos = p
	}
	return reset
}
