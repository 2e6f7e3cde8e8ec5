package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Body is the physical state of one graph node during a layout run.
type Body struct {
	ID    string
	Pos   r2.Vec
	Vel   r2.Vec
	Force r2.Vec
	Mass  float64
	// Stiffness is the summed force gradient magnitude from the last
	// accumulation. It bounds the body's integration step.
	Stiffness float64
}

// IsValid reports whether position and velocity are finite and mass is positive.
func (b *Body) IsValid() bool {
	return Finite(b.Pos) && Finite(b.Vel) && b.Mass > 0 && !math.IsInf(b.Mass, 0)
}

// KineticEnergy returns ½·m·|v|².
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * r2.Norm2(b.Vel)
}

// Finite reports whether both components of v are neither NaN nor Inf.
func Finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

type Bodies []Body

func (bs Bodies) Clone() Bodies {
	c := make(Bodies, len(bs))
	copy(c, bs)
	return c
}

// KineticEnergy sums ½·m·|v|² over all bodies.
func (bs Bodies) KineticEnergy() float64 {
	e := 0.0
	for i := range bs {
		e += bs[i].KineticEnergy()
	}
	return e
}

// Centroid is the mass-weighted mean position.
func (bs Bodies) Centroid() r2.Vec {
	var sum r2.Vec
	mass := 0.0
	for i := range bs {
		sum = r2.Add(sum, r2.Scale(bs[i].Mass, bs[i].Pos))
		mass += bs[i].Mass
	}
	if mass == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/mass, sum)
}

func (bs Bodies) IsValid() bool {
	for i := range bs {
		if !bs[i].IsValid() {
			return false
		}
	}
	return true
}

// StepStats summarizes one completed simulation step.
type StepStats struct {
	Step int
	// Energy is the total kinetic energy after the step.
	Energy float64
	// Displacement is the mean distance a body moved during the step.
	Displacement float64
	// MaxDisplacement is the largest distance any body moved.
	MaxDisplacement float64
	// Temperature is the force scale applied during the step, 1 without
	// cooling.
	Temperature float64
	Converged   bool
	// Recovered lists nodes whose non-finite state was reset during the step.
	Recovered []string
}

// Integrator advances bodies by one time step using their accumulated force.
// It returns the indices of bodies whose state had to be reset.
type Integrator interface {
	Step(bodies Bodies, dt float64) []int
}

type Metric interface {
	Name() string
	Observe(bodies Bodies, stats StepStats)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(bodies Bodies, stats StepStats)
}

// ObserverFunc adapts a plain function to an Observer.
type ObserverFunc func(bodies Bodies, stats StepStats)

func (f ObserverFunc) OnStep(bodies Bodies, stats StepStats) { f(bodies, stats) }
