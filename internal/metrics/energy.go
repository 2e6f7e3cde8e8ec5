package metrics

import (
	"math"

	"github.com/san-kum/springlayout/internal/dynamo"
)

// KineticEnergy reports the system kinetic energy after the last observed
// step.
type KineticEnergy struct {
	name    string
	last    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(_ dynamo.Bodies, stats dynamo.StepStats) {
	e.last = stats.Energy
	e.samples++
}

func (e *KineticEnergy) Value() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.last = 0
	e.samples = 0
}

// PeakEnergy tracks the highest kinetic energy seen during a run.
type PeakEnergy struct {
	name string
	peak float64
}

func NewPeakEnergy() *PeakEnergy {
	return &PeakEnergy{name: "peak_energy"}
}

func (e *PeakEnergy) Name() string { return e.name }

func (e *PeakEnergy) Observe(_ dynamo.Bodies, stats dynamo.StepStats) {
	e.peak = math.Max(e.peak, stats.Energy)
}

func (e *PeakEnergy) Value() float64 { return e.peak }

func (e *PeakEnergy) Reset() { e.peak = 0 }
