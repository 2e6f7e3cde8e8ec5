package metrics

import "github.com/san-kum/springlayout/internal/dynamo"

// Displacement reports the mean distance bodies moved on the last observed
// step. A layout at rest reports values near zero.
type Displacement struct {
	name string
	last float64
}

func NewDisplacement() *Displacement {
	return &Displacement{name: "displacement"}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(_ dynamo.Bodies, stats dynamo.StepStats) {
	d.last = stats.Displacement
}

func (d *Displacement) Value() float64 { return d.last }

func (d *Displacement) Reset() { d.last = 0 }
