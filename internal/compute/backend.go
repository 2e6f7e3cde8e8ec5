package compute

import (
	"github.com/san-kum/springlayout/internal/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Repulsion carries the per-step parameters of a repulsion pass.
type Repulsion struct {
	Theta       float64
	Coefficient float64
	MinDistance float64
}

// Backend fills out[i] with the repulsion on body i and, when stiff is not
// nil, stiff[i] with its stiffness. Implementations may evaluate bodies
// concurrently; each body's slots are written exactly once.
type Backend interface {
	Name() string
	Repulsion(tree *quadtree.Tree, out []r2.Vec, stiff []float64, p Repulsion) error
}

// NewBackend returns a serial backend for workers == 1 and a CPUBackend
// otherwise; 0 means one worker per CPU.
func NewBackend(workers int) Backend {
	if workers == 1 {
		return Serial{}
	}
	return NewCPUBackend(workers)
}

type Serial struct{}

func (Serial) Name() string { return "serial" }

func (Serial) Repulsion(tree *quadtree.Tree, out []r2.Vec, stiff []float64, p Repulsion) error {
	for i := range out {
		evaluate(tree, out, stiff, p, i)
	}
	return nil
}

func evaluate(tree *quadtree.Tree, out []r2.Vec, stiff []float64, p Repulsion, i int) {
	if stiff == nil {
		out[i] = tree.ForceOn(i, p.Theta, p.Coefficient, p.MinDistance)
		return
	}
	out[i], stiff[i] = tree.Evaluate(i, p.Theta, p.Coefficient, p.MinDistance)
}
