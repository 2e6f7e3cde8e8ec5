package physics

import (
	"fmt"

	"github.com/san-kum/springlayout/internal/compute"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Accumulator owns the per-step scratch buffers and the quadtree arena so a
// run allocates only on its first step.
type Accumulator struct {
	cfg     dynamo.Config
	backend compute.Backend
	tree    *quadtree.Tree
	pos     []r2.Vec
	mass    []float64
	repel   []r2.Vec
	stiff   []float64
}

func NewAccumulator(cfg dynamo.Config, backend compute.Backend) *Accumulator {
	if backend == nil {
		backend = compute.NewBackend(cfg.Workers)
	}
	return &Accumulator{
		cfg:     cfg,
		backend: backend,
		tree:    quadtree.New(),
	}
}

func (a *Accumulator) Backend() compute.Backend { return a.backend }

// Build snapshots body positions and masses and rebuilds the quadtree over
// them. The tree stays valid until the next Build.
func (a *Accumulator) Build(bodies dynamo.Bodies) *quadtree.Tree {
	n := len(bodies)
	if cap(a.pos) < n {
		a.pos = make([]r2.Vec, n)
		a.mass = make([]float64, n)
		a.repel = make([]r2.Vec, n)
		a.stiff = make([]float64, n)
	}
	a.pos, a.mass, a.repel, a.stiff = a.pos[:n], a.mass[:n], a.repel[:n], a.stiff[:n]
	for i := range bodies {
		a.pos[i] = bodies[i].Pos
		a.mass[i] = bodies[i].Mass
	}
	a.tree.Reset(a.pos, a.mass)
	return a.tree
}

// Accumulate overwrites every body's Force with the sum of spring, repulsion
// and centering forces, and its Stiffness with the matching sum of force
// gradients. tree must have been built from bodies' current positions.
func (a *Accumulator) Accumulate(bodies dynamo.Bodies, springs []Spring, tree *quadtree.Tree) error {
	for i := range bodies {
		bodies[i].Force = r2.Vec{}
		bodies[i].Stiffness = 0
	}

	for _, s := range springs {
		pa, pb := bodies[s.A].Pos, bodies[s.B].Pos
		f := s.Force(pa, pb)
		bodies[s.A].Force = r2.Add(bodies[s.A].Force, f)
		bodies[s.B].Force = r2.Sub(bodies[s.B].Force, f)
		k := s.Rate(pa, pb)
		bodies[s.A].Stiffness += k
		bodies[s.B].Stiffness += k
	}

	if a.cfg.Repulsion != 0 && len(bodies) > 1 {
		if len(a.repel) != len(bodies) {
			return fmt.Errorf("%w: tree holds %d bodies, got %d", dynamo.ErrInvalidState, len(a.repel), len(bodies))
		}
		err := a.backend.Repulsion(tree, a.repel, a.stiff, compute.Repulsion{
			Theta:       a.cfg.Theta,
			Coefficient: a.cfg.Repulsion,
			MinDistance: a.cfg.MinDistance,
		})
		if err != nil {
			return fmt.Errorf("repulsion: %w", err)
		}
		for i := range bodies {
			bodies[i].Force = r2.Add(bodies[i].Force, a.repel[i])
			bodies[i].Stiffness += a.stiff[i]
		}
	}

	if a.cfg.Centering > 0 {
		c := tree.Center()
		for i := range bodies {
			k := a.cfg.Centering * bodies[i].Mass
			bodies[i].Force = r2.Add(bodies[i].Force, r2.Scale(k, r2.Sub(c, bodies[i].Pos)))
			bodies[i].Stiffness += k
		}
	}
	return nil
}
