package physics

import (
	"math"

	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

// Spring connects the bodies at indices A and B.
type Spring struct {
	A, B      int
	Length    float64
	Stiffness float64
}

// Springs builds one spring per graph link. Body indices follow the graph's
// node insertion order. A link added n times pulls n times as hard.
func Springs(g *graph.Graph, cfg dynamo.Config) []Spring {
	links := g.Links()
	springs := make([]Spring, len(links))
	for i, l := range links {
		a, b := l.Ends()
		k := cfg.SpringCoefficient * float64(l.Multiplicity)
		if cfg.ScaleStiffnessByWeight {
			k *= l.Weight
		}
		springs[i] = Spring{A: a, B: b, Length: cfg.Length(l.Weight), Stiffness: k}
	}
	return springs
}

// Force returns the force on the A end: k·(r−L)/r·(pb−pa). The B end
// receives the negation. Coincident ends exert nothing.
func (s Spring) Force(pa, pb r2.Vec) r2.Vec {
	d := r2.Sub(pb, pa)
	r := r2.Norm(d)
	if r == 0 {
		return r2.Vec{}
	}
	return r2.Scale(s.Stiffness*(r-s.Length)/r, d)
}

// Rate is the largest force gradient magnitude of the spring at the given
// ends, k·max(1, |r−L|/r). A compressed spring pushes sideways as well as
// along its axis, which is what the second term measures.
func (s Spring) Rate(pa, pb r2.Vec) float64 {
	r := r2.Norm(r2.Sub(pb, pa))
	if r == 0 {
		return s.Stiffness
	}
	return s.Stiffness * max(1, math.Abs(r-s.Length)/r)
}

// Stretch is the signed deviation of the current length from the rest length.
func (s Spring) Stretch(bodies dynamo.Bodies) float64 {
	return r2.Norm(r2.Sub(bodies[s.B].Pos, bodies[s.A].Pos)) - s.Length
}

// PotentialEnergy sums ½·k·(r−L)² over all springs.
func PotentialEnergy(bodies dynamo.Bodies, springs []Spring) float64 {
	e := 0.0
	for _, s := range springs {
		x := s.Stretch(bodies)
		e += 0.5 * s.Stiffness * x * x
	}
	return e
}
