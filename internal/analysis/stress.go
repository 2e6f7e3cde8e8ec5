package analysis

import (
	"math"

	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Stress is the mean relative deviation |r−L|/L over all springs. A layout
// with no springs has zero stress.
func Stress(bodies dynamo.Bodies, springs []physics.Spring) float64 {
	if len(springs) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range springs {
		sum += math.Abs(s.Stretch(bodies)) / s.Length
	}
	return sum / float64(len(springs))
}

type Spread struct {
	Min, Max r2.Vec
	Centroid r2.Vec
	// Radius is the largest distance from the centroid to any body.
	Radius float64
}

func (s Spread) Width() float64  { return s.Max.X - s.Min.X }
func (s Spread) Height() float64 { return s.Max.Y - s.Min.Y }

func MeasureSpread(bodies dynamo.Bodies) Spread {
	if len(bodies) == 0 {
		return Spread{}
	}
	sp := Spread{Min: bodies[0].Pos, Max: bodies[0].Pos, Centroid: bodies.Centroid()}
	for _, b := range bodies {
		sp.Min.X = math.Min(sp.Min.X, b.Pos.X)
		sp.Min.Y = math.Min(sp.Min.Y, b.Pos.Y)
		sp.Max.X = math.Max(sp.Max.X, b.Pos.X)
		sp.Max.Y = math.Max(sp.Max.Y, b.Pos.Y)
		sp.Radius = math.Max(sp.Radius, r2.Norm(r2.Sub(b.Pos, sp.Centroid)))
	}
	return sp
}
