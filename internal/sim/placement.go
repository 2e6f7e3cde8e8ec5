package sim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	initialRadius = 1.0
	jitterScale   = 0.05
)

var phyllotaxisAngle = math.Pi * (3 - math.Sqrt(5))

// placement spreads n bodies on a sunflower spiral around the origin. The
// seeded jitter breaks the lattice symmetry without ever producing two
// coincident starting points.
func placement(n int, seed int64) []r2.Vec {
	rng := rand.New(rand.NewSource(seed))
	pos := make([]r2.Vec, n)
	for i := range pos {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * phyllotaxisAngle
		jx := (rng.Float64()*2 - 1) * jitterScale * initialRadius
		jy := (rng.Float64()*2 - 1) * jitterScale * initialRadius
		pos[i] = r2.Vec{X: r*math.Cos(a) + jx, Y: r*math.Sin(a) + jy}
	}
	return pos
}
