// Package quadtree implements the Barnes–Hut spatial index used to
// approximate pairwise repulsion in O(n log n).
//
// Quadrants live in an arena and refer to each other by int32 handles, so a
// Tree can be rebuilt every step without reallocating. A quadrant is an empty
// leaf, a leaf holding a chain of bodies, or an internal node whose four
// children were all created when it was split.
package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// maxDepth bounds subdivision for bodies that are distinct but closer
	// than float64 can separate; deeper bodies share a leaf chain.
	maxDepth = 48

	boundsMargin = 1e-3
	boundsFloor  = 1e-6

	goldenAngle = 2.399963229728653
)

// Quadrant indices.
const (
	NW = iota
	NE
	SW
	SE
)

var noChildren = [4]int32{-1, -1, -1, -1}

type quad struct {
	minX, minY float64
	size       float64
	mass       float64
	com        r2.Vec
	children   [4]int32
	body       int32
}

func (n *quad) leaf() bool { return n.children[0] < 0 }

func (n *quad) quadrant(p r2.Vec) int {
	half := n.size / 2
	k := NW
	if p.X >= n.minX+half {
		k |= NE
	}
	if p.Y < n.minY+half {
		k |= SW
	}
	return k
}

func (n *quad) contains(p r2.Vec) bool {
	return p.X >= n.minX && p.X <= n.minX+n.size && p.Y >= n.minY && p.Y <= n.minY+n.size
}

func (n *quad) add(p r2.Vec, m float64) {
	total := n.mass + m
	if total <= 0 {
		return
	}
	n.com = r2.Scale(1/total, r2.Add(r2.Scale(n.mass, n.com), r2.Scale(m, p)))
	n.mass = total
}

type Tree struct {
	quads []quad
	next  []int32
	pos   []r2.Vec
	mass  []float64
}

func New() *Tree {
	return &Tree{}
}

// Reset discards the previous tree and inserts every body. pos and mass are
// retained, not copied, and must not change until the next Reset.
func (t *Tree) Reset(pos []r2.Vec, mass []float64) {
	t.pos, t.mass = pos, mass
	t.quads = t.quads[:0]
	if cap(t.next) < len(pos) {
		t.next = make([]int32, len(pos))
	}
	t.next = t.next[:len(pos)]
	if len(pos) == 0 {
		return
	}

	minX, minY := pos[0].X, pos[0].Y
	maxX, maxY := minX, minY
	for _, p := range pos[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	side := math.Max(maxX-minX, maxY-minY)
	pad := side*boundsMargin + boundsFloor
	t.quads = append(t.quads, quad{
		minX:     minX - pad,
		minY:     minY - pad,
		size:     side + 2*pad,
		children: noChildren,
		body:     -1,
	})

	for i := range pos {
		t.Insert(i)
	}
}

// Insert adds body i, splitting occupied leaves on the way down and folding
// its mass into every quadrant it passes.
func (t *Tree) Insert(i int) {
	p, m := t.pos[i], t.mass[i]
	q := int32(0)
	for depth := 0; ; depth++ {
		n := &t.quads[q]
		if n.leaf() && n.body >= 0 && depth < maxDepth && t.pos[n.body] != p {
			t.split(q)
			n = &t.quads[q]
		}
		n.add(p, m)
		if !n.leaf() {
			q = n.children[n.quadrant(p)]
			continue
		}
		t.next[i] = n.body
		n.body = int32(i)
		return
	}
}

// split turns leaf q into an internal node and moves its body chain, with
// the aggregate it had, into the matching child.
func (t *Tree) split(q int32) {
	n := t.quads[q]
	half := n.size / 2
	base := int32(len(t.quads))
	for k := 0; k < 4; k++ {
		x, y := n.minX, n.minY
		if k&NE != 0 {
			x += half
		}
		if k&SW == 0 {
			y += half
		}
		t.quads = append(t.quads, quad{minX: x, minY: y, size: half, children: noChildren, body: -1})
	}

	c := &t.quads[base+int32(n.quadrant(t.pos[n.body]))]
	c.body, c.mass, c.com = n.body, n.mass, n.com

	parent := &t.quads[q]
	parent.body = -1
	parent.children = [4]int32{base, base + 1, base + 2, base + 3}
}

// ForceOn returns the repulsion acting on body i. A quadrant that does not
// contain the body is collapsed into its center of mass when
// side/distance < theta; theta = 0 sums every pair exactly.
func (t *Tree) ForceOn(i int, theta, coeff, minDist float64) r2.Vec {
	f, _ := t.Evaluate(i, theta, coeff, minDist)
	return f
}

// Evaluate is ForceOn that also returns the stiffness of the repulsion on
// body i: the sum of 2|k|/d³ over the same pairs and collapsed quadrants.
func (t *Tree) Evaluate(i int, theta, coeff, minDist float64) (r2.Vec, float64) {
	var (
		f     r2.Vec
		stiff float64
	)
	if len(t.quads) == 0 {
		return f, 0
	}
	p, m := t.pos[i], t.mass[i]
	add := func(j int, q r2.Vec, k float64) {
		df, ds := pairForce(i, j, p, q, k, minDist)
		f = r2.Add(f, df)
		stiff += ds
	}

	var buf [3*maxDepth + 8]int32
	stack := append(buf[:0], 0)
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.quads[q]
		if n.mass == 0 {
			continue
		}
		if n.leaf() {
			for b := n.body; b >= 0; b = t.next[b] {
				if int(b) == i {
					continue
				}
				add(int(b), t.pos[b], coeff*m*t.mass[b])
			}
			continue
		}
		if theta > 0 && !n.contains(p) {
			if d := r2.Norm(r2.Sub(n.com, p)); d > 0 && n.size/d < theta {
				add(-1, n.com, coeff*m*n.mass)
				continue
			}
		}
		stack = append(stack, n.children[:]...)
	}
	return f, stiff
}

// Direct sums the repulsion on body i over every other body.
func (t *Tree) Direct(i int, coeff, minDist float64) r2.Vec {
	var f r2.Vec
	p, m := t.pos[i], t.mass[i]
	for j := range t.pos {
		if j == i {
			continue
		}
		df, _ := pairForce(i, j, p, t.pos[j], coeff*m*t.mass[j], minDist)
		f = r2.Add(f, df)
	}
	return f
}

// pairForce returns k/d³·(q−p) and its stiffness 2|k|/d³, with d floored at
// minDist. Coincident bodies get a direction derived from their indices that
// flips when i and j swap.
func pairForce(i, j int, p, q r2.Vec, k, minDist float64) (r2.Vec, float64) {
	v := r2.Sub(q, p)
	d := r2.Norm(v)
	switch {
	case d == 0:
		v = r2.Scale(minDist, coincidentDir(i, j))
		d = minDist
	case d < minDist:
		v = r2.Scale(minDist/d, v)
		d = minDist
	}
	d3 := d * d * d
	return r2.Scale(k/d3, v), 2 * math.Abs(k) / d3
}

func coincidentDir(i, j int) r2.Vec {
	lo, hi, sign := i, j, 1.0
	if lo > hi {
		lo, hi, sign = hi, lo, -1
	}
	a := float64(lo*31+hi) * goldenAngle
	return r2.Vec{X: sign * math.Cos(a), Y: sign * math.Sin(a)}
}

// Mass is the total mass in the tree.
func (t *Tree) Mass() float64 {
	if len(t.quads) == 0 {
		return 0
	}
	return t.quads[0].mass
}

// Center is the mass centroid of every inserted body.
func (t *Tree) Center() r2.Vec {
	if len(t.quads) == 0 {
		return r2.Vec{}
	}
	return t.quads[0].com
}

// Bounds returns the root square as its lower-left corner and side length.
func (t *Tree) Bounds() (r2.Vec, float64) {
	if len(t.quads) == 0 {
		return r2.Vec{}, 0
	}
	root := t.quads[0]
	return r2.Vec{X: root.minX, Y: root.minY}, root.size
}

// Len is the number of quadrants allocated for the current build.
func (t *Tree) Len() int { return len(t.quads) }
