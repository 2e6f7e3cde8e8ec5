package viz

import (
	"math"
	"strings"

	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells addressed in sub-pixels. A canvas of
// Width×Height cells has (2·Width)×(4·Height) sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, pixelMap[y%4][x%2], true
}

// Set lights the sub-pixel (x, y). Out-of-range coordinates are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= mask
	}
}

// IsSet reports whether sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&mask != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a segment with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps layout coordinates to canvas sub-pixels with a uniform
// scale, so distances keep their proportions. Layout y grows upward.
type Viewport struct {
	min        r2.Vec
	scale      float64
	offX, offY float64
	h          int
}

// Fit returns the viewport that centers every finite point on c with a one
// sub-pixel margin.
func Fit(points []r2.Vec, c *Canvas) Viewport {
	w, h := c.Width*2, c.Height*4
	v := Viewport{scale: 1, h: h}

	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range points {
		if !dynamo.Finite(p) {
			continue
		}
		lo = r2.Vec{X: min(lo.X, p.X), Y: min(lo.Y, p.Y)}
		hi = r2.Vec{X: max(hi.X, p.X), Y: max(hi.Y, p.Y)}
	}
	if math.IsInf(lo.X, 0) {
		return v
	}

	spanX, spanY := hi.X-lo.X, hi.Y-lo.Y
	availX, availY := float64(w-3), float64(h-3)
	switch {
	case spanX == 0 && spanY == 0:
		v.scale = 1
	case spanX == 0:
		v.scale = availY / spanY
	case spanY == 0:
		v.scale = availX / spanX
	default:
		v.scale = math.Min(availX/spanX, availY/spanY)
	}
	v.min = lo
	v.offX = 1 + (availX-spanX*v.scale)/2
	v.offY = 1 + (availY-spanY*v.scale)/2
	return v
}

// Project returns the sub-pixel for p.
func (v Viewport) Project(p r2.Vec) (int, int) {
	x := v.offX + (p.X-v.min.X)*v.scale
	y := v.offY + (p.Y-v.min.Y)*v.scale
	return int(math.Round(x)), v.h - 1 - int(math.Round(y))
}

// DrawLayout clears c and draws every spring as a line and every body as a
// 2×2 dot.
func DrawLayout(c *Canvas, bodies dynamo.Bodies, springs []physics.Spring) {
	c.Clear()
	pts := make([]r2.Vec, len(bodies))
	for i := range bodies {
		pts[i] = bodies[i].Pos
	}
	v := Fit(pts, c)

	for _, s := range springs {
		if !dynamo.Finite(pts[s.A]) || !dynamo.Finite(pts[s.B]) {
			continue
		}
		x0, y0 := v.Project(pts[s.A])
		x1, y1 := v.Project(pts[s.B])
		c.DrawLine(x0, y0, x1, y1)
	}
	for _, p := range pts {
		if !dynamo.Finite(p) {
			continue
		}
		x, y := v.Project(p)
		c.Set(x, y)
		c.Set(x+1, y)
		c.Set(x, y-1)
		c.Set(x+1, y-1)
	}
}
