package analysis

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	dot   = '•'
	crowd = '+'
)

// LayoutToASCII plots positions on a width×height character grid with 10%
// padding. The origin axes are drawn when visible. A cell holding several
// nodes shows their count, or '+' above nine.
func LayoutToASCII(points []r2.Vec, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = r2.Vec{X: min(lo.X, p.X), Y: min(lo.Y, p.Y)}
		hi = r2.Vec{X: max(hi.X, p.X), Y: max(hi.Y, p.Y)}
	}
	span := r2.Sub(hi, lo)
	if span.X == 0 {
		span.X = 1
	}
	if span.Y == 0 {
		span.Y = 1
	}
	pad := r2.Scale(0.1, span)
	lo = r2.Sub(lo, pad)
	span = r2.Add(span, r2.Scale(2, pad))

	cell := func(p r2.Vec) (row, col int) {
		col = int((p.X - lo.X) / span.X * float64(width-1))
		row = height - 1 - int((p.Y-lo.Y)/span.Y*float64(height-1))
		return row, col
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	originRow, originCol := cell(r2.Vec{})
	if lo.X <= 0 && lo.X+span.X >= 0 {
		for r := range grid {
			grid[r][originCol] = '│'
		}
	}
	if lo.Y <= 0 && lo.Y+span.Y >= 0 {
		for c, ch := range grid[originRow] {
			if ch == '│' {
				grid[originRow][c] = '┼'
			} else {
				grid[originRow][c] = '─'
			}
		}
	}

	counts := make(map[[2]int]int, len(points))
	for _, p := range points {
		r, c := cell(p)
		if r < 0 || r >= height || c < 0 || c >= width {
			continue
		}
		counts[[2]int{r, c}]++
	}
	for at, n := range counts {
		switch {
		case n == 1:
			grid[at[0]][at[1]] = dot
		case n <= 9:
			grid[at[0]][at[1]] = rune('0' + n)
		default:
			grid[at[0]][at[1]] = crowd
		}
	}

	var sb strings.Builder
	sb.Grow(height * (width + 1))
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
