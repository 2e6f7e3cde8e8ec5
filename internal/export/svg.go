package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Edge is a link between two named nodes.
type Edge struct {
	A      string  `json:"a"`
	B      string  `json:"b"`
	Weight float64 `json:"weight"`
}

type bounds struct {
	minX, minY, rangeX, rangeY float64
}

// fit pads the bounding box of pts by 10% per side. Zero spans become 1.
func fit(pts []r2.Vec) bounds {
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return bounds{
		minX:   minX - rangeX*0.1,
		minY:   minY - rangeY*0.1,
		rangeX: rangeX * 1.2,
		rangeY: rangeY * 1.2,
	}
}

func (b bounds) project(p r2.Vec, width, height int) (float64, float64) {
	x := (p.X - b.minX) / b.rangeX * float64(width)
	y := float64(height) - (p.Y-b.minY)/b.rangeY*float64(height)
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// LayoutToSVG draws links as lines whose opacity follows their weight and
// nodes as labelled circles. Nodes listed in ids without a position and
// non-finite positions are skipped, as are links touching them.
func LayoutToSVG(ids []string, positions map[string]r2.Vec, links []Edge, width, height int, labels bool) string {
	pts := make([]r2.Vec, 0, len(ids))
	for _, id := range ids {
		if p, ok := positions[id]; ok && finite(p) {
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return ""
	}
	b := fit(pts)

	var sb strings.Builder
	header(&sb, width, height)

	sb.WriteString(`<g stroke="#00ccff" stroke-width="1">` + "\n")
	for _, l := range links {
		pa, okA := positions[l.A]
		pb, okB := positions[l.B]
		if !okA || !okB || !finite(pa) || !finite(pb) {
			continue
		}
		x1, y1 := b.project(pa, width, height)
		x2, y2 := b.project(pb, width, height)
		opacity := math.Min(math.Max(l.Weight, 0.1), 1)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-opacity="%.2f"/>`+"\n",
			x1, y1, x2, y2, opacity)
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g fill="#00ff88" font-family="monospace" font-size="10">` + "\n")
	for _, id := range ids {
		p, ok := positions[id]
		if !ok || !finite(p) {
			continue
		}
		x, y := b.project(p, width, height)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3"><title>%s</title></circle>`+"\n",
			x, y, html.EscapeString(id))
		if labels {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f">%s</text>`+"\n", x+4, y-4, html.EscapeString(id))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// EnergyToSVG plots an energy trace as a polyline, step on x and energy on
// y. Traces shorter than two samples produce an empty string.
func EnergyToSVG(energy []float64, width, height int, strokeColor string) string {
	if len(energy) < 2 {
		return ""
	}
	pts := make([]r2.Vec, len(energy))
	for i, e := range energy {
		pts[i] = r2.Vec{X: float64(i), Y: e}
	}
	b := fit(pts)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i, p := range pts {
		x, y := b.project(p, width, height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
