package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/sim"
)

type Node struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Degree int     `json:"degree"`
}

// Layout is the JSON document describing a finished run.
type Layout struct {
	Name        string             `json:"name"`
	Seed        int64              `json:"seed"`
	Steps       int                `json:"steps"`
	Converged   bool               `json:"converged"`
	ConvergedAt int                `json:"converged_at"`
	Potential   float64            `json:"potential"`
	Unstable    []string           `json:"unstable,omitempty"`
	Nodes       []Node             `json:"nodes"`
	Links       []Edge             `json:"links"`
	Energy      []float64          `json:"energy"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// NewLayout collects the nodes and links of g with the final positions of
// result. Nodes keep the graph's insertion order.
func NewLayout(name string, g *graph.Graph, result *sim.Result) *Layout {
	l := &Layout{
		Name:        name,
		Seed:        result.Seed,
		Steps:       result.Steps,
		Converged:   result.Converged,
		ConvergedAt: result.ConvergedAt,
		Potential:   result.Potential,
		Unstable:    result.Health.Unstable,
		Energy:      result.Energy,
		Metrics:     result.Metrics,
		Nodes:       make([]Node, 0, g.NodeCount()),
		Links:       Edges(g),
	}
	for _, n := range g.Nodes() {
		p := result.Positions[n.ID]
		l.Nodes = append(l.Nodes, Node{ID: n.ID, X: p.X, Y: p.Y, Degree: g.Degree(n.ID)})
	}
	return l
}

// Edges lists every link of g by node id.
func Edges(g *graph.Graph) []Edge {
	nodes := g.Nodes()
	edges := make([]Edge, 0, g.LinkCount())
	for _, l := range g.Links() {
		a, b := l.Ends()
		edges = append(edges, Edge{A: nodes[a].ID, B: nodes[b].ID, Weight: l.Weight})
	}
	return edges
}

func WriteJSON(w io.Writer, l *Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// ExportJSON writes l to path, or to stdout when path is "-".
func ExportJSON(path string, l *Layout) error {
	if path == "-" {
		return WriteJSON(os.Stdout, l)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, l)
}
