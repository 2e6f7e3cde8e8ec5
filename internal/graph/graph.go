// Package graph holds the nodes and weighted undirected links a layout is
// computed for. It carries no physics.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/springlayout/internal/dynamo"
	gg "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	ErrSelfLink      = fmt.Errorf("%w: self link", dynamo.ErrInvalidGraph)
	ErrDuplicateLink = fmt.Errorf("%w: duplicate link", dynamo.ErrInvalidGraph)
	ErrInvalidWeight = fmt.Errorf("%w: weight must be finite and positive", dynamo.ErrInvalidGraph)
	ErrEmptyID       = fmt.Errorf("%w: empty node id", dynamo.ErrInvalidGraph)
	ErrFrozen        = fmt.Errorf("%w: graph is frozen by a running layout", dynamo.ErrInvalidGraph)
)

// MergePolicy decides what happens when a link is added between a pair that
// is already linked.
type MergePolicy int

const (
	// MergeMax keeps the larger weight.
	MergeMax MergePolicy = iota
	// MergeSum adds the weights.
	MergeSum
	// MergeMean averages all weights seen for the pair.
	MergeMean
	// MergeReject fails with ErrDuplicateLink.
	MergeReject
)

var policyNames = map[MergePolicy]string{
	MergeMax:    "max",
	MergeSum:    "sum",
	MergeMean:   "mean",
	MergeReject: "reject",
}

func (p MergePolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("MergePolicy(%d)", int(p))
}

func ParseMergePolicy(s string) (MergePolicy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return MergeMax, fmt.Errorf("unknown merge policy: %s", s)
}

type Node struct {
	ID    string
	index int
}

// Index is the node's insertion position, stable for the graph's lifetime.
func (n *Node) Index() int { return n.index }

type Link struct {
	A, B   string
	Weight float64
	// Multiplicity counts how many times the pair was added.
	Multiplicity int
	a, b         int
}

// Ends returns the insertion indices of both endpoints.
func (l *Link) Ends() (int, int) { return l.a, l.b }

// Other returns the endpoint opposite to id.
func (l *Link) Other(id string) string {
	if l.A == id {
		return l.B
	}
	return l.A
}

type Option func(*Graph)

func WithMergePolicy(p MergePolicy) Option {
	return func(g *Graph) { g.policy = p }
}

// Graph keeps nodes and links in insertion order; the topology is mirrored
// in a gonum weighted undirected graph for lookups and component analysis.
type Graph struct {
	nodes  []*Node
	byID   map[string]*Node
	links  []*Link
	byPair map[[2]int]*Link
	adj    [][]*Link
	topo   *simple.WeightedUndirectedGraph
	policy MergePolicy
	frozen bool
}

func New(opts ...Option) *Graph {
	g := &Graph{
		byID:   make(map[string]*Node),
		byPair: make(map[[2]int]*Link),
		topo:   simple.NewWeightedUndirectedGraph(0, 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode returns the node for id, creating it on first use.
func (g *Graph) AddNode(id string) (*Node, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if n, ok := g.byID[id]; ok {
		return n, nil
	}
	if g.frozen {
		return nil, ErrFrozen
	}
	n := &Node{ID: id, index: len(g.nodes)}
	g.nodes = append(g.nodes, n)
	g.byID[id] = n
	g.adj = append(g.adj, nil)
	g.topo.AddNode(simple.Node(n.index))
	return n, nil
}

// AddLink links a and b, creating missing endpoints. Adding an existing pair
// merges into the existing link according to the graph's MergePolicy.
func (g *Graph) AddLink(a, b string, weight float64) (*Link, error) {
	if a == "" || b == "" {
		return nil, ErrEmptyID
	}
	if a == b {
		return nil, fmt.Errorf("%w: %q", ErrSelfLink, a)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return nil, fmt.Errorf("%w: %q-%q has %v", ErrInvalidWeight, a, b, weight)
	}
	if g.frozen {
		return nil, ErrFrozen
	}

	na, err := g.AddNode(a)
	if err != nil {
		return nil, err
	}
	nb, err := g.AddNode(b)
	if err != nil {
		return nil, err
	}

	key := pairKey(na.index, nb.index)
	if l, ok := g.byPair[key]; ok {
		if err := g.merge(l, weight); err != nil {
			return nil, err
		}
		g.topo.SetWeightedEdge(g.topo.NewWeightedEdge(simple.Node(na.index), simple.Node(nb.index), l.Weight))
		return l, nil
	}

	l := &Link{A: a, B: b, Weight: weight, Multiplicity: 1, a: na.index, b: nb.index}
	g.links = append(g.links, l)
	g.byPair[key] = l
	g.adj[na.index] = append(g.adj[na.index], l)
	g.adj[nb.index] = append(g.adj[nb.index], l)
	g.topo.SetWeightedEdge(g.topo.NewWeightedEdge(simple.Node(na.index), simple.Node(nb.index), weight))
	return l, nil
}

func (g *Graph) merge(l *Link, w float64) error {
	switch g.policy {
	case MergeReject:
		return fmt.Errorf("%w: %q-%q", ErrDuplicateLink, l.A, l.B)
	case MergeSum:
		l.Weight += w
	case MergeMean:
		l.Weight = (l.Weight*float64(l.Multiplicity) + w) / float64(l.Multiplicity+1)
	default:
		l.Weight = math.Max(l.Weight, w)
	}
	l.Multiplicity++
	return nil
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Link returns the link between a and b in either orientation.
func (g *Graph) Link(a, b string) (*Link, bool) {
	na, okA := g.byID[a]
	nb, okB := g.byID[b]
	if !okA || !okB {
		return nil, false
	}
	l, ok := g.byPair[pairKey(na.index, nb.index)]
	return l, ok
}

// Nodes returns the nodes in insertion order. The slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Links returns the links in insertion order. The slice must not be modified.
func (g *Graph) Links() []*Link { return g.links }

// LinksOf returns the links incident to id, or ErrNodeNotFound.
func (g *Graph) LinksOf(id string) ([]*Link, error) {
	n, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrNodeNotFound, id)
	}
	return g.adj[n.index], nil
}

// Degree is the number of distinct neighbors of id.
func (g *Graph) Degree(id string) int {
	n, ok := g.byID[id]
	if !ok {
		return 0
	}
	return g.topo.From(int64(n.index)).Len()
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) LinkCount() int { return len(g.links) }

// Components returns the connected components as id lists. Components are
// ordered by their earliest inserted node, ids by insertion order.
func (g *Graph) Components() [][]string {
	cc := topo.ConnectedComponents(g.topo)
	out := make([][]string, 0, len(cc))
	for _, comp := range cc {
		idx := make([]int, 0, len(comp))
		for _, n := range comp {
			idx = append(idx, int(n.ID()))
		}
		sort.Ints(idx)
		ids := make([]string, len(idx))
		for i, k := range idx {
			ids[i] = g.nodes[k].ID
		}
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool {
		return g.byID[out[i][0]].index < g.byID[out[j][0]].index
	})
	return out
}

// Weighted exposes the topology as a gonum graph.
func (g *Graph) Weighted() gg.WeightedUndirected { return g.topo }

// Freeze rejects further structural changes. Simulators freeze the graph
// they are built from.
func (g *Graph) Freeze() { g.frozen = true }

func (g *Graph) Frozen() bool { return g.frozen }

// IsInvalid reports whether err is one of the graph construction errors.
func IsInvalid(err error) bool {
	return errors.Is(err, dynamo.ErrInvalidGraph)
}
