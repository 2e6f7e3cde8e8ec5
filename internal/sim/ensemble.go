package sim

import (
	"context"

	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/graph"
	"golang.org/x/sync/errgroup"
)

// Ensemble lays out the same graph several times with consecutive seeds.
// The graph is frozen once and only read by the runs.
type Ensemble struct {
	graph     *graph.Graph
	cfg       dynamo.Config
	opts      []Option
	numRuns   int
	seedStart int64
}

func NewEnsemble(g *graph.Graph, cfg dynamo.Config, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{graph: g, cfg: cfg, opts: opts, numRuns: numRuns, seedStart: seedStart}
}

// Run performs steps steps on every member concurrently. Results are in seed
// order.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	e.graph.Freeze()

	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.cfg
			cfg.Seed = e.seedStart + int64(i)

			s, err := New(e.graph, cfg, e.opts...)
			if err != nil {
				return err
			}
			results[i], err = s.Run(ctx, steps)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the result with the lowest spring potential energy.
func Best(results []*Result) *Result {
	var best *Result
	for _, r := range results {
		if r != nil && (best == nil || r.Potential < best.Potential) {
			best = r
		}
	}
	return best
}
