// Package optim searches physics parameters for the layout that scores best
// under an objective.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/springlayout/internal/experiment"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// Search evaluates every combination of parameter values and returns the
// parameters with the lowest score. Combinations that fail to build or run
// are recorded in trials and skipped. It fails only when the grid is
// malformed, ctx is cancelled or no combination succeeded.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective experiment.Objective,
) (best map[string]float64, score float64, trials []Trial, err error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("grid search: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	score = math.Inf(1)
	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, objective, &trials)
	if err := ctx.Err(); err != nil {
		return nil, 0, trials, err
	}

	for _, t := range trials {
		if t.Err == nil && t.Score < score {
			best, score = t.Params, t.Score
		}
	}
	if best == nil {
		return nil, 0, trials, fmt.Errorf("grid search: no successful trial out of %d", len(trials))
	}
	return best, score, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	objective experiment.Objective,
	trials *[]Trial,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		t := Trial{Params: current}
		exp, err := buildExperiment(current)
		if err != nil {
			t.Err = err
			*trials = append(*trials, t)
			return
		}

		result, err := exp.Run(ctx)
		if err != nil {
			t.Err = err
		} else {
			t.Score = objective(exp.Simulator(), result)
		}
		*trials = append(*trials, t)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val

		g.searchRecursive(ctx, depth+1, next, buildExperiment, objective, trials)
	}
}
