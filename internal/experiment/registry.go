package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/springlayout/internal/analysis"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/metrics"
	"github.com/san-kum/springlayout/internal/sim"
)

// Objective scores a finished run; lower is better.
type Objective func(s *sim.Simulator, res *sim.Result) float64

type Registry struct {
	metrics    map[string]func() dynamo.Metric
	objectives map[string]Objective
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics:    make(map[string]func() dynamo.Metric),
		objectives: make(map[string]Objective),
	}

	r.metrics["kinetic_energy"] = func() dynamo.Metric { return metrics.NewKineticEnergy() }
	r.metrics["peak_energy"] = func() dynamo.Metric { return metrics.NewPeakEnergy() }
	r.metrics["displacement"] = func() dynamo.Metric { return metrics.NewDisplacement() }
	r.metrics["stability"] = func() dynamo.Metric { return metrics.NewStability() }

	r.objectives["stress"] = func(s *sim.Simulator, _ *sim.Result) float64 {
		return analysis.Stress(s.Bodies(), s.Springs())
	}
	r.objectives["potential"] = func(_ *sim.Simulator, res *sim.Result) float64 {
		return res.Potential
	}
	r.objectives["energy"] = func(s *sim.Simulator, _ *sim.Result) float64 {
		return s.Energy()
	}
	// steps prefers runs that converge early; runs that never converge score
	// one past their step count.
	r.objectives["steps"] = func(_ *sim.Simulator, res *sim.Result) float64 {
		if res.ConvergedAt < 0 {
			return float64(res.Steps + 1)
		}
		return float64(res.ConvergedAt)
	}

	return r
}

func (r *Registry) GetMetric(name string) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetObjective(name string) (Objective, error) {
	fn, ok := r.objectives[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

func (r *Registry) ListObjectives() []string {
	return sortedKeys(r.objectives)
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	ms := make([]dynamo.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		ms = append(ms, r.metrics[name]())
	}
	return ms
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
