package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/springlayout/internal/compute"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/integrators"
	"github.com/san-kum/springlayout/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Simulator drives a force-directed layout of one graph. Each Step rebuilds
// the quadtree, accumulates forces, scales them by the current temperature,
// integrates and measures kinetic energy. A Simulator is not safe for
// concurrent use.
type Simulator struct {
	graph      *graph.Graph
	cfg        dynamo.Config
	bodies     dynamo.Bodies
	index      map[string]int
	springs    []physics.Spring
	acc        *physics.Accumulator
	backend    compute.Backend
	integrator dynamo.Integrator
	logger     *slog.Logger
	metrics    []dynamo.Metric
	observers  []dynamo.Observer

	prev        []r2.Vec
	trace       []float64
	traceCap    int
	energy      float64
	temperature float64
	steps       int
	phase       Phase
	convergedAt int

	// strikes counts consecutive steps on which each body was reset.
	strikes    []int
	recoveries int
}

// New validates cfg, freezes g and places one body per node in insertion
// order.
func New(g *graph.Graph, cfg dynamo.Config, opts ...Option) (*Simulator, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", dynamo.ErrInvalidGraph)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		graph:       g,
		cfg:         cfg,
		logger:      discardLogger(),
		temperature: 1,
		convergedAt: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = compute.NewBackend(cfg.Workers)
	}
	if s.integrator == nil {
		s.integrator = integrators.NewSemiImplicitEuler(cfg.Drag, cfg.MaxSpeed, cfg.StepSafety)
	}

	if !g.Frozen() {
		g.Freeze()
	}

	nodes := g.Nodes()
	pos := placement(len(nodes), cfg.Seed)
	s.bodies = make(dynamo.Bodies, len(nodes))
	s.index = make(map[string]int, len(nodes))
	for i, n := range nodes {
		mass := 1.0
		if !cfg.UniformMass {
			mass += float64(g.Degree(n.ID)) / 3
		}
		s.bodies[i] = dynamo.Body{ID: n.ID, Pos: pos[i], Mass: mass}
		s.index[n.ID] = i
	}
	s.springs = physics.Springs(g, cfg)
	s.acc = physics.NewAccumulator(cfg, s.backend)
	s.prev = make([]r2.Vec, len(nodes))
	s.strikes = make([]int, len(nodes))

	s.logger.Debug("simulator created",
		"nodes", len(s.bodies),
		"links", len(s.springs),
		"backend", s.backend.Name())
	return s, nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Step advances the layout by one time step.
func (s *Simulator) Step() (dynamo.StepStats, error) {
	for i := range s.bodies {
		s.prev[i] = s.bodies[i].Pos
	}

	tree := s.acc.Build(s.bodies)
	if err := s.acc.Accumulate(s.bodies, s.springs, tree); err != nil {
		return dynamo.StepStats{}, &dynamo.SimulationError{Step: s.steps + 1, Wrapped: err}
	}
	if t := s.temperature; t != 1 {
		for i := range s.bodies {
			s.bodies[i].Force = r2.Scale(t, s.bodies[i].Force)
			s.bodies[i].Stiffness *= t
		}
	}
	reset := s.integrator.Step(s.bodies, s.cfg.TimeStep)
	s.steps++

	stats := dynamo.StepStats{Step: s.steps, Temperature: s.temperature}
	s.temperature *= 1 - s.cfg.Cooling
	stats.Recovered = s.recordResets(reset)

	for i := range s.bodies {
		d := r2.Norm(r2.Sub(s.bodies[i].Pos, s.prev[i]))
		stats.Displacement += d
		stats.MaxDisplacement = math.Max(stats.MaxDisplacement, d)
	}
	if n := len(s.bodies); n > 0 {
		stats.Displacement /= float64(n)
	}

	s.energy = s.bodies.KineticEnergy()
	stats.Energy = s.energy
	s.appendTrace(s.energy)

	stats.Converged = s.MeanEnergy() < s.cfg.ConvergenceThreshold
	if stats.Converged {
		if s.phase != Converged {
			s.logger.Info("layout converged", "step", s.steps, "energy", s.energy)
		}
		if s.convergedAt < 0 {
			s.convergedAt = s.steps
		}
		s.phase = Converged
	} else {
		s.phase = Running
	}

	for _, m := range s.metrics {
		m.Observe(s.bodies, stats)
	}
	for _, o := range s.observers {
		o.OnStep(s.bodies, stats)
	}
	return stats, nil
}

func (s *Simulator) recordResets(reset []int) []string {
	hit := make(map[int]bool, len(reset))
	var ids []string
	for _, i := range reset {
		hit[i] = true
		ids = append(ids, s.bodies[i].ID)
		s.recoveries++
		s.logger.Warn("non-finite state reset",
			"step", s.steps,
			"node", s.bodies[i].ID,
			"consecutive", s.strikes[i]+1)
	}
	for i := range s.strikes {
		if !hit[i] {
			s.strikes[i] = 0
			continue
		}
		s.strikes[i]++
		if s.strikes[i] == s.cfg.InstabilityLimit {
			s.logger.Error("node unstable",
				"step", s.steps,
				"node", s.bodies[i].ID,
				"hint", "reduce the time step or lower drag")
		}
	}
	return ids
}

func (s *Simulator) appendTrace(e float64) {
	s.trace = append(s.trace, e)
	if s.traceCap > 0 && len(s.trace) > s.traceCap {
		n := copy(s.trace, s.trace[len(s.trace)-s.traceCap:])
		s.trace = s.trace[:n]
	}
}

// Run performs n steps, checking ctx between steps.
func (s *Simulator) Run(ctx context.Context, n int) (*Result, error) {
	return s.run(ctx, n, false)
}

// RunUntilConverged steps until the mean energy per body falls below the
// threshold or maxSteps steps were taken.
func (s *Simulator) RunUntilConverged(ctx context.Context, maxSteps int) (*Result, error) {
	return s.run(ctx, maxSteps, true)
}

func (s *Simulator) run(ctx context.Context, n int, stopOnConverged bool) (*Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: step count must be non-negative, got %d", dynamo.ErrParameterBounds, n)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Energy:      make([]float64, 0, n),
		ConvergedAt: -1,
		Metrics:     make(map[string]float64),
		Seed:        s.cfg.Seed,
	}

	var runErr error
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		stats, err := s.Step()
		if err != nil {
			runErr = err
			break
		}
		result.Energy = append(result.Energy, stats.Energy)
		result.Steps++
		if stats.Converged && result.ConvergedAt < 0 {
			result.ConvergedAt = stats.Step
		}
		if stats.Converged && stopOnConverged {
			break
		}
	}

	result.Positions = s.Positions()
	result.Converged = s.Converged()
	result.Potential = physics.PotentialEnergy(s.bodies, s.springs)
	result.Health = s.Health()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, runErr
}

// NodePosition returns the current position of id.
func (s *Simulator) NodePosition(id string) (r2.Vec, error) {
	i, ok := s.index[id]
	if !ok {
		return r2.Vec{}, fmt.Errorf("%w: %q", dynamo.ErrNodeNotFound, id)
	}
	return s.bodies[i].Pos, nil
}

func (s *Simulator) Positions() map[string]r2.Vec {
	out := make(map[string]r2.Vec, len(s.bodies))
	for _, b := range s.bodies {
		out[b.ID] = b.Pos
	}
	return out
}

// IDs returns node ids in body order.
func (s *Simulator) IDs() []string {
	ids := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		ids[i] = b.ID
	}
	return ids
}

// Bodies returns a copy of the current body states.
func (s *Simulator) Bodies() dynamo.Bodies { return s.bodies.Clone() }

func (s *Simulator) Springs() []physics.Spring { return s.springs }

func (s *Simulator) Graph() *graph.Graph { return s.graph }

func (s *Simulator) Config() dynamo.Config { return s.cfg }

// Energy is the kinetic energy after the last step.
func (s *Simulator) Energy() float64 { return s.energy }

// MeanEnergy is Energy per body, the quantity compared against
// ConvergenceThreshold. It is 0 for an empty layout.
func (s *Simulator) MeanEnergy() float64 {
	if len(s.bodies) == 0 {
		return 0
	}
	return s.energy / float64(len(s.bodies))
}

// Temperature is the force scale the next step applies. It starts at 1 and
// drops by Config.Cooling after every step.
func (s *Simulator) Temperature() float64 { return s.temperature }

// EnergyTrace returns a copy of the recorded per-step kinetic energies.
func (s *Simulator) EnergyTrace() []float64 {
	out := make([]float64, len(s.trace))
	copy(out, s.trace)
	return out
}

func (s *Simulator) Converged() bool { return s.phase == Converged }

func (s *Simulator) Phase() Phase { return s.phase }

func (s *Simulator) Steps() int { return s.steps }

// ConvergedAt is the first step that ended below the energy threshold, or -1.
func (s *Simulator) ConvergedAt() int { return s.convergedAt }

func (s *Simulator) Health() Health {
	h := Health{Step: s.steps, Recoveries: s.recoveries}
	for i, n := range s.strikes {
		if n >= s.cfg.InstabilityLimit {
			h.Unstable = append(h.Unstable, s.bodies[i].ID)
		}
	}
	return h
}
