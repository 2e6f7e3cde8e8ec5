package sim

import (
	"errors"
	"io"
	"log/slog"

	"github.com/san-kum/springlayout/internal/compute"
	"github.com/san-kum/springlayout/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Phase is the driver state after the most recent step.
type Phase int

const (
	Running Phase = iota
	// Converged means the last step ended with mean kinetic energy per body
	// below the configured threshold. Stepping further is legal.
	Converged
)

func (p Phase) String() string {
	if p == Converged {
		return "converged"
	}
	return "running"
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackend overrides the repulsion backend chosen from Config.Workers.
func WithBackend(b compute.Backend) Option {
	return func(s *Simulator) { s.backend = b }
}

// WithIntegrator replaces the semi-implicit Euler integrator.
func WithIntegrator(i dynamo.Integrator) Option {
	return func(s *Simulator) { s.integrator = i }
}

// WithTraceCapacity keeps only the last n energy samples; n <= 0 keeps all.
func WithTraceCapacity(n int) Option {
	return func(s *Simulator) { s.traceCap = n }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Health reports nodes that kept producing non-finite values.
type Health struct {
	Step int
	// Unstable lists nodes whose state was reset on at least InstabilityLimit
	// consecutive steps, in node order.
	Unstable []string
	// Recoveries counts every per-node reset since the simulator was created.
	Recoveries int
}

func (h Health) OK() bool { return len(h.Unstable) == 0 }

// Err returns nil for a healthy run, otherwise one *dynamo.SimulationError
// per unstable node joined together. The result matches dynamo.ErrUnstable.
func (h Health) Err() error {
	if h.OK() {
		return nil
	}
	errs := make([]error, len(h.Unstable))
	for i, id := range h.Unstable {
		errs[i] = &dynamo.SimulationError{Step: h.Step, Node: id, Wrapped: dynamo.ErrUnstable}
	}
	return errors.Join(errs...)
}

type Result struct {
	Positions map[string]r2.Vec
	// Energy holds the kinetic energy after every step of this run.
	Energy []float64
	Steps  int
	// ConvergedAt is the simulator step at which the energy first fell below
	// the threshold during this run, or -1.
	ConvergedAt int
	Converged   bool
	// Potential is the spring potential energy of the final layout.
	Potential float64
	Metrics   map[string]float64
	Health    Health
	Seed      int64
}
