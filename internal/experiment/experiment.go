// Package experiment wires one layout run together: it reads the similarity
// table named by a config, builds the graph, attaches metrics and observers
// to a simulator and writes the result as GeoJSON.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/geojson"
	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/sim"
	"github.com/san-kum/springlayout/internal/similarity"
)

var ErrNotSetup = errors.New("experiment not set up")

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObserver(o dynamo.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

// WithMetrics replaces the registry's default metrics.
func WithMetrics(ms ...dynamo.Metric) Option {
	return func(e *Experiment) { e.metrics = append([]dynamo.Metric{}, ms...) }
}

func WithSimOptions(opts ...sim.Option) Option {
	return func(e *Experiment) { e.simOpts = append(e.simOpts, opts...) }
}

type Experiment struct {
	cfg       *config.Config
	logger    *slog.Logger
	observers []dynamo.Observer
	metrics   []dynamo.Metric
	simOpts   []sim.Option

	graph     *graph.Graph
	stats     similarity.Stats
	simulator *sim.Simulator
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewRegistry().DefaultMetrics()
	}
	return e
}

// Setup validates the config, reads cfg.Input and builds the simulator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if e.cfg.Input == "" {
		return fmt.Errorf("%w: no input file", dynamo.ErrInvalidGraph)
	}

	entries, err := similarity.LoadFile(e.cfg.Input)
	if err != nil {
		return err
	}
	filter := similarity.Filter{Min: e.cfg.Filter.MinSimilarity, Max: e.cfg.Filter.MaxSimilarity}
	g, stats, err := similarity.Build(entries, filter, graph.WithMergePolicy(e.cfg.MergePolicy()))
	if err != nil {
		return err
	}
	e.stats = stats
	e.logger.Info("graph loaded",
		"input", e.cfg.Input,
		"entries", stats.Entries,
		"pairs", stats.Pairs,
		"filtered", stats.Filtered,
		"skipped", stats.Skipped,
		"nodes", stats.Nodes,
		"links", stats.Links)

	return e.SetupGraph(g)
}

// SetupGraph builds the simulator for an already constructed graph.
func (e *Experiment) SetupGraph(g *graph.Graph) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	opts := append([]sim.Option{sim.WithLogger(e.logger)}, e.simOpts...)
	s, err := sim.New(g, e.cfg.Engine(), opts...)
	if err != nil {
		return err
	}
	for _, m := range e.metrics {
		s.AddMetric(m)
	}
	for _, o := range e.observers {
		s.AddObserver(o)
	}
	e.graph = g
	e.simulator = s
	return nil
}

// Run performs cfg.Iterations steps, stopping early on convergence when
// cfg.UntilConverged is set. Unstable nodes are logged, not returned as an
// error; see Result.Health.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}

	var (
		res *sim.Result
		err error
	)
	if e.cfg.UntilConverged {
		res, err = e.simulator.RunUntilConverged(ctx, e.cfg.Iterations)
	} else {
		res, err = e.simulator.Run(ctx, e.cfg.Iterations)
	}
	if err != nil {
		return res, err
	}

	if herr := res.Health.Err(); herr != nil {
		e.logger.Warn("layout finished with unstable nodes",
			"count", len(res.Health.Unstable),
			"err", herr)
	}
	e.logger.Info("layout finished",
		"steps", res.Steps,
		"converged", res.Converged,
		"converged_at", res.ConvergedAt,
		"potential", res.Potential)
	return res, nil
}

// WriteOutput stores the final positions at cfg.Output in graph node order.
func (e *Experiment) WriteOutput(res *sim.Result) error {
	if e.simulator == nil {
		return ErrNotSetup
	}
	fc, err := geojson.FromPositions(e.simulator.IDs(), res.Positions)
	if err != nil {
		return err
	}
	if err := geojson.Write(e.cfg.Output, fc); err != nil {
		return err
	}
	e.logger.Info("layout written", "output", e.cfg.Output, "features", len(fc.Features))
	return nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Graph() *graph.Graph { return e.graph }

// Stats describes how the input table was filtered; zero after SetupGraph.
func (e *Experiment) Stats() similarity.Stats { return e.stats }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
