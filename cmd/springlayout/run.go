package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/san-kum/springlayout/internal/analysis"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/experiment"
	"github.com/san-kum/springlayout/internal/export"
	"github.com/san-kum/springlayout/internal/metrics"
	"github.com/san-kum/springlayout/internal/sim"
	"github.com/san-kum/springlayout/internal/storage"
	"github.com/san-kum/springlayout/internal/viz"
	"github.com/spf13/cobra"
)

// progress logs every nth iteration, counting from 0, so the first step
// of a run is always reported.
type progress struct {
	every  int
	logger *slog.Logger
}

func (p progress) OnStep(_ dynamo.Bodies, stats dynamo.StepStats) {
	iteration := stats.Step - 1
	if p.every > 0 && iteration%p.every == 0 {
		p.logger.Info("progress",
			"iteration", iteration,
			"energy", stats.Energy,
			"displacement", stats.Displacement,
			"temperature", stats.Temperature)
	}
}

func runLayout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	opts := []experiment.Option{
		experiment.WithLogger(logger),
		experiment.WithObserver(progress{every: cfg.ProgressEvery, logger: logger}),
	}
	var collector *metrics.Collector
	if metricsOut != "" {
		collector = metrics.NewCollector()
		opts = append(opts, experiment.WithObserver(collector))
	}

	exp := experiment.New(cfg, opts...)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := exp.WriteOutput(res); err != nil {
		return err
	}

	s := exp.Simulator()
	if !quiet {
		for _, id := range s.IDs() {
			p := res.Positions[id]
			fmt.Printf("%s: (%.6f, %.6f)\n", id, p.X, p.Y)
		}
	}

	stress := analysis.Stress(s.Bodies(), s.Springs())
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Name:   runName(cfg.Input),
			Input:  cfg.Input,
			Merge:  cfg.Merge,
			Filter: cfg.Filter,
			Nodes:  exp.Graph().NodeCount(),
			Links:  exp.Graph().LinkCount(),
			Stress: stress,
			Params: cfg.Physics,
		}, s.IDs(), res)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run id: %s\n", runID)
	}

	if jsonOut != "" {
		if err := export.ExportJSON(jsonOut, export.NewLayout(runName(cfg.Input), exp.Graph(), res)); err != nil {
			return err
		}
	}
	if collector != nil {
		if err := collector.WriteTextfile(metricsOut); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "completed %d steps in %v (converged: %v, stress: %.4f)\n",
		res.Steps, elapsed.Round(time.Millisecond), res.Converged, stress)
	return res.Health.Err()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so engine logs are discarded.
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}
	g := exp.Graph()
	build := func(c dynamo.Config) (*sim.Simulator, error) {
		return sim.New(g, c, sim.WithTraceCapacity(600))
	}

	maxSteps := 0
	if cmd.Flags().Changed("iterations") {
		maxSteps = cfg.Iterations
	}
	m, err := viz.NewModel(runName(cfg.Input), cfg.Engine(), build, frameRate, maxSteps)
	if err != nil {
		return err
	}
	final, err := viz.Run(m)
	if err != nil {
		return err
	}

	s := final.Simulator()
	fmt.Printf("stopped after %d steps (%s, energy %.4g)\n", s.Steps(), s.Phase(), s.Energy())
	return nil
}
