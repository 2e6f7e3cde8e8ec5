package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/springlayout/internal/automation"
	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/experiment"
	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/optim"
	"github.com/san-kum/springlayout/internal/sim"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tITERATIONS\tTIME STEP\tDRAG\tTHETA\tCENTERING\tMAX SPEED\tWORKERS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%g\t%g\t%d\n",
			name, p.Iterations, p.Physics.TimeStep, p.Physics.Drag, p.Physics.Theta,
			p.Physics.Centering, p.Physics.MaxSpeed, p.Physics.Workers)
	}
	return w.Flush()
}

// loadGraph reads and filters the similarity table named by cfg.
func loadGraph(cfg *config.Config, logger *slog.Logger) (*graph.Graph, error) {
	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp.Graph(), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	g, err := loadGraph(cfg, logger)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, g, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tCONVERGED\tENERGY\tPOTENTIAL\tSTRESS\tWIDTH\tHEIGHT\tUNSTABLE\n", strings.ToUpper(paramName))
	for _, r := range results {
		converged := "-"
		if r.ConvergedAt >= 0 {
			converged = fmt.Sprintf("@%d", r.ConvergedAt)
		}
		fmt.Fprintf(w, "%.4g\t%d\t%s\t%.4g\t%.4g\t%.4f\t%.2f\t%.2f\t%d\n",
			r.ParamValue, r.Steps, converged, r.FinalEnergy, r.Potential, r.Stress,
			r.Spread.Width(), r.Spread.Height(), r.Unstable)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if sc.Description != "" {
		fmt.Printf("%s: %s\n\n", sc.Name, sc.Description)
	}

	results, runErr := automation.RunScenario(cmd.Context(), sc, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tITERATIONS\tCONVERGED\tPOTENTIAL\tSTRESS\tRADIUS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%v\t%.4g\t%.4f\t%.2f\n",
			r.Name, r.Result.Steps, r.Result.Converged, r.Result.Potential, r.Stress, r.Spread.Radius)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runTrials(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	g, err := loadGraph(cfg, logger)
	if err != nil {
		return err
	}

	trials := &automation.SeedTrials{Base: cfg, NumTrials: numTrials, SeedStart: cfg.Physics.Seed}
	results, err := automation.RunSeedTrials(cmd.Context(), trials, g, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tPOTENTIAL\tSTRESS\tCONVERGED\tSTABLE")
	best := -1
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%.4g\t%.4f\t%v\t%v\n", r.Seed, r.Potential, r.Stress, r.Converged, r.Stable)
		if best < 0 || r.Potential < results[best].Potential {
			best = i
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.TrialStats(results)
	fmt.Printf("\nstable: %d, unstable: %d\n", stable, unstable)
	if best >= 0 {
		fmt.Printf("lowest potential: seed %d\n", results[best].Seed)
	}
	return nil
}

// parseGrid turns "name=v1,v2" flag values into parallel name and value lists.
func parseGrid(values []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(values))
	ranges := make([][]float64, 0, len(values))
	for _, arg := range values {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid --grid %q, want name=v1,v2", arg)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid --grid %q: %w", arg, err)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	obj, err := experiment.NewRegistry().GetObjective(objective)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, experiment.NewRegistry().ListObjectives())
	}
	g, err := loadGraph(cfg, logger)
	if err != nil {
		return err
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		for k, v := range params {
			if err := c.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(c)
		if err := exp.SetupGraph(g); err != nil {
			return nil, err
		}
		return exp, nil
	}

	best, score, trials, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), build, obj)
	for _, t := range trials {
		if t.Err != nil {
			logger.Warn("grid point failed", "params", t.Params, "err", t.Err)
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d combinations, best %s = %.6g\n", len(trials), objective, score)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}

// ringGraph links n nodes in a ring and adds n/2 random chords.
func ringGraph(n int, seed int64) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddLink(strconv.Itoa(i), strconv.Itoa((i+1)%n), 0.2+0.6*rng.Float64())
	}
	for i := 0; i < n/2; i++ {
		a, b := rng.Intn(n), rng.Intn(n)
		if a != b {
			g.AddLink(strconv.Itoa(a), strconv.Itoa(b), 0.1+0.8*rng.Float64())
		}
	}
	return g
}

func runBench(cmd *cobra.Command, args []string) error {
	sizes := []int{100, 1000, 5000}
	workerCounts := []int{1, 0}

	fmt.Printf("benchmarking %d steps per layout\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODES\tLINKS\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		g := ringGraph(n, 42)
		for _, wk := range workerCounts {
			cfg := config.DefaultConfig().Engine()
			cfg.Workers = wk
			cfg.ConvergenceThreshold = 0

			s, err := sim.New(g, cfg)
			if err != nil {
				return err
			}

			start := time.Now()
			res, err := s.Run(context.Background(), benchSteps)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			label := strconv.Itoa(wk)
			if wk == 0 {
				label = "all"
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%v\t%.0f\n",
				g.NodeCount(), g.LinkCount(), label, res.Steps,
				elapsed.Round(time.Millisecond), float64(res.Steps)/elapsed.Seconds())
		}
	}

	return w.Flush()
}
