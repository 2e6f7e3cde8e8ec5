// Package automation runs scripted layout scenarios, parameter sweeps and
// seed studies.
package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/san-kum/springlayout/internal/analysis"
	"github.com/san-kum/springlayout/internal/config"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/experiment"
	"github.com/san-kum/springlayout/internal/graph"
	"github.com/san-kum/springlayout/internal/physics"
	"github.com/san-kum/springlayout/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of layout runs read from YAML.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	// dir resolves relative paths in steps.
	dir string
}

// ScenarioStep starts from Preset (or the defaults), then applies Params by
// their YAML key.
type ScenarioStep struct {
	Name           string             `yaml:"name"`
	Preset         string             `yaml:"preset"`
	Input          string             `yaml:"input"`
	Iterations     int                `yaml:"iterations"`
	UntilConverged bool               `yaml:"until_converged"`
	Params         map[string]float64 `yaml:"params"`
	SaveAs         string             `yaml:"save_as"`
}

// StepResult summarizes one finished scenario step.
type StepResult struct {
	Name   string
	Result *sim.Result
	Stress float64
	Spread analysis.Spread
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	scenario.dir = filepath.Dir(path)
	return &scenario, nil
}

func (s *Scenario) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// stepConfig builds the run configuration of one step.
func (s *Scenario) stepConfig(step ScenarioStep) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if step.Preset != "" {
		if cfg = config.GetPreset(step.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	}
	cfg.Input = s.resolve(step.Input)
	if step.Iterations > 0 {
		cfg.Iterations = step.Iterations
	}
	if step.UntilConverged {
		cfg.UntilConverged = true
	}
	for k, v := range step.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	if step.SaveAs != "" {
		cfg.Output = s.resolve(step.SaveAs)
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]StepResult, error) {
	logger = orDiscard(logger)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", name, "n", i+1, "of", len(scenario.Steps))

		cfg, err := scenario.stepConfig(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, experiment.WithLogger(logger))
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		if step.SaveAs != "" {
			if err := exp.WriteOutput(res); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		bodies := exp.Simulator().Bodies()
		results = append(results, StepResult{
			Name:   name,
			Result: res,
			Stress: analysis.Stress(bodies, exp.Simulator().Springs()),
			Spread: analysis.MeasureSpread(bodies),
		})
	}

	return results, nil
}

// ParameterSweep lays out one graph for NumSteps evenly spaced values of a
// physics parameter between ParamMin and ParamMax.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue  float64
	Steps       int
	ConvergedAt int
	FinalEnergy float64
	PeakEnergy  float64
	Potential   float64
	Stress      float64
	Spread      analysis.Spread
	Unstable    int
}

func (sw *ParameterSweep) values() []float64 {
	if sw.NumSteps == 1 {
		return []float64{sw.ParamMin}
	}
	step := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	vals := make([]float64, sw.NumSteps)
	for i := range vals {
		vals[i] = sw.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep runs the sweep on g. An out-of-range value aborts the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, g *graph.Graph, logger *slog.Logger) ([]SweepResult, error) {
	logger = orDiscard(logger)
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step, got %d", dynamo.ErrParameterBounds, sweep.NumSteps)
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i, v := range sweep.values() {
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}

		exp := experiment.New(cfg)
		if err := exp.SetupGraph(g); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		bodies := exp.Simulator().Bodies()
		results = append(results, SweepResult{
			ParamValue:  v,
			Steps:       res.Steps,
			ConvergedAt: res.ConvergedAt,
			FinalEnergy: exp.Simulator().Energy(),
			PeakEnergy:  res.Metrics["peak_energy"],
			Potential:   res.Potential,
			Stress:      analysis.Stress(bodies, exp.Simulator().Springs()),
			Spread:      analysis.MeasureSpread(bodies),
			Unstable:    len(res.Health.Unstable),
		})

		logger.Info("sweep", "n", i+1, "of", sweep.NumSteps, "param", sweep.ParamName, "value", v)
	}

	return results, nil
}

// SeedTrials lays out one graph NumTrials times from consecutive seeds to
// show how much the result depends on the initial placement.
type SeedTrials struct {
	Base      *config.Config
	NumTrials int
	SeedStart int64
}

type TrialResult struct {
	Seed        int64
	Potential   float64
	Stress      float64
	Converged   bool
	ConvergedAt int
	// Stable is false when any node ended the run unstable.
	Stable bool
}

// RunSeedTrials runs the trials concurrently. Results are in seed order.
func RunSeedTrials(ctx context.Context, trials *SeedTrials, g *graph.Graph, logger *slog.Logger) ([]TrialResult, error) {
	logger = orDiscard(logger)
	base := trials.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	engine := base.Engine()

	runs, err := sim.NewEnsemble(g, engine, trials.NumTrials, trials.SeedStart).Run(ctx, base.Iterations)
	if err != nil {
		return nil, err
	}

	springs := physics.Springs(g, engine)
	results := make([]TrialResult, len(runs))
	for i, res := range runs {
		results[i] = TrialResult{
			Seed:        res.Seed,
			Potential:   res.Potential,
			Stress:      analysis.Stress(bodiesAt(g, res), springs),
			Converged:   res.Converged,
			ConvergedAt: res.ConvergedAt,
			Stable:      res.Health.OK(),
		}
	}
	logger.Info("seed trials complete", "trials", len(results))
	return results, nil
}

func bodiesAt(g *graph.Graph, res *sim.Result) dynamo.Bodies {
	nodes := g.Nodes()
	bodies := make(dynamo.Bodies, len(nodes))
	for i, n := range nodes {
		bodies[i] = dynamo.Body{ID: n.ID, Pos: res.Positions[n.ID], Mass: 1}
	}
	return bodies
}

// TrialStats counts stable and unstable trials.
func TrialStats(results []TrialResult) (stable, unstable int) {
	for _, r := range results {
		if r.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
