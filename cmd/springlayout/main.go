package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/springlayout/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	output     string

	iterations     int
	untilConverged bool
	progressEvery  int
	merge          string
	minSimilarity  float64
	maxSimilarity  float64

	theta        float64
	timeStep     float64
	drag         float64
	repulsion    float64
	spring       float64
	centering    float64
	maxSpeed     float64
	springLength string
	workers      int
	seed         int64

	metricsOut string
	jsonOut    string
	noSave     bool
	quiet      bool

	frameRate int

	showWidth  int
	showHeight int
	svgWidth   int
	svgHeight  int
	exportOut  string
	svgOut     string
	benchSteps int
	labels     bool
	energy     bool
	logY       bool

	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int
	numTrials int
	grid      []string
	objective string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "springlayout",
		Short:         "force-directed layout of similarity graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".springlayout", "run store directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [input.json]",
		Short: "lay out a similarity table and write GeoJSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLayout,
	}
	layoutFlags(runCmd)
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also write a JSON layout document (- for stdout)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run in the store")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print final positions")

	liveCmd := &cobra.Command{
		Use:   "live [input.json]",
		Short: "watch a layout settle in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	layoutFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&logY, "log", false, "plot log10 of the energy")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "draw the final layout of a run as text",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&showWidth, "width", 78, "columns")
	showCmd.Flags().IntVar(&showHeight, "height", 30, "rows")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON, or write its layout as GeoJSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write the stored positions as GeoJSON to this file")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a stored layout as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 1024, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 768, "image height")
	svgCmd.Flags().BoolVar(&labels, "labels", false, "draw node names")
	svgCmd.Flags().BoolVar(&energy, "energy", false, "render the energy trace instead of the layout")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [input.json]",
		Short: "lay out one graph across a range of a physics parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	layoutFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&paramName, "param", "theta", "parameter to vary ("+strings.Join(config.ParamNames(), ", ")+")")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0.2, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 1.2, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 6, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [scenario.yaml]",
		Short: "run the layout steps of a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	trialsCmd := &cobra.Command{
		Use:   "trials [input.json]",
		Short: "lay out one graph from several seeds concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrials,
	}
	layoutFlags(trialsCmd)
	trialsCmd.Flags().IntVar(&numTrials, "trials", 8, "number of seeds")

	tuneCmd := &cobra.Command{
		Use:   "tune [input.json]",
		Short: "grid-search physics parameters for the best layout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	layoutFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", []string{"theta=0.5,0.8,1.2", "drag=0.8,0.9"}, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "stress", "score to minimize")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput on synthetic graphs",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchSteps, "iterations", 50, "steps per measurement")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, showCmd, exportCmd, svgCmd,
		presetsCmd, sweepCmd, scenarioCmd, trialsCmd, tuneCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// layoutFlags registers the flags shared by every command that builds a
// layout from a config.
func layoutFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset ("+strings.Join(config.ListPresets(), ", ")+")")
	f.StringVarP(&output, "output", "o", d.Output, "GeoJSON output file")
	f.IntVarP(&iterations, "iterations", "n", d.Iterations, "number of steps")
	f.BoolVar(&untilConverged, "until-converged", false, "stop early once the layout converges")
	f.IntVar(&progressEvery, "progress", d.ProgressEvery, "log progress every N steps (0 disables)")
	f.StringVar(&merge, "merge", d.Merge, "duplicate link policy (max, sum, mean, reject)")
	f.Float64Var(&minSimilarity, "min-similarity", d.Filter.MinSimilarity, "drop similarities at or below this")
	f.Float64Var(&maxSimilarity, "max-similarity", d.Filter.MaxSimilarity, "drop similarities at or above this")
	f.Float64Var(&theta, "theta", d.Physics.Theta, "Barnes-Hut opening angle (0 is exact)")
	f.Float64Var(&timeStep, "time-step", d.Physics.TimeStep, "integration time step")
	f.Float64Var(&drag, "drag", d.Physics.Drag, "velocity retained per step, in (0, 1]")
	f.Float64Var(&repulsion, "repulsion", d.Physics.Repulsion, "pair force coefficient (negative repels)")
	f.Float64Var(&spring, "spring", d.Physics.SpringCoefficient, "spring stiffness")
	f.Float64Var(&centering, "centering", d.Physics.Centering, "pull toward the centroid")
	f.Float64Var(&maxSpeed, "max-speed", d.Physics.MaxSpeed, "speed clamp (0 disables)")
	f.StringVar(&springLength, "spring-length", d.Physics.SpringLength, "rest length law (inverse, linear)")
	f.IntVar(&workers, "workers", d.Physics.Workers, "repulsion workers (0 uses every CPU)")
	f.Int64Var(&seed, "seed", d.Physics.Seed, "placement seed")
}

// loadConfig layers the preset, the config file, a positional input and
// finally any flag the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}

	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output = output
	}
	if f.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if f.Changed("until-converged") {
		cfg.UntilConverged = untilConverged
	}
	if f.Changed("progress") {
		cfg.ProgressEvery = progressEvery
	}
	if f.Changed("merge") {
		cfg.Merge = merge
	}
	if f.Changed("min-similarity") {
		cfg.Filter.MinSimilarity = minSimilarity
	}
	if f.Changed("max-similarity") {
		cfg.Filter.MaxSimilarity = maxSimilarity
	}
	if f.Changed("theta") {
		cfg.Physics.Theta = theta
	}
	if f.Changed("time-step") {
		cfg.Physics.TimeStep = timeStep
	}
	if f.Changed("drag") {
		cfg.Physics.Drag = drag
	}
	if f.Changed("repulsion") {
		cfg.Physics.Repulsion = repulsion
	}
	if f.Changed("spring") {
		cfg.Physics.SpringCoefficient = spring
	}
	if f.Changed("centering") {
		cfg.Physics.Centering = centering
	}
	if f.Changed("max-speed") {
		cfg.Physics.MaxSpeed = maxSpeed
	}
	if f.Changed("spring-length") {
		cfg.Physics.SpringLength = springLength
	}
	if f.Changed("workers") {
		cfg.Physics.Workers = workers
	}
	if f.Changed("seed") {
		cfg.Physics.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// runName derives a store name from the input file.
func runName(input string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "layout"
	}
	return name
}
