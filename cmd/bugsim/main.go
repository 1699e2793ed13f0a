package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/bugsim/internal/config"
	"github.com/san-kum/bugsim/internal/model"
	"github.com/san-kum/bugsim/internal/storage"
)

var (
	dataDir    string
	storeKind  string
	verbose    bool
	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	adaptive   bool
	tolerance  float64
	// name=value overrides
	paramSets []string
	stateSets []string

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bugsim",
		Short: "squash bug host-pathogen population simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bugsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "file", "run store (file, sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().Bool("telemetry", false, "print derivative evaluation counters")

	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "evaluate the rates of change at the initial state",
		Args:  cobra.NoArgs,
		RunE:  printRates,
	}
	addSimFlags(ratesCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot compartments of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSlice("compartments", []string{"E", "A", "Ao", "AI", "AoI", "P_I"}, "compartments to plot")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot of two compartments",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().String("x", "A", "compartment on the x-axis")
	phaseCmd.Flags().String("y", "AI", "compartment on the y-axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum and dominant period of a compartment",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().String("compartment", "A", "compartment to analyze")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a saved run as csv to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a saved run as json to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write compartments or a phase portrait of a saved run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringSlice("compartments", []string{"A", "AI", "P_I"}, "compartments to draw against time")
	exportSVGCmd.Flags().String("phase", "", "draw a phase portrait instead, e.g. A,AI")
	exportSVGCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets(config.DefaultModel) {
				fmt.Println(name)
			}
			return nil
		},
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "print the resolved run configuration as yaml",
		Args:  cobra.NoArgs,
		RunE:  printParams,
	}
	addSimFlags(paramsCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and report the final value of a compartment",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().String("param", "B_pb", "parameter to vary")
	sweepCmd.Flags().Float64("min", 0, "first value")
	sweepCmd.Flags().Float64("max", 0.01, "last value")
	sweepCmd.Flags().Int("points", 11, "number of values")
	sweepCmd.Flags().String("target", "AI", "compartment to report")
	sweepCmd.Flags().Int("workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search for the parameters minimizing a metric",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}
	addSimFlags(optimizeCmd)
	optimizeCmd.Flags().StringArray("grid", nil, "name=v1,v2,... (repeatable)")
	optimizeCmd.Flags().String("metric", "peak_infected", "metric to minimize")
	optimizeCmd.Flags().Int("workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of chained phases",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run perturbed copies of the initial state",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().Int("trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64("perturb", 0.1, "relative perturbation of each compartment")
	monteCarloCmd.Flags().Int64("seed", 1, "random seed")
	monteCarloCmd.Flags().Int("workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive live view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().Int("fps", 30, "frame rate")
	liveCmd.Flags().Int("steps", 5, "integration steps per frame")

	rootCmd.AddCommand(
		runCmd, ratesCmd, listCmd, plotCmd, phaseCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, paramsCmd,
		sweepCmd, optimizeCmd, scenarioCmd, monteCarloCmd, liveCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, rk4, rk45)")
	f.BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	f.Float64Var(&tolerance, "tol", config.DefaultTolerance, "adaptive error tolerance")
	f.StringArrayVar(&paramSets, "set", nil, "parameter override name=value (repeatable)")
	f.StringArrayVar(&stateSets, "init", nil, "initial compartment override name=value (repeatable)")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(config.DefaultModel, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(config.DefaultModel))
		}
	}

	if configFile != "" {
		loaded, err := config.LoadWith(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}

	for _, kv := range paramSets {
		name, v, err := parseAssignment(kv)
		if err != nil {
			return nil, err
		}
		p, err := cfg.Params.With(name, v)
		if err != nil {
			return nil, err
		}
		cfg.Params = p
	}

	if len(stateSets) > 0 {
		y := cfg.InitState.Slice()
		for _, kv := range stateSets {
			name, v, err := parseAssignment(kv)
			if err != nil {
				return nil, err
			}
			i, err := model.CompartmentIndex(name)
			if err != nil {
				return nil, err
			}
			y[i] = v
		}
		state, err := model.CompartmentsFromSlice(y)
		if err != nil {
			return nil, err
		}
		cfg.InitState = state
	}

	return cfg, cfg.Validate()
}

func parseAssignment(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected name=value, got %q", kv)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(name), v, nil
}

func openStore() (storage.Store, error) {
	st, err := storage.Open(storeKind, dataDir, storage.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func compartmentIndices(names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, err := model.CompartmentIndex(n)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}
