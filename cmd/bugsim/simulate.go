package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bugsim/internal/experiment"
	"github.com/san-kum/bugsim/internal/model"
	"github.com/san-kum/bugsim/internal/storage"
	"github.com/san-kum/bugsim/internal/telemetry"
	"github.com/san-kum/bugsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []experiment.Option{experiment.WithLogger(logger)}
	withTelemetry, _ := cmd.Flags().GetBool("telemetry")
	reg := prometheus.NewRegistry()
	if withTelemetry {
		collectors, err := telemetry.NewCollectors(reg)
		if err != nil {
			return err
		}
		opts = append(opts, experiment.WithTelemetry(collectors))
	}

	exp := experiment.New(cfg, opts...)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", cfg.Model)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunInfo{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		Preset:     preset,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Adaptive:   cfg.Adaptive,
		Params:     cfg.Params,
	}, result)
	if err != nil {
		return err
	}
	logger.Debug("run saved", zap.String("run_id", runID), zap.String("store", storeKind))

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	if withTelemetry {
		samples, err := telemetry.Snapshot(reg)
		if err != nil {
			return err
		}
		fmt.Println("\ntelemetry:")
		for _, s := range samples {
			fmt.Printf("  %s%s: %.0f\n", s.Name, formatLabels(s.Labels), s.Value)
		}
	}
	return nil
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func printRates(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	y := cfg.InitState.Slice()
	ydot := make([]float64, model.NumCompartments)
	model.Derive(&cfg.Params, y, ydot)

	fmt.Println(viz.RatesTable(model.CompartmentNames(), y, ydot))
	return nil
}

func printParams(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	integ, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	fps, _ := cmd.Flags().GetInt("fps")
	steps, _ := cmd.Flags().GetInt("steps")

	m := viz.NewLiveModel(cfg.Params, integ, cfg.InitialState(), cfg.Dt, steps, fps)

	p := tea.NewProgram(m, tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(viz.LiveModel); ok && lm.Err() != nil {
		return lm.Err()
	}
	return nil
}
