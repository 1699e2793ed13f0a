package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/bugsim/internal/automation"
	"github.com/san-kum/bugsim/internal/experiment"
	"github.com/san-kum/bugsim/internal/model"
	"github.com/san-kum/bugsim/internal/optim"
)

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	var sw experiment.Sweep
	sw.Param, _ = f.GetString("param")
	sw.Min, _ = f.GetFloat64("min")
	sw.Max, _ = f.GetFloat64("max")
	sw.Points, _ = f.GetInt("points")
	sw.Target, _ = f.GetString("target")
	sw.Workers, _ = f.GetInt("workers")

	points, err := experiment.RunSweep(cmd.Context(), sw, cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL %s\tPEAK INFECTED\tPOSITIVITY\n", sw.Param, sw.Target)
	for _, p := range points {
		fmt.Fprintf(w, "%.6g\t%.6g\t%.6g\t%.3f\n",
			p.Value, p.Final, p.Metrics["peak_infected"], p.Metrics["positivity"])
	}
	return w.Flush()
}

// parseGrid reads name=v1,v2,... entries in flag order.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, e := range entries {
		name, raw, ok := strings.Cut(e, "=")
		if !ok {
			return nil, nil, fmt.Errorf("expected name=v1,v2,..., got %q", e)
		}
		name = strings.TrimSpace(name)
		if _, ok := model.ParamIndex(name); !ok {
			return nil, nil, fmt.Errorf("unknown parameter %q", name)
		}
		var values []float64
		for _, field := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	grid, _ := cmd.Flags().GetStringArray("grid")
	metric, _ := cmd.Flags().GetString("metric")
	workers, _ := cmd.Flags().GetInt("workers")

	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	gs := optim.NewGridSearch(names, ranges, workers)
	best, points, err := gs.Search(cmd.Context(), cfg, experiment.NewRegistry(), metric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d points, minimizing %s\n\n", len(points), metric)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.Join(names, "\t"), strings.ToUpper(metric))
	for _, p := range points {
		for _, n := range names {
			fmt.Fprintf(w, "%.6g\t", p.Params[n])
		}
		fmt.Fprintf(w, "%.6g\n", p.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest: %s = %.6g at", metric, best.Value)
	for _, n := range names {
		fmt.Printf(" %s=%.6g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runner := &automation.Runner{Registry: experiment.NewRegistry(), Store: st, Log: logger}
	results, err := runner.RunScenario(cmd.Context(), sc)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	infected := model.InfectedIndices
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tSTEPS\tEND\tINFECTED\tP_I\tRUN")
	for _, r := range results {
		final := r.Result.Final()
		total := 0.0
		for _, i := range infected {
			total += final[i]
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.6g\t%.6g\t%s\n",
			r.Step.Name,
			r.Result.StepsTaken,
			r.Result.Times[len(r.Result.Times)-1],
			total,
			final[model.PI],
			r.RunID,
		)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	mc := automation.MonteCarloConfig{Base: cfg}
	mc.NumTrials, _ = f.GetInt("trials")
	mc.Perturbation, _ = f.GetFloat64("perturb")
	mc.Seed, _ = f.GetInt64("seed")
	mc.Workers, _ = f.GetInt("workers")

	runner := &automation.Runner{Registry: experiment.NewRegistry(), Log: logger}
	results, err := runner.RunMonteCarlo(cmd.Context(), mc)
	if err != nil {
		return err
	}

	positive, negative := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d (non-negative %d, went negative %d)\n\n", len(results), positive, negative)

	peaks := make([]float64, len(results))
	for i, r := range results {
		peaks[i] = r.Metrics["peak_infected"]
	}
	sort.Float64s(peaks)
	fmt.Printf("peak infected: min %.6g  median %.6g  max %.6g\n",
		peaks[0], peaks[len(peaks)/2], peaks[len(peaks)-1])
	return nil
}
