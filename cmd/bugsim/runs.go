package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bugsim/internal/analysis"
	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/export"
	"github.com/san-kum/bugsim/internal/model"
	"github.com/san-kum/bugsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tINTEG\tPRESET\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fd\t%.4g\t%s\t%s\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Preset,
			run.Steps,
		)
	}

	return w.Flush()
}

// loadRun reads metadata and samples of a stored run.
func loadRun(runID string) (*storage.RunMetadata, [][]float64, []float64, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, states, times, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("compartments")
	indices, err := compartmentIndices(names)
	if err != nil {
		return err
	}

	meta, states, _, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	for i, idx := range indices {
		data := analysis.Column(states, idx)
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(names[i]+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	xName, _ := cmd.Flags().GetString("x")
	yName, _ := cmd.Flags().GetString("y")
	idx, err := compartmentIndices([]string{xName, yName})
	if err != nil {
		return err
	}

	meta, states, _, err := loadRun(args[0])
	if err != nil {
		return err
	}

	portrait, err := analysis.PortraitFromStates(states, idx[0], idx[1])
	if err != nil {
		return err
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", xName, yName)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("compartment")
	idx, err := model.CompartmentIndex(name)
	if err != nil {
		return err
	}

	meta, states, times, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Adaptive {
		fmt.Println("warning: adaptive run, samples are not evenly spaced")
	}

	data := analysis.Column(states, idx)
	ps := analysis.PowerSpectrum(data)
	if len(ps) < 2 {
		return fmt.Errorf("not enough samples for a spectrum")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	graph := asciigraph.Plot(ps[:max(len(ps)/4, 2)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+name+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	spacing := 0.0
	if len(times) > 1 {
		spacing = times[1] - times[0]
	}
	period, ok := analysis.DominantPeriod(data, spacing)
	if !ok {
		fmt.Println("no dominant oscillation")
		return nil
	}
	fmt.Printf("dominant period: %.3f days\n", period)
	fmt.Printf("frequency: %.5f per day\n", 1/period)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, states, times, err := loadRun(args[0])
	if err != nil {
		return err
	}
	result := &dynamo.Result{Times: times, States: make([]dynamo.State, len(states))}
	for i, row := range states {
		result.States[i] = row
	}
	return storage.WriteCSV(os.Stdout, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, states, times, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, states, times)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, states, times, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var svg string
	if phase, _ := cmd.Flags().GetString("phase"); phase != "" {
		axes := strings.Split(phase, ",")
		if len(axes) != 2 {
			return fmt.Errorf("--phase wants two compartments, got %q", phase)
		}
		idx, err := compartmentIndices(axes)
		if err != nil {
			return err
		}
		portrait, err := analysis.PortraitFromStates(states, idx[0], idx[1])
		if err != nil {
			return err
		}
		svg = export.TrajectoryToSVG(portrait, 800, 600, "#00ccff")
	} else {
		names, _ := cmd.Flags().GetStringSlice("compartments")
		idx, err := compartmentIndices(names)
		if err != nil {
			return err
		}
		series := make([]export.Series, len(idx))
		for i, ci := range idx {
			series[i] = export.Series{Name: names[i], Values: analysis.Column(states, ci)}
		}
		svg = export.TimeSeriesSVG(times, series, 800, 600)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err = io.WriteString(os.Stdout, svg)
		return err
	}
	if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", out, meta.ID)
	return nil
}
