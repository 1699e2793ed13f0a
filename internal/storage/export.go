package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/bugsim/internal/dynamo"
)

// ExportData is the JSON document written by ExportJSON.
type ExportData struct {
	ID           string             `json:"id"`
	Model        string             `json:"model"`
	Integrator   string             `json:"integrator"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Steps        int                `json:"steps"`
	Compartments []string           `json:"compartments"`
	Params       map[string]float64 `json:"params"`
	Times        []float64          `json:"times"`
	States       [][]float64        `json:"states"`
	Metrics      map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, states [][]float64, times []float64) error {
	dim := 0
	if len(states) > 0 {
		dim = len(states[0])
	}
	data := ExportData{
		ID:           meta.ID,
		Model:        meta.Model,
		Integrator:   meta.Integrator,
		Dt:           meta.Dt,
		Duration:     meta.Duration,
		Steps:        meta.Steps,
		Compartments: Header(dim)[1:],
		Params:       meta.Params,
		Times:        times,
		States:       states,
		Metrics:      meta.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes a header row and one row per recorded state. Values use
// the shortest representation that parses back to the same float64.
func WriteCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)

	if len(result.States) > 0 {
		if err := cw.Write(Header(len(result.States[0]))); err != nil {
			return err
		}
	}

	for i := range result.States {
		row := []string{formatFloat(result.Times[i])}
		for _, val := range result.States[i] {
			row = append(row, formatFloat(val))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
