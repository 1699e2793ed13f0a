// Package optim searches parameter grids for the run that minimizes a
// metric, e.g. the lowest peak infection over a range of clearance rates.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bugsim/internal/config"
	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/experiment"
	"github.com/san-kum/bugsim/internal/model"
)

var (
	ErrEmptyGrid = errors.New("optim: empty grid")

	// ErrNoFiniteValue means every grid point scored NaN or +Inf.
	ErrNoFiniteValue = errors.New("optim: no grid point has a finite value")
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64, workers int) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: workers}
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
}

// Combinations enumerates the grid in row-major order: the last parameter
// varies fastest.
func (g *GridSearch) Combinations() []map[string]float64 {
	if len(g.paramNames) == 0 {
		return nil
	}
	var out []map[string]float64
	g.combine(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) combine(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		cp := make(map[string]float64, len(current))
		for k, v := range current {
			cp[k] = v
		}
		*out = append(*out, cp)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.combine(depth+1, current, out)
	}
	delete(current, paramName)
}

// Search runs every grid point concurrently and returns the point with the
// smallest value of metricName, together with all evaluated points in grid
// order. Ties keep the earliest point.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	metricName string,
) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if err := base.Validate(); err != nil {
		return Point{}, nil, err
	}

	combos := g.Combinations()
	if len(combos) == 0 {
		return Point{}, nil, ErrEmptyGrid
	}

	jobs := make([]dynamo.Job, len(combos))
	for i, combo := range combos {
		p, err := apply(base.Params, combo)
		if err != nil {
			return Point{}, nil, err
		}
		sys, err := registry.GetModel(base.Model, p)
		if err != nil {
			return Point{}, nil, err
		}
		integ, err := registry.GetIntegrator(base.Integrator)
		if err != nil {
			return Point{}, nil, err
		}
		jobs[i] = dynamo.Job{
			Name:       fmt.Sprint(combo),
			System:     sys,
			Integrator: integ,
			X0:         base.InitialState(),
			Metrics:    registry.DefaultMetrics(),
		}
	}

	results, err := dynamo.NewEnsemble(base.SimConfig(), g.workers).Run(ctx, jobs)
	if err != nil {
		return Point{}, nil, err
	}

	points := make([]Point, len(results))
	for i, res := range results {
		val, ok := res.Metrics[metricName]
		if !ok {
			return Point{}, nil, fmt.Errorf("optim: unknown metric %q", metricName)
		}
		points[i] = Point{Params: combos[i], Value: val}
	}

	best, err := lowest(points)
	if err != nil {
		return Point{}, points, err
	}
	return best, points, nil
}

// lowest returns the earliest point with the smallest finite value. NaN and
// +Inf never win.
func lowest(points []Point) (Point, error) {
	idx := -1
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 1) {
			continue
		}
		if idx < 0 || p.Value < points[idx].Value {
			idx = i
		}
	}
	if idx < 0 {
		return Point{}, ErrNoFiniteValue
	}
	return points[idx], nil
}

func apply(p model.Params, combo map[string]float64) (model.Params, error) {
	for name, v := range combo {
		var err error
		if p, err = p.With(name, v); err != nil {
			return model.Params{}, err
		}
	}
	return p, nil
}
