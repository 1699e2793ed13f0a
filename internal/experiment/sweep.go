package experiment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/san-kum/bugsim/internal/config"
	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
)

var ErrInvalidSweep = errors.New("experiment: invalid sweep")

// Sweep varies one parameter linearly over [Min, Max] and runs every point
// concurrently from the same initial state.
type Sweep struct {
	Param  string
	Min    float64
	Max    float64
	Points int
	// Target names the compartment whose final value is reported.
	Target  string
	Workers int
}

type SweepPoint struct {
	Value   float64
	Final   float64
	State   dynamo.State
	Metrics map[string]float64
}

// Values returns the parameter value of each point. A single point uses Min.
func (s Sweep) Values() []float64 {
	if s.Points <= 0 {
		return nil
	}
	if s.Points == 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Points-1)
	values := make([]float64, s.Points)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	values[len(values)-1] = s.Max
	return values
}

func (s Sweep) validate() (int, error) {
	if _, ok := model.ParamIndex(s.Param); !ok {
		return 0, fmt.Errorf("%w: unknown parameter %q", ErrInvalidSweep, s.Param)
	}
	if s.Points < 1 {
		return 0, fmt.Errorf("%w: need at least one point", ErrInvalidSweep)
	}
	if s.Max < s.Min {
		return 0, fmt.Errorf("%w: max %g below min %g", ErrInvalidSweep, s.Max, s.Min)
	}
	idx, err := model.CompartmentIndex(s.Target)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSweep, err)
	}
	return idx, nil
}

// RunSweep runs every sweep point as an independent job. Results are in
// parameter order regardless of completion order.
func RunSweep(ctx context.Context, sweep Sweep, base *config.Config, r *Registry, log *zap.Logger) ([]SweepPoint, error) {
	if log == nil {
		log = zap.NewNop()
	}
	target, err := sweep.validate()
	if err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	values := sweep.Values()
	jobs := make([]dynamo.Job, len(values))
	for i, v := range values {
		p, err := base.Params.With(sweep.Param, v)
		if err != nil {
			return nil, err
		}
		sys, err := r.GetModel(base.Model, p)
		if err != nil {
			return nil, err
		}
		integ, err := r.GetIntegrator(base.Integrator)
		if err != nil {
			return nil, err
		}
		jobs[i] = dynamo.Job{
			Name:       sweep.Param + "=" + strconv.FormatFloat(v, 'g', -1, 64),
			System:     sys,
			Integrator: integ,
			X0:         base.InitialState(),
			Metrics:    r.DefaultMetrics(),
		}
	}

	log.Info("sweep starting",
		zap.String("param", sweep.Param),
		zap.Int("points", len(jobs)),
		zap.String("target", sweep.Target),
	)

	results, err := dynamo.NewEnsemble(base.SimConfig(), sweep.Workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, len(values))
	for i, res := range results {
		final := res.Final()
		points[i] = SweepPoint{
			Value:   values[i],
			Final:   final[target],
			State:   final,
			Metrics: res.Metrics,
		}
	}
	return points, nil
}
