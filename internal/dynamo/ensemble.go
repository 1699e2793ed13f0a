package dynamo

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one independent simulation in an Ensemble. Jobs must not share a
// System value when that system carries mutable state.
type Job struct {
	Name       string
	System     System
	Integrator Integrator
	X0         State
	Metrics    []Metric
}

// Ensemble runs jobs concurrently with a bounded number of workers.
type Ensemble struct {
	cfg     Config
	workers int
}

// NewEnsemble creates an ensemble. workers <= 0 uses GOMAXPROCS.
func NewEnsemble(cfg Config, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{cfg: cfg, workers: workers}
}

// Run executes every job and returns results in job order. The first failing
// job cancels the remaining ones.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range jobs {
		job := jobs[i]
		idx := i
		g.Go(func() error {
			s := New(job.System, job.Integrator)
			for _, m := range job.Metrics {
				s.AddMetric(m)
			}
			res, err := s.Run(gctx, job.X0, e.cfg)
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", idx, job.Name, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
