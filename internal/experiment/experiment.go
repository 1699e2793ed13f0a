package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/bugsim/internal/config"
	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
	"github.com/san-kum/bugsim/internal/telemetry"
)

var ErrNotSetup = errors.New("experiment: not set up")

// Experiment ties a run configuration to a simulator.
type Experiment struct {
	cfg       *config.Config
	simulator *dynamo.Simulator
	log       *zap.Logger
	telemetry *telemetry.Collectors
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTelemetry counts every derivative evaluation of the run on c.
func WithTelemetry(c *telemetry.Collectors) Option {
	return func(e *Experiment) { e.telemetry = c }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup validates the configuration and resolves its model, integrator and
// default metrics from the registry.
func (e *Experiment) Setup(r *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	sys, err := r.GetModel(e.cfg.Model, e.cfg.Params)
	if err != nil {
		return err
	}
	if e.telemetry != nil {
		sys = telemetry.Wrap(sys, e.telemetry, model.CompartmentNames())
	}
	integ, err := r.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	e.simulator = dynamo.New(sys, integ)
	for _, m := range r.DefaultMetrics() {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}

	x0 := e.cfg.InitialState()
	if dim := e.simulator.System().StateDim(); len(x0) != dim {
		return nil, fmt.Errorf("%w: init state has %d values, model %s expects %d",
			dynamo.ErrDimensionMismatch, len(x0), e.cfg.Model, dim)
	}

	e.log.Info("simulation starting",
		zap.String("model", e.cfg.Model),
		zap.String("integrator", e.cfg.Integrator),
		zap.Float64("dt", e.cfg.Dt),
		zap.Float64("duration", e.cfg.Duration),
		zap.Bool("adaptive", e.cfg.Adaptive),
	)
	start := time.Now()

	result, err := e.simulator.Run(ctx, x0, e.cfg.SimConfig())
	if err != nil {
		e.log.Warn("simulation failed", zap.Error(err))
		return result, err
	}

	e.log.Info("simulation finished",
		zap.Int("steps", result.StepsTaken),
		zap.Int("samples", len(result.States)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *dynamo.Simulator {
	return e.simulator
}

func (e *Experiment) Config() *config.Config { return e.cfg }
