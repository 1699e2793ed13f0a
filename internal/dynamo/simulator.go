package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// System returns the system being simulated.
func (s *Simulator) System() System { return s.sys }

// Run integrates x0 from t=0 to cfg.Duration. On cancellation or an invalid
// state the partial result is returned together with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d",
			ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	every := cfg.SampleEvery
	if every < 1 {
		every = 1
	}
	capHint := int(cfg.Duration/cfg.Dt)/every + 2
	if cfg.Adaptive || capHint > 1<<20 {
		capHint = 64
	}

	result := &Result{
		States:  make([]State, 0, capHint),
		Times:   make([]float64, 0, capHint),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	for i := 0; ; i++ {
		if cfg.Adaptive {
			if cfg.Duration-t <= cfg.MinDt {
				break
			}
		} else if i >= steps {
			break
		}

		select {
		case <-ctx.Done():
			s.collect(result)
			return result, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		var newX State
		used := dt
		if cfg.Adaptive {
			if t+dt > cfg.Duration {
				dt = cfg.Duration - t
			}
			var next float64
			var err error
			newX, used, next, err = s.adaptiveStep(x, t, dt, cfg)
			if err != nil {
				s.collect(result)
				return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
			}
			dt = next
		} else {
			newX = s.integrator.Step(s.sys, x, t, dt)
		}

		if cfg.ValidateState && !newX.IsValid() {
			s.collect(result)
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}

		x = newX
		if cfg.Adaptive {
			t += used
		} else {
			t = float64(i+1) * cfg.Dt
		}
		result.StepsTaken++

		if result.StepsTaken%every == 0 {
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
		}
	}

	if result.Times[len(result.Times)-1] != t {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// ValidateConfig checks the timing parameters of cfg.
func ValidateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	if cfg.Adaptive && cfg.MinDt <= 0 {
		return fmt.Errorf("%w: min dt must be positive for adaptive stepping", ErrInvalidConfig)
	}
	return nil
}

// adaptiveStep delegates to an AdaptiveIntegrator when available and
// otherwise falls back to step doubling with the fixed-step integrator.
func (s *Simulator) adaptiveStep(x State, t, dt float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		next, used, suggested, err := adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, 0, 0, err
		}
		if cfg.MaxDt > 0 && suggested > cfg.MaxDt {
			suggested = cfg.MaxDt
		}
		return next, used, math.Max(suggested, cfg.MinDt), nil
	}

	for {
		x1 := s.integrator.Step(s.sys, x, t, dt)
		xHalf := s.integrator.Step(s.sys, x, t, dt/2)
		x2 := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)

		err := x1.Sub(x2).Norm()
		if err > cfg.Tolerance {
			if dt/2 < cfg.MinDt {
				return nil, 0, 0, ErrStepTooSmall
			}
			dt /= 2
			continue
		}

		next := dt
		if err < cfg.Tolerance/10 {
			next = dt * 2
			if cfg.MaxDt > 0 {
				next = math.Min(next, cfg.MaxDt)
			}
		}
		return x2, dt, next, nil
	}
}
