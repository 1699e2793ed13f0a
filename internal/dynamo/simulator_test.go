package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type testSystem struct{}

func (t *testSystem) Derive(x State, time float64) State {
	return State{-x[0]}
}

func (t *testSystem) StateDim() int { return 1 }

type testIntegrator struct{}

func (t *testIntegrator) Step(sys System, x State, time float64, dt float64) State {
	dx := sys.Derive(x, time)
	return State{x[0] + dt*dx[0]}
}

type nanSystem struct{ after float64 }

func (n *nanSystem) Derive(x State, time float64) State {
	if time >= n.after {
		return State{math.Inf(1)}
	}
	return State{0}
}

func (n *nanSystem) StateDim() int { return 1 }

func TestSimulatorRun(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})

	cfg := Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}

	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}

	finalState := result.Final()[0]
	expected := 1.0 * math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}

	if x0[0] != 1.0 {
		t.Error("initial state modified")
	}
}

func TestSimulatorSampling(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})
	cfg := Config{Dt: 0.1, Duration: 1.0, SampleEvery: 3}

	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// t=0, steps 3, 6, 9, then the final step 10
	if len(result.States) != 5 {
		t.Errorf("expected 5 states, got %d", len(result.States))
	}
	if math.Abs(result.Times[len(result.Times)-1]-1.0) > 1e-12 {
		t.Errorf("expected final time 1.0, got %f", result.Times[len(result.Times)-1])
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, Adaptive: true, MinDt: 1e-6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), State{1.0}, tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})
	_, err := sim.Run(context.Background(), State{1.0, 2.0}, DefaultConfig())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	sim := New(&nanSystem{after: 0.5}, &testIntegrator{})
	cfg := Config{Dt: 0.1, Duration: 1.0, ValidateState: true}

	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	if simErr.Step != 5 {
		t.Errorf("expected failure at step 5, got %d", simErr.Step)
	}
	if result == nil || len(result.States) != 6 {
		t.Errorf("expected partial result with 6 states, got %v", result)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, ErrContextCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestSimulatorAdaptiveFallback(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})
	cfg := Config{Dt: 0.1, Duration: 2.0, Adaptive: true, Tolerance: 1e-5, MinDt: 1e-6, MaxDt: 0.5}

	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	last := result.Times[len(result.Times)-1]
	if math.Abs(last-2.0) > 1e-6 {
		t.Errorf("expected to reach t=2.0, got %f", last)
	}
	if math.Abs(result.Final()[0]-math.Exp(-2.0)) > 0.01 {
		t.Errorf("expected ~%.4f, got %.4f", math.Exp(-2.0), result.Final()[0])
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testSystem{}, &testIntegrator{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}
