package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/integrators"
	"github.com/san-kum/bugsim/internal/model"
)

func TestInstrumentedCountsEvaluations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	base := model.NewSystem(model.DefaultParams())
	sys := Wrap(base, c, model.CompartmentNames())
	assert.Equal(t, model.NumCompartments, sys.StateDim())

	x := base.DefaultState()
	got := sys.Derive(x, 0)
	assert.Equal(t, base.Derive(x, 0), got, "wrapper must not alter rates")

	sim := dynamo.New(sys, integrators.NewRK4())
	cfg := dynamo.DefaultConfig()
	cfg.Dt = 1
	cfg.Duration = 10
	_, err = sim.Run(context.Background(), x, cfg)
	require.NoError(t, err)

	// one direct call plus four stages per RK4 step
	assert.Equal(t, 1.0+4*10, testutil.ToFloat64(c.Evaluations))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.NonFinite))
}

func TestInstrumentedNonFinite(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	// K_E = 0 makes the egg term 0/0
	sys := Wrap(model.NewSystem(model.Params{}), c, model.CompartmentNames())
	sys.Derive(make(dynamo.State, model.NumCompartments), 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.NonFinite))
}

func TestInstrumentedNegativeInputs(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	sys := Wrap(model.NewSystem(model.DefaultParams()), c, model.CompartmentNames())
	x := make(dynamo.State, model.NumCompartments)
	x[model.PI] = -1
	x[model.L3] = -2
	sys.Derive(x, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Negative.WithLabelValues("P_I")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Negative.WithLabelValues("L3")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Negative.WithLabelValues("OA")))
}

func TestUnnamedCompartmentLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	sys := Wrap(model.NewSystem(model.DefaultParams()), c, nil)
	x := make(dynamo.State, model.NumCompartments)
	x[12] = -1
	sys.Derive(x, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Negative.WithLabelValues("x12")))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollectors(reg)
	require.NoError(t, err)
	_, err = NewCollectors(reg)
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	sys := Wrap(model.NewSystem(model.DefaultParams()), c, model.CompartmentNames())
	x := make(dynamo.State, model.NumCompartments)
	x[model.E] = -1
	sys.Derive(x, 0)
	sys.Derive(x, 0)

	samples, err := Snapshot(reg)
	require.NoError(t, err)

	byName := map[string]Sample{}
	for _, s := range samples {
		byName[s.Name] = s
	}
	assert.Equal(t, 2.0, byName["bugsim_derivative_evaluations_total"].Value)
	assert.Equal(t, 2.0, byName["bugsim_negative_inputs_total"].Value)
	assert.Equal(t, "E", byName["bugsim_negative_inputs_total"].Labels["compartment"])
	for i := 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i-1].Name, samples[i].Name)
	}
}
