package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type rateSystem struct{ rate float64 }

func (r *rateSystem) Derive(x State, _ float64) State { return State{-r.rate * x[0]} }
func (r *rateSystem) StateDim() int                   { return 1 }

func TestEnsembleRunOrdersResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	rates := []float64{0.1, 0.5, 1.0, 2.0, 3.0}
	jobs := make([]Job, len(rates))
	for i, r := range rates {
		jobs[i] = Job{Name: "decay", System: &rateSystem{rate: r}, Integrator: &testIntegrator{}, X0: State{1.0}}
	}

	ens := NewEnsemble(Config{Dt: 0.001, Duration: 1.0}, 2)
	results, err := ens.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, len(rates))

	for i, r := range rates {
		assert.InDelta(t, math.Exp(-r), results[i].Final()[0], 5e-3, "rate %v", r)
	}
}

func TestEnsembleFailureCancelsOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	jobs := []Job{
		{Name: "ok", System: &rateSystem{rate: 1}, Integrator: &testIntegrator{}, X0: State{1.0}},
		{Name: "bad", System: &rateSystem{rate: 1}, Integrator: &testIntegrator{}, X0: State{1.0, 2.0}},
	}

	ens := NewEnsemble(Config{Dt: 0.01, Duration: 1.0}, 0)
	results, err := ens.Run(context.Background(), jobs)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "got %v", err)
	assert.Contains(t, err.Error(), "bad")
}
