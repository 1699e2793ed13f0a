package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uninfectedState(v float64) []float64 {
	y := make([]float64, NumCompartments)
	for i := OA; i <= Ao; i++ {
		y[i] = v
	}
	return y
}

func mixedState() []float64 {
	return []float64{
		50, 200, 80, 60, 40, 30, 20, 10,
		45, 35, 25, 15, 5,
		6, 5, 4, 3, 2,
		7, 6, 5, 4, 3,
		120, 1, 2, 3, 8,
	}
}

func assertRates(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i], got[i], "compartment %s", compartmentNames[i])
	}
}

func TestDeriveReferenceUninfected(t *testing.T) {
	p := DefaultParams()
	ydot := make([]float64, NumCompartments)
	Derive(&p, uninfectedState(100), ydot)

	want := []float64{
		-3.0, 97.5, -6.0,
		-6.300000000000001, -2.0, -1.5000000000000018, -1.0000000000000018, 6.000000000000001,
		-8.2, -2.5, -2.0, -1.4999999999999991, 4.5,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}
	assertRates(t, want, ydot)
}

func TestDeriveReferenceMixed(t *testing.T) {
	p := DefaultParams()
	ydot := make([]float64, NumCompartments)
	Derive(&p, mixedState(), ydot)

	want := []float64{
		-1.1, 27.999999999999996, 7.199999999999999,
		-9.240000000000002, -3.3499999999999996, -2.95, -1.6500000000000004, 0.20000000000000018,
		-7.235, -4.025, -2.5749999999999997, -1.2249999999999996, 0.29999999999999993,
		6.09, 4.550000000000001, 3.4299999999999997, 2.3, 1.2899999999999998,
		4.3149999999999995, 3.99, 2.855, 1.85, 0.735,
		26.98, 5.7, 15.200000000000001, 6.08, -0.64,
	}
	assertRates(t, want, ydot)
}

func TestDeriveDeterministic(t *testing.T) {
	p := DefaultParams()
	y := mixedState()
	orig := append([]float64(nil), y...)

	first := make([]float64, NumCompartments)
	Derive(&p, y, first)
	for i := 0; i < 10; i++ {
		again := make([]float64, NumCompartments)
		Derive(&p, y, again)
		require.Equal(t, first, again)
	}
	assert.Equal(t, orig, y, "input state must not be modified")
	assert.Equal(t, DefaultParams(), p, "params must not be modified")
}

func TestDerivativesIgnoresTimeAndCount(t *testing.T) {
	p := DefaultParams()
	y := mixedState()

	want := make([]float64, NumCompartments)
	Derive(&p, y, want)

	for _, tc := range []struct {
		neq int
		t   float64
	}{
		{28, 0}, {28, 365.25}, {0, -10}, {99, math.MaxFloat64},
	} {
		got := make([]float64, NumCompartments)
		Derivatives(&p, tc.neq, tc.t, y, got)
		assert.Equal(t, want, got, "neq=%d t=%v", tc.neq, tc.t)
	}
}

func TestDeriveOverwritesOutput(t *testing.T) {
	p := DefaultParams()
	ydot := make([]float64, NumCompartments)
	for i := range ydot {
		ydot[i] = math.NaN()
	}
	Derive(&p, uninfectedState(100), ydot)
	for i, v := range ydot {
		assert.False(t, math.IsNaN(v), "rate %s not written", compartmentNames[i])
	}
}

func TestDeriveNegativeTrialState(t *testing.T) {
	p := DefaultParams()
	y := mixedState()
	for i := range y {
		y[i] = -y[i]
	}
	ydot := make([]float64, NumCompartments)
	Derive(&p, y, ydot)
	for i, v := range ydot {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "rate %s = %v", compartmentNames[i], v)
	}
}

// OAI has no inflow term; its exposure flow only feeds the OA_PI accumulator.
func TestOverwinteringShadowHasNoInflow(t *testing.T) {
	p := DefaultParams()
	y := make([]float64, NumCompartments)
	y[OA] = 100
	y[PI] = 400
	y[OAI] = 0

	ydot := make([]float64, NumCompartments)
	Derive(&p, y, ydot)
	assert.Zero(t, ydot[OAI])

	y[OAI] = 10
	Derive(&p, y, ydot)
	assert.Equal(t, -(p.DA+p.L+p.C)*10, ydot[OAI])
	assert.Equal(t, p.Bbp*10*(p.P0-400), ydot[OAPI])
}

// The L5oI inflow reads L2oI, not L4oI.
func TestOccludedInstarFiveInflowReadsInstarTwo(t *testing.T) {
	var p Params
	p.M4o = 0.5
	y := make([]float64, NumCompartments)
	y[L2oI] = 8
	y[L4oI] = 1000

	ydot := make([]float64, NumCompartments)
	Derive(&p, y, ydot)
	assert.Equal(t, 4.0, ydot[L5oI])
}

func TestOccludedAdultShadowUsesAdultDeathRate(t *testing.T) {
	var p Params
	p.DA = 0.1
	p.DAo = 0.7
	y := make([]float64, NumCompartments)
	y[AoI] = 10

	ydot := make([]float64, NumCompartments)
	Derive(&p, y, ydot)
	assert.Equal(t, -1.0, ydot[AoI])
}

func TestSystemAdapter(t *testing.T) {
	p := DefaultParams()
	sys := NewSystem(p)
	assert.Equal(t, NumCompartments, sys.StateDim())

	x := sys.DefaultState()
	dx := sys.Derive(x, 42)

	want := make([]float64, NumCompartments)
	Derive(&p, x, want)
	assert.Equal(t, want, []float64(dx))
	assert.Equal(t, p, sys.Params())
}

func BenchmarkDerive(b *testing.B) {
	p := DefaultParams()
	y := mixedState()
	ydot := make([]float64, NumCompartments)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Derive(&p, y, ydot)
	}
}
