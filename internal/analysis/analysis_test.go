package analysis

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/integrators"
	"github.com/san-kum/bugsim/internal/model"
)

func TestPortraitFromStates(t *testing.T) {
	states := [][]float64{{1, 2, 3}, {4, 5, 6}}
	p, err := PortraitFromStates(states, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []Point{{3, 1}, {6, 4}}, p.Points)

	_, err = PortraitFromStates(states, 3, 0)
	assert.ErrorIs(t, err, ErrAxis)
}

func TestGeneratePhasePortrait(t *testing.T) {
	sys := model.NewSystem(model.DefaultParams())
	x0 := sys.DefaultState()
	cfg := dynamo.DefaultConfig()
	cfg.Dt = 1
	cfg.Duration = 20

	p, err := GeneratePhasePortrait(context.Background(), sys, integrators.NewRK4(), x0, model.A, model.E, cfg)
	require.NoError(t, err)
	require.Len(t, p.Points, 21)
	assert.Equal(t, Point{X: 100, Y: 100}, p.Points[0])

	_, err = GeneratePhasePortrait(context.Background(), sys, integrators.NewRK4(), x0, 28, 0, cfg)
	assert.ErrorIs(t, err, ErrAxis)
}

func TestPhasePortraitToASCII(t *testing.T) {
	p := &PhasePortrait2D{Points: []Point{{0, 0}, {1, 1}, {2, 4}}}
	out := PhasePortraitToASCII(p, 20, 5)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 5+3)
	assert.Contains(t, out, ".")
	assert.Contains(t, out, "o")
	assert.Contains(t, out, "●")

	assert.Empty(t, PhasePortraitToASCII(nil, 20, 5))
	assert.Empty(t, PhasePortraitToASCII(&PhasePortrait2D{}, 20, 5))
}

func TestFFTImpulse(t *testing.T) {
	out := FFT([]float64{1, 0, 0, 0})
	for _, c := range out {
		assert.InDelta(t, 1, real(c), 1e-12)
		assert.InDelta(t, 0, imag(c), 1e-12)
	}
}

func TestDominantPeriod(t *testing.T) {
	series := make([]float64, 256)
	for i := range series {
		series[i] = 50 + 10*math.Sin(2*math.Pi*float64(i)/16)
	}
	period, ok := DominantPeriod(series, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 8, period, 1e-9)

	_, ok = DominantPeriod(make([]float64, 64), 1)
	assert.False(t, ok, "flat series has no period")

	_, ok = DominantPeriod([]float64{1, 2}, 1)
	assert.False(t, ok)
}

func TestPowerSpectrumPads(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	assert.Len(t, ps, 64)
}

func TestColumn(t *testing.T) {
	assert.Equal(t, []float64{2, 5}, Column([][]float64{{1, 2}, {4, 5}, {7}}, 1))
}
