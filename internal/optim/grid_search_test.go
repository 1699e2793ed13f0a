package optim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/san-kum/bugsim/internal/config"
	"github.com/san-kum/bugsim/internal/experiment"
	"github.com/san-kum/bugsim/internal/model"
)

func TestCombinations(t *testing.T) {
	g := NewGridSearch([]string{"c", "B_pb"}, [][]float64{{0.1, 0.2}, {1, 2, 3}}, 0)
	combos := g.Combinations()
	require.Len(t, combos, 6)
	assert.Equal(t, map[string]float64{"c": 0.1, "B_pb": 1}, combos[0])
	assert.Equal(t, map[string]float64{"c": 0.1, "B_pb": 2}, combos[1])
	assert.Equal(t, map[string]float64{"c": 0.2, "B_pb": 3}, combos[5])

	assert.Nil(t, NewGridSearch(nil, nil, 0).Combinations())
}

func TestSearchFindsLowestPeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := config.GetPreset(config.DefaultModel, "epizootic")
	base.Dt = 0.05
	base.Duration = 10

	// more transmission can only raise the infected peak
	g := NewGridSearch([]string{"B_pb"}, [][]float64{{0.02, 0.0, 0.01}}, 2)
	best, points, err := g.Search(context.Background(), base, experiment.NewRegistry(), "peak_infected")
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 0.0, best.Params["B_pb"])
	for _, p := range points {
		assert.LessOrEqual(t, best.Value, p.Value)
	}
	assert.Equal(t, 0.005, base.Params.Bpb, "base config must not change")
}

func TestSearchErrors(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 1
	reg := experiment.NewRegistry()

	_, _, err := NewGridSearch([]string{"c"}, nil, 0).Search(context.Background(), base, reg, "peak_infected")
	assert.Error(t, err)

	_, _, err = NewGridSearch(nil, nil, 0).Search(context.Background(), base, reg, "peak_infected")
	assert.ErrorIs(t, err, ErrEmptyGrid)

	_, _, err = NewGridSearch([]string{"omega"}, [][]float64{{1}}, 0).Search(context.Background(), base, reg, "peak_infected")
	assert.ErrorIs(t, err, model.ErrUnknownParam)

	_, _, err = NewGridSearch([]string{"c"}, [][]float64{{0.1}}, 0).Search(context.Background(), base, reg, "energy")
	assert.Error(t, err)
}

func TestSearchTieKeepsEarliest(t *testing.T) {
	base := config.GetPreset(config.DefaultModel, "disease_free")
	base.Duration = 5

	// nothing is ever infected, so every point scores zero
	g := NewGridSearch([]string{"c"}, [][]float64{{0.3, 0.1, 0.2}}, 0)
	best, points, err := g.Search(context.Background(), base, experiment.NewRegistry(), "peak_infected")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 0.0, best.Value)
	assert.Equal(t, 0.3, best.Params["c"])
}

func TestLowestSkipsNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name   string
		values []float64
		want   int
	}{
		{"nan first", []float64{nan, 3, 2}, 2},
		{"inf between", []float64{4, inf, 1}, 2},
		{"tie", []float64{nan, 5, 5}, 1},
		{"negative inf wins", []float64{1, math.Inf(-1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := make([]Point, len(tt.values))
			for i, v := range tt.values {
				points[i] = Point{Params: map[string]float64{"c": float64(i)}, Value: v}
			}
			best, err := lowest(points)
			require.NoError(t, err)
			assert.Equal(t, float64(tt.want), best.Params["c"])
		})
	}
}

func TestLowestAllNonFinite(t *testing.T) {
	points := []Point{
		{Params: map[string]float64{"c": 0.1}, Value: math.NaN()},
		{Params: map[string]float64{"c": 0.2}, Value: math.Inf(1)},
	}
	best, err := lowest(points)
	assert.ErrorIs(t, err, ErrNoFiniteValue)
	assert.Nil(t, best.Params)

	_, err = lowest(nil)
	assert.ErrorIs(t, err, ErrNoFiniteValue)
}
