package metrics

import (
	"testing"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
)

func state(set map[int]float64) dynamo.State {
	x := make(dynamo.State, model.NumCompartments)
	for i, v := range set {
		x[i] = v
	}
	return x
}

func TestPositivity(t *testing.T) {
	m := NewPositivity()
	if m.Value() != 1.0 {
		t.Errorf("expected 1.0 with no samples, got %f", m.Value())
	}

	m.Observe(state(map[int]float64{model.E: 10}), 0)
	m.Observe(state(map[int]float64{model.L3: -0.1}), 1)
	m.Observe(state(nil), 2)
	m.Observe(state(map[int]float64{model.PI: -5}), 3)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Errorf("expected 1.0 after reset, got %f", m.Value())
	}
}

func TestPeakInfected(t *testing.T) {
	m := NewPeakInfected()
	m.Observe(state(map[int]float64{model.L2I: 3, model.OAI: 2}), 0)
	m.Observe(state(map[int]float64{model.AoI: 4, model.L5I: 4}), 1)
	m.Observe(state(map[int]float64{model.L2: 100, model.PI: 900}), 2)

	if m.Value() != 8 {
		t.Errorf("expected peak 8, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestHostTotalExcludesParticles(t *testing.T) {
	m := NewHostTotal()
	m.Observe(state(map[int]float64{model.OA: 10, model.PI: 1000, model.SymPI: 50}), 0)
	m.Observe(state(map[int]float64{model.OA: 20, model.OAI: 10}), 1)

	if m.Value() != 20 {
		t.Errorf("expected mean 20, got %f", m.Value())
	}
}

func TestFinalParticles(t *testing.T) {
	m := NewFinalParticles()
	m.Observe(state(map[int]float64{model.PI: 5}), 0)
	m.Observe(state(map[int]float64{model.PI: 7}), 1)
	if m.Value() != 7 {
		t.Errorf("expected 7, got %f", m.Value())
	}
}

func TestDefaultNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric name %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
