package metrics

import (
	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
)

// PeakInfected tracks the largest total infected shadow population seen.
type PeakInfected struct {
	peak float64
}

func NewPeakInfected() *PeakInfected { return &PeakInfected{} }

func (m *PeakInfected) Name() string { return "peak_infected" }

func (m *PeakInfected) Observe(x dynamo.State, t float64) {
	if v := sum(x, model.InfectedIndices); v > m.peak {
		m.peak = v
	}
}

func (m *PeakInfected) Value() float64 { return m.peak }
func (m *PeakInfected) Reset()         { m.peak = 0 }

// HostTotal averages the total host density over all observations.
type HostTotal struct {
	total   float64
	samples int
}

func NewHostTotal() *HostTotal { return &HostTotal{} }

func (m *HostTotal) Name() string { return "mean_hosts" }

func (m *HostTotal) Observe(x dynamo.State, t float64) {
	m.total += sum(x, model.HostIndices)
	m.samples++
}

func (m *HostTotal) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *HostTotal) Reset() {
	m.total = 0
	m.samples = 0
}

// FinalParticles reports the free particle pool at the last observation.
type FinalParticles struct {
	last float64
}

func NewFinalParticles() *FinalParticles { return &FinalParticles{} }

func (m *FinalParticles) Name() string { return "final_particles" }

func (m *FinalParticles) Observe(x dynamo.State, t float64) {
	if len(x) > model.PI {
		m.last = x[model.PI]
	}
}

func (m *FinalParticles) Value() float64 { return m.last }
func (m *FinalParticles) Reset()         { m.last = 0 }

// Default returns the standard metric set for a model run.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewPositivity(),
		NewPeakInfected(),
		NewHostTotal(),
		NewFinalParticles(),
	}
}

func sum(x dynamo.State, idx []int) float64 {
	total := 0.0
	for _, i := range idx {
		if i < len(x) {
			total += x[i]
		}
	}
	return total
}
