package metrics

import "github.com/san-kum/bugsim/internal/dynamo"

// Positivity reports the fraction of observed states in which every
// compartment is non-negative. The model does not enforce this itself, so a
// value below 1 flags an integrator step that overshot.
type Positivity struct {
	name       string
	violations int
	samples    int
}

func NewPositivity() *Positivity {
	return &Positivity{name: "positivity"}
}

func (p *Positivity) Name() string {
	return p.name
}

func (p *Positivity) Observe(x dynamo.State, t float64) {
	p.samples++
	if x.MinValue() < 0 {
		p.violations++
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
}
