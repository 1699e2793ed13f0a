package model

import "github.com/san-kum/bugsim/internal/dynamo"

// System adapts the model to dynamo.System. It holds its own copy of the
// parameters, so concurrent runs with different parameter sets need only
// separate System values.
type System struct {
	params Params
}

func NewSystem(p Params) *System { return &System{params: p} }

func (s *System) StateDim() int { return NumCompartments }

// Params returns a copy of the parameters.
func (s *System) Params() Params { return s.params }

// Derive ignores t; the model is autonomous.
func (s *System) Derive(x dynamo.State, _ float64) dynamo.State {
	dx := make(dynamo.State, NumCompartments)
	Derive(&s.params, x, dx)
	return dx
}

// DefaultState is a disease-free start with 100 individuals in every
// uninfected compartment.
func (s *System) DefaultState() dynamo.State {
	x := make(dynamo.State, NumCompartments)
	for i := OA; i <= Ao; i++ {
		x[i] = 100
	}
	return x
}
