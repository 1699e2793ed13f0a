package model

import (
	"errors"
	"fmt"
	"math"
)

// NumParams is the number of parameter slots.
const NumParams = 32

var (
	ErrParamCount   = errors.New("model: wrong number of parameters")
	ErrNonFinite    = errors.New("model: parameter is NaN or Inf")
	ErrUnknownParam = errors.New("model: unknown parameter")
)

// Params holds the rate constants. Field order matches the slot order of
// the flat parameter vector.
//
// DA and L are the overwintering/adult death and transition-out rates, B the
// fecundity and KE the egg carrying capacity. Dn/Mn are per-stage death and
// maturation rates, with an o suffix on the occluded route. P splits instar 1
// maturation between the routes. C is the back-conversion rate (scaled by Co
// on the occluded route), Bpb the host exposure rate, Bbp the particle
// production rate (scaled by Bo on the occluded route) and P0 the particle
// pool capacity.
type Params struct {
	DA  float64 `yaml:"d_A"`
	L   float64 `yaml:"l"`
	B   float64 `yaml:"b"`
	KE  float64 `yaml:"K_E"`
	DE  float64 `yaml:"d_E"`
	ME  float64 `yaml:"m_E"`
	D1  float64 `yaml:"d_1"`
	M1  float64 `yaml:"m_1"`
	D2  float64 `yaml:"d_2"`
	M2  float64 `yaml:"m_2"`
	D3  float64 `yaml:"d_3"`
	M3  float64 `yaml:"m_3"`
	D4  float64 `yaml:"d_4"`
	M4  float64 `yaml:"m_4"`
	D5  float64 `yaml:"d_5"`
	M5  float64 `yaml:"m_5"`
	P   float64 `yaml:"p"`
	D2o float64 `yaml:"d_2o"`
	M2o float64 `yaml:"m_2o"`
	D3o float64 `yaml:"d_3o"`
	M3o float64 `yaml:"m_3o"`
	D4o float64 `yaml:"d_4o"`
	M4o float64 `yaml:"m_4o"`
	D5o float64 `yaml:"d_5o"`
	M5o float64 `yaml:"m_5o"`
	DAo float64 `yaml:"d_Ao"`
	C   float64 `yaml:"c"`
	Bpb float64 `yaml:"B_pb"`
	Co  float64 `yaml:"c_o"`
	Bbp float64 `yaml:"B_bp"`
	Bo  float64 `yaml:"B_o"`
	P0  float64 `yaml:"P0"`
}

var paramNames = [NumParams]string{
	"d_A", "l", "b", "K_E", "d_E", "m_E",
	"d_1", "m_1", "d_2", "m_2", "d_3", "m_3", "d_4", "m_4", "d_5", "m_5",
	"p", "d_2o", "m_2o", "d_3o", "m_3o", "d_4o", "m_4o", "d_5o", "m_5o", "d_Ao",
	"c", "B_pb", "c_o", "B_bp", "B_o", "P0",
}

// ParamNames returns the parameter names in slot order.
func ParamNames() []string {
	out := make([]string, NumParams)
	copy(out, paramNames[:])
	return out
}

// ParamIndex returns the slot of the named parameter.
func ParamIndex(name string) (int, bool) {
	for i, n := range paramNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// NewParams builds Params from a flat slot-ordered vector. Only the length
// and finiteness are checked; any finite value is accepted for any slot.
func NewParams(values []float64) (Params, error) {
	if len(values) != NumParams {
		return Params{}, fmt.Errorf("%w: got %d, want %d", ErrParamCount, len(values), NumParams)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, fmt.Errorf("%w: %s=%v", ErrNonFinite, paramNames[i], v)
		}
	}
	var p Params
	p.fill(values)
	return p, nil
}

// Initialize declares the slot count to a host environment and lets it copy
// values into a fresh backing vector. The host is responsible for honoring
// the count; no validation is performed.
func Initialize(register func(count int, values []float64)) Params {
	backing := make([]float64, NumParams)
	register(NumParams, backing)
	var p Params
	p.fill(backing)
	return p
}

func (p *Params) fill(v []float64) {
	for i, ptr := range p.slots() {
		*ptr = v[i]
	}
}

func (p *Params) slots() [NumParams]*float64 {
	return [NumParams]*float64{
		&p.DA, &p.L, &p.B, &p.KE, &p.DE, &p.ME,
		&p.D1, &p.M1, &p.D2, &p.M2, &p.D3, &p.M3, &p.D4, &p.M4, &p.D5, &p.M5,
		&p.P, &p.D2o, &p.M2o, &p.D3o, &p.M3o, &p.D4o, &p.M4o, &p.D5o, &p.M5o, &p.DAo,
		&p.C, &p.Bpb, &p.Co, &p.Bbp, &p.Bo, &p.P0,
	}
}

// Slice returns the parameters as a slot-ordered vector.
func (p Params) Slice() []float64 {
	out := make([]float64, NumParams)
	for i, ptr := range p.slots() {
		out[i] = *ptr
	}
	return out
}

// Get returns the value of the named parameter.
func (p Params) Get(name string) (float64, error) {
	i, ok := ParamIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return *p.slots()[i], nil
}

// With returns a copy of p with one parameter replaced. p is not modified.
func (p Params) With(name string, value float64) (Params, error) {
	i, ok := ParamIndex(name)
	if !ok {
		return Params{}, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Params{}, fmt.Errorf("%w: %s=%v", ErrNonFinite, name, value)
	}
	*p.slots()[i] = value
	return p, nil
}

// Map returns the parameters keyed by name.
func (p Params) Map() map[string]float64 {
	m := make(map[string]float64, NumParams)
	for i, ptr := range p.slots() {
		m[paramNames[i]] = *ptr
	}
	return m
}
