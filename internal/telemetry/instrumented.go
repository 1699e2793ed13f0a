// Package telemetry wraps systems with Prometheus counters. It is the
// validation layer for the derivative evaluator: the evaluator itself never
// checks its output, the wrapper counts what it sees.
package telemetry

import (
	"math"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/bugsim/internal/dynamo"
)

const namespace = "bugsim"

// Collectors groups the counters shared by every Instrumented system of a
// registry.
type Collectors struct {
	Evaluations prometheus.Counter
	NonFinite   prometheus.Counter
	Negative    *prometheus.CounterVec
}

// NewCollectors creates and registers the counters on reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivative_evaluations_total",
			Help:      "Number of right-hand side evaluations.",
		}),
		NonFinite: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonfinite_rates_total",
			Help:      "Evaluations that produced a NaN or Inf rate.",
		}),
		Negative: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negative_inputs_total",
			Help:      "Evaluations whose input state had a negative compartment.",
		}, []string{"compartment"}),
	}
	for _, col := range []prometheus.Collector{c.Evaluations, c.NonFinite, c.Negative} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Instrumented forwards to an inner System and records each evaluation.
type Instrumented struct {
	inner dynamo.System
	c     *Collectors
	names []string
}

// Wrap instruments sys. names labels compartments for the negative-input
// counter; missing names fall back to the index.
func Wrap(sys dynamo.System, c *Collectors, names []string) *Instrumented {
	return &Instrumented{inner: sys, c: c, names: names}
}

func (s *Instrumented) StateDim() int { return s.inner.StateDim() }

func (s *Instrumented) Derive(x dynamo.State, t float64) dynamo.State {
	s.c.Evaluations.Inc()
	for i, v := range x {
		if v < 0 {
			s.c.Negative.WithLabelValues(s.label(i)).Inc()
		}
	}
	dx := s.inner.Derive(x, t)
	for _, v := range dx {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.c.NonFinite.Inc()
			break
		}
	}
	return dx
}

func (s *Instrumented) label(i int) string {
	if i < len(s.names) {
		return s.names[i]
	}
	return "x" + strconv.Itoa(i)
}

// Sample is one counter value from a registry snapshot.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers every counter in g, sorted by name.
func Snapshot(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
