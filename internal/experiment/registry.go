package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/integrators"
	"github.com/san-kum/bugsim/internal/metrics"
	"github.com/san-kum/bugsim/internal/model"
)

// ModelFactory builds a system for one parameter set. Each call returns an
// independent value, so concurrent runs never share parameters.
type ModelFactory func(p model.Params) (dynamo.System, error)

type Registry struct {
	models      map[string]ModelFactory
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]ModelFactory),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["squash_bug"] = func(p model.Params) (dynamo.System, error) {
		checked, err := model.NewParams(p.Slice())
		if err != nil {
			return nil, err
		}
		return model.NewSystem(checked), nil
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// RegisterModel adds or replaces a model factory.
func (r *Registry) RegisterModel(name string, fn ModelFactory) { r.models[name] = fn }

func (r *Registry) GetModel(name string, p model.Params) (dynamo.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(p)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string      { return sortedKeys(r.models) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }

// DefaultMetrics returns a fresh metric set; metrics carry per-run state.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return metrics.Default()
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
