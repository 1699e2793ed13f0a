// Package automation runs scripted sequences of simulations: YAML scenarios
// whose phases chain into each other, and Monte Carlo ensembles over
// perturbed initial states.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bugsim/internal/config"
	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/experiment"
	"github.com/san-kum/bugsim/internal/model"
	"github.com/san-kum/bugsim/internal/storage"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one phase of a scenario. Zero values inherit from the
// scenario preset. With Continue set the phase starts from the final state of
// the previous one, e.g. a season of treatment following an untreated season.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Params     map[string]float64 `yaml:"params"`
	InitState  map[string]float64 `yaml:"init_state"`
	Continue   bool               `yaml:"continue"`
	Save       bool               `yaml:"save"`
}

// StepResult pairs a phase with its outcome.
type StepResult struct {
	Step   ScenarioStep
	Result *dynamo.Result
	RunID  string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScenario, path)
	}

	return &scenario, nil
}

// Runner executes scenarios. Store may be nil when no step saves.
type Runner struct {
	Registry *experiment.Registry
	Store    storage.Store
	Log      *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) base(scenario *Scenario) (*config.Config, error) {
	if scenario.Preset == "" {
		return config.DefaultConfig(), nil
	}
	cfg := config.GetPreset(config.DefaultModel, scenario.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", scenario.Preset)
	}
	return cfg, nil
}

// StepConfig resolves a phase against the base configuration. prev is the
// final state of the previous phase, or nil.
func StepConfig(base *config.Config, step ScenarioStep, prev dynamo.State) (*config.Config, error) {
	cfg := base.Clone()
	if step.Integrator != "" {
		cfg.Integrator = step.Integrator
	}
	if step.Duration > 0 {
		cfg.Duration = step.Duration
	}
	if step.Dt > 0 {
		cfg.Dt = step.Dt
	}
	for name, v := range step.Params {
		p, err := cfg.Params.With(name, v)
		if err != nil {
			return nil, err
		}
		cfg.Params = p
	}

	y := cfg.InitState.Slice()
	if step.Continue && prev != nil {
		copy(y, prev)
	}
	for name, v := range step.InitState {
		i, err := model.CompartmentIndex(name)
		if err != nil {
			return nil, err
		}
		y[i] = v
	}
	state, err := model.CompartmentsFromSlice(y)
	if err != nil {
		return nil, err
	}
	cfg.InitState = state
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	base, err := r.base(scenario)
	if err != nil {
		return nil, err
	}
	log := r.logger().With(zap.String("scenario", scenario.Name))

	results := make([]StepResult, 0, len(scenario.Steps))
	var prev dynamo.State

	for i, step := range scenario.Steps {
		log.Info("scenario step",
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", step.Name),
		)

		cfg, err := StepConfig(base, step, prev)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, experiment.WithLogger(log))
		if err := exp.Setup(r.Registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: step, Result: result}
		if step.Save {
			if r.Store == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			sr.RunID, err = r.Store.Save(storage.RunInfo{
				Model:      cfg.Model,
				Integrator: cfg.Integrator,
				Preset:     scenario.Preset,
				Dt:         cfg.Dt,
				Duration:   cfg.Duration,
				Adaptive:   cfg.Adaptive,
				Params:     cfg.Params,
			}, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		results = append(results, sr)
		prev = result.Final()
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation is the relative half-width of the uniform noise applied
	// to every compartment. Perturbed values are clamped at zero.
	Perturbation float64
	NumTrials    int
	Workers      int
	Seed         int64
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	// Positive reports whether every sample stayed non-negative.
	Positive bool
	Metrics  map[string]float64
}

// RunMonteCarlo runs NumTrials perturbed copies of the base run concurrently.
// Initial states depend only on Seed, so results are reproducible.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo: need at least one trial")
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	base := cfg.Base.InitialState()

	jobs := make([]dynamo.Job, cfg.NumTrials)
	for trial := range jobs {
		initState := make(dynamo.State, len(base))
		for i, v := range base {
			initState[i] = max(0, v*(1+(rng.Float64()-0.5)*2*cfg.Perturbation))
		}

		sys, err := r.Registry.GetModel(cfg.Base.Model, cfg.Base.Params)
		if err != nil {
			return nil, err
		}
		integ, err := r.Registry.GetIntegrator(cfg.Base.Integrator)
		if err != nil {
			return nil, err
		}
		jobs[trial] = dynamo.Job{
			Name:       fmt.Sprintf("trial-%d", trial),
			System:     sys,
			Integrator: integ,
			X0:         initState,
			Metrics:    r.Registry.DefaultMetrics(),
		}
	}

	r.logger().Info("monte carlo starting",
		zap.Int("trials", cfg.NumTrials),
		zap.Float64("perturbation", cfg.Perturbation),
		zap.Int64("seed", cfg.Seed),
	)

	runs, err := dynamo.NewEnsemble(cfg.Base.SimConfig(), cfg.Workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, res := range runs {
		results[i] = MonteCarloResult{
			TrialID:    i,
			InitState:  jobs[i].X0,
			FinalState: res.Final(),
			Positive:   res.Metrics["positivity"] == 1,
			Metrics:    res.Metrics,
		}
	}
	return results, nil
}

// MonteCarloStats counts trials that stayed non-negative and those that did not
func MonteCarloStats(results []MonteCarloResult) (positive int, negative int) {
	for _, r := range results {
		if r.Positive {
			positive++
		} else {
			negative++
		}
	}
	return
}
