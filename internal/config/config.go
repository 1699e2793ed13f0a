package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
)

const (
	DefaultModel       = "squash_bug"
	DefaultIntegrator  = "rk4"
	DefaultDt          = 0.1
	DefaultDuration    = 365.0
	DefaultTolerance   = 1e-6
	DefaultSampleEvery = 1
	DefaultDensity     = 100.0
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Model       string             `yaml:"model"`
	Integrator  string             `yaml:"integrator"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Adaptive    bool               `yaml:"adaptive"`
	Tolerance   float64            `yaml:"tolerance"`
	SampleEvery int                `yaml:"sample_every"`
	Params      model.Params       `yaml:"params"`
	InitState   model.Compartments `yaml:"init_state"`
}

// DefaultConfig is a disease-free population of DefaultDensity individuals in
// each uninfected compartment under the default parameter set.
func DefaultConfig() *Config {
	return &Config{
		Model:       DefaultModel,
		Integrator:  DefaultIntegrator,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Tolerance:   DefaultTolerance,
		SampleEvery: DefaultSampleEvery,
		Params:      model.DefaultParams(),
		InitState:   uninfected(DefaultDensity),
	}
}

func uninfected(n float64) model.Compartments {
	y := make([]float64, model.NumCompartments)
	for i := model.OA; i <= model.Ao; i++ {
		y[i] = n
	}
	c, _ := model.CompartmentsFromSlice(y)
	return c
}

// Load reads a YAML file on top of DefaultConfig, so omitted fields keep
// their defaults.
func Load(path string) (*Config, error) {
	return LoadWith(path, DefaultConfig())
}

// LoadWith reads a YAML file on top of a copy of base. base is not modified.
func LoadWith(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is empty", ErrInvalid)
	}
	if c.Integrator == "" {
		return fmt.Errorf("%w: integrator is empty", ErrInvalid)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("%w: adaptive stepping needs a positive tolerance", ErrInvalid)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("%w: sample_every must not be negative", ErrInvalid)
	}
	if _, err := c.ModelParams(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ModelParams checks the parameter block for non-finite values.
func (c *Config) ModelParams() (model.Params, error) {
	return model.NewParams(c.Params.Slice())
}

func (c *Config) InitialState() dynamo.State {
	return dynamo.State(c.InitState.Slice())
}

// SimConfig converts the run settings into a simulator config.
func (c *Config) SimConfig() dynamo.Config {
	sc := dynamo.DefaultConfig()
	sc.Dt = c.Dt
	sc.Duration = c.Duration
	sc.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		sc.Tolerance = c.Tolerance
	}
	if c.SampleEvery > 0 {
		sc.SampleEvery = c.SampleEvery
	}
	if sc.MaxDt < c.Dt {
		sc.MaxDt = c.Dt
	}
	return sc
}

// Clone returns a deep copy; Params and Compartments are plain values.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
