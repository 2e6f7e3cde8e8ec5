package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/san-kum/springlayout/internal/dynamo"
	"github.com/san-kum/springlayout/internal/graph"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations    = 1000
	DefaultProgressEvery = 10
	DefaultMinSimilarity = 0.1
	DefaultMaxSimilarity = 1.0
	DefaultOutput        = "layout.geojson"
)

var validate = validator.New()

// Config describes one layout run as stored in a YAML file.
type Config struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	// Iterations is the step budget; with UntilConverged it is an upper bound.
	Iterations     int           `yaml:"iterations" validate:"gte=0"`
	UntilConverged bool          `yaml:"until_converged"`
	ProgressEvery  int           `yaml:"progress_every" validate:"gte=0"`
	Merge          string        `yaml:"merge" validate:"oneof=max sum mean reject"`
	Filter         FilterConfig  `yaml:"filter"`
	Physics        PhysicsConfig `yaml:"physics"`
}

// FilterConfig keeps similarities strictly between Min and Max.
type FilterConfig struct {
	MinSimilarity float64 `yaml:"min_similarity" validate:"gte=0,ltfield=MaxSimilarity"`
	MaxSimilarity float64 `yaml:"max_similarity"`
}

type PhysicsConfig struct {
	SpringCoefficient    float64 `yaml:"spring_coefficient"`
	Repulsion            float64 `yaml:"repulsion"`
	SpringLength         string  `yaml:"spring_length" validate:"oneof=inverse linear"`
	MinWeight            float64 `yaml:"min_weight"`
	TimeStep             float64 `yaml:"time_step"`
	Drag                 float64 `yaml:"drag"`
	Theta                float64 `yaml:"theta"`
	Centering            float64 `yaml:"centering"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	MaxSpeed             float64 `yaml:"max_speed"`
	MinDistance          float64 `yaml:"min_distance"`
	StepSafety           float64 `yaml:"step_safety"`
	Cooling              float64 `yaml:"cooling"`
	Workers              int     `yaml:"workers"`
	InstabilityLimit     int     `yaml:"instability_limit"`
	Seed                 int64   `yaml:"seed"`
	UniformMass          bool    `yaml:"uniform_mass"`
	ScaleByWeight        bool    `yaml:"scale_by_weight"`
}

func DefaultConfig() *Config {
	d := dynamo.DefaultConfig()
	return &Config{
		Output:        DefaultOutput,
		Iterations:    DefaultIterations,
		ProgressEvery: DefaultProgressEvery,
		Merge:         graph.MergeMax.String(),
		Filter: FilterConfig{
			MinSimilarity: DefaultMinSimilarity,
			MaxSimilarity: DefaultMaxSimilarity,
		},
		Physics: PhysicsConfig{
			SpringCoefficient:    d.SpringCoefficient,
			Repulsion:            d.Repulsion,
			SpringLength:         "inverse",
			MinWeight:            d.MinWeight,
			TimeStep:             d.TimeStep,
			Drag:                 d.Drag,
			Theta:                d.Theta,
			Centering:            d.Centering,
			ConvergenceThreshold: d.ConvergenceThreshold,
			MinDistance:          d.MinDistance,
			StepSafety:           d.StepSafety,
			Cooling:              d.Cooling,
			Workers:              d.Workers,
			InstabilityLimit:     d.InstabilityLimit,
		},
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate checks file-level settings and then the engine parameters.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s=%s, got %v",
				dynamo.ErrParameterBounds, fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	return c.Engine().Validate()
}

func (c *Config) MergePolicy() graph.MergePolicy {
	p, err := graph.ParseMergePolicy(c.Merge)
	if err != nil {
		return graph.MergeMax
	}
	return p
}

// Engine converts the physics section into the simulator's configuration.
func (c *Config) Engine() dynamo.Config {
	p := c.Physics
	cfg := dynamo.Config{
		SpringCoefficient:      p.SpringCoefficient,
		Repulsion:              p.Repulsion,
		MinWeight:              p.MinWeight,
		TimeStep:               p.TimeStep,
		Drag:                   p.Drag,
		Theta:                  p.Theta,
		Centering:              p.Centering,
		ConvergenceThreshold:   p.ConvergenceThreshold,
		MaxSpeed:               p.MaxSpeed,
		MinDistance:            p.MinDistance,
		StepSafety:             p.StepSafety,
		Cooling:                p.Cooling,
		Workers:                p.Workers,
		InstabilityLimit:       p.InstabilityLimit,
		Seed:                   p.Seed,
		UniformMass:            p.UniformMass,
		ScaleStiffnessByWeight: p.ScaleByWeight,
	}
	if p.SpringLength == "linear" && p.MinWeight > 0 {
		cfg.SpringLength = dynamo.LinearLength(p.MinWeight)
	}
	return cfg
}
