package config

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/springlayout/internal/dynamo"
)

// params maps the YAML keys of numeric physics settings to their fields.
// Integer settings are rounded to the nearest whole number.
var params = map[string]func(*PhysicsConfig, float64){
	"spring_coefficient":    func(p *PhysicsConfig, v float64) { p.SpringCoefficient = v },
	"repulsion":             func(p *PhysicsConfig, v float64) { p.Repulsion = v },
	"min_weight":            func(p *PhysicsConfig, v float64) { p.MinWeight = v },
	"time_step":             func(p *PhysicsConfig, v float64) { p.TimeStep = v },
	"drag":                  func(p *PhysicsConfig, v float64) { p.Drag = v },
	"theta":                 func(p *PhysicsConfig, v float64) { p.Theta = v },
	"centering":             func(p *PhysicsConfig, v float64) { p.Centering = v },
	"convergence_threshold": func(p *PhysicsConfig, v float64) { p.ConvergenceThreshold = v },
	"max_speed":             func(p *PhysicsConfig, v float64) { p.MaxSpeed = v },
	"min_distance":          func(p *PhysicsConfig, v float64) { p.MinDistance = v },
	"step_safety":           func(p *PhysicsConfig, v float64) { p.StepSafety = v },
	"cooling":               func(p *PhysicsConfig, v float64) { p.Cooling = v },
	"workers":               func(p *PhysicsConfig, v float64) { p.Workers = int(math.Round(v)) },
	"instability_limit":     func(p *PhysicsConfig, v float64) { p.InstabilityLimit = int(math.Round(v)) },
	"seed":                  func(p *PhysicsConfig, v float64) { p.Seed = int64(math.Round(v)) },
}

// SetParam assigns a physics setting by its YAML key. The value is not
// validated; call Validate afterwards.
func (c *Config) SetParam(name string, v float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrParameterBounds, name)
	}
	set(&c.Physics, v)
	return nil
}

// ParamNames lists the keys SetParam accepts.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
