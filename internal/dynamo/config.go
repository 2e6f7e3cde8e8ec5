package dynamo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultSpringCoefficient    = 0.3
	DefaultRepulsion            = -1.2
	DefaultMinWeight            = 0.01
	DefaultTimeStep             = 0.5
	DefaultDrag                 = 0.9
	DefaultTheta                = 0.8
	DefaultCentering            = 0.01
	DefaultConvergenceThreshold = 1e-5
	DefaultMinDistance          = 1e-3
	DefaultInstabilityLimit     = 10
	DefaultStepSafety           = 1
	DefaultCooling              = 0.01
)

var validate = validator.New()

// SpringLengthFunc maps a link weight to the rest length of its spring.
type SpringLengthFunc func(weight float64) float64

// InverseLength returns L(w) = 1/max(w, minWeight). Weights at or below the
// floor share the longest rest length 1/minWeight.
func InverseLength(minWeight float64) SpringLengthFunc {
	return func(w float64) float64 {
		if math.IsNaN(w) || w < minWeight {
			w = minWeight
		}
		return 1 / w
	}
}

// LinearLength interpolates linearly between 1 at w = 1 and 1/minWeight at
// w = minWeight, clamping w to that range. It spans the same lengths as
// InverseLength but grows evenly as the weight drops.
func LinearLength(minWeight float64) SpringLengthFunc {
	return func(w float64) float64 {
		if minWeight >= 1 {
			return 1
		}
		if math.IsNaN(w) || w < minWeight {
			w = minWeight
		}
		if w > 1 {
			w = 1
		}
		return 1 + (1/minWeight-1)*(1-w)/(1-minWeight)
	}
}

// Config holds the physical parameters of a layout run.
type Config struct {
	SpringCoefficient float64 `validate:"gte=0"`
	// Repulsion scales the inverse-square pair force; negative pushes apart.
	Repulsion float64
	// SpringLength defaults to InverseLength(MinWeight) when nil.
	SpringLength SpringLengthFunc `validate:"-"`
	MinWeight    float64          `validate:"gt=0,lte=1"`
	TimeStep     float64          `validate:"gt=0"`
	Drag         float64          `validate:"gt=0,lte=1"`
	Theta        float64          `validate:"gte=0,lte=1.5"`
	// Centering pulls every body toward the mass centroid; 0 disables it.
	Centering float64 `validate:"gte=0"`
	// ConvergenceThreshold bounds the mean kinetic energy per body.
	ConvergenceThreshold float64 `validate:"gte=0"`
	// MaxSpeed clamps |v| after drag; 0 disables the clamp.
	MaxSpeed    float64 `validate:"gte=0"`
	MinDistance float64 `validate:"gt=0"`
	// StepSafety caps ω·h for each body, shortening the step of stiff
	// bodies; 0 disables the limit.
	StepSafety float64 `validate:"gte=0"`
	// Cooling is the fraction by which the force scale drops after every
	// step; 0 keeps full forces.
	Cooling float64 `validate:"gte=0,lt=1"`
	// Workers > 1 evaluates repulsion in parallel; 0 uses one worker per CPU.
	Workers          int `validate:"gte=0"`
	InstabilityLimit int `validate:"gte=1"`
	Seed             int64
	// UniformMass gives every body mass 1 instead of 1 + degree/3.
	UniformMass bool
	// ScaleStiffnessByWeight multiplies each spring's stiffness by its weight.
	ScaleStiffnessByWeight bool
}

func DefaultConfig() Config {
	return Config{
		SpringCoefficient:    DefaultSpringCoefficient,
		Repulsion:            DefaultRepulsion,
		MinWeight:            DefaultMinWeight,
		TimeStep:             DefaultTimeStep,
		Drag:                 DefaultDrag,
		Theta:                DefaultTheta,
		Centering:            DefaultCentering,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		MinDistance:          DefaultMinDistance,
		StepSafety:           DefaultStepSafety,
		Cooling:              DefaultCooling,
		Workers:              1,
		InstabilityLimit:     DefaultInstabilityLimit,
	}
}

// Length returns the rest length for weight w under this configuration.
func (c Config) Length(w float64) float64 {
	if c.SpringLength != nil {
		return c.SpringLength(w)
	}
	return InverseLength(c.MinWeight)(w)
}

// Validate reports the first parameter outside its valid range.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s=%s, got %v",
				ErrParameterBounds, fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrParameterBounds, err)
	}
	for name, v := range map[string]float64{
		"SpringCoefficient":    c.SpringCoefficient,
		"Repulsion":            c.Repulsion,
		"TimeStep":             c.TimeStep,
		"Centering":            c.Centering,
		"ConvergenceThreshold": c.ConvergenceThreshold,
		"MaxSpeed":             c.MaxSpeed,
		"MinDistance":          c.MinDistance,
		"StepSafety":           c.StepSafety,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrParameterBounds, name, v)
		}
	}
	return nil
}
