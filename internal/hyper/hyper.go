// Package hyper defines the hyperparameters consumed by updaters at
// initialization, together with their validation and loading from config.
package hyper

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// ReguType selects the regularization penalty applied to the loss gradient.
type ReguType int

// Supported regularization types.
const (
	ReguNone ReguType = iota
	ReguL1
	ReguL2
	ReguL1L2
)

var reguNames = map[ReguType]string{
	ReguNone: "none",
	ReguL1:   "l1",
	ReguL2:   "l2",
	ReguL1L2: "l1l2",
}

// String returns the lower-case config form of the regularization type.
func (r ReguType) String() string {
	if name, ok := reguNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ReguType(%d)", int(r))
}

// Valid reports whether r is one of the known regularization types.
func (r ReguType) Valid() bool {
	_, ok := reguNames[r]
	return ok
}

// ParseReguType parses "none", "l1", "l2" or "l1l2" (case-insensitive).
// An empty string is an error: no regularization must be asked for as "none".
func ParseReguType(s string) (ReguType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for r, name := range reguNames {
		if name == key {
			return r, nil
		}
	}
	return ReguNone, fmt.Errorf("unknown regularization type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r ReguType) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown regularization type %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ReguType) UnmarshalText(text []byte) error {
	parsed, err := ParseReguType(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// HyperParameters configures an updater.
//
// ReguLambda1 and ReguLambda2 are validated for every updater even though only
// FTRL applies them itself; for the other rules the training loop adds
// PenaltyGradient to the loss gradient.
type HyperParameters struct {
	LearningRate float32  `mapstructure:"learning_rate" json:"learning_rate" validate:"gt=0"`
	ReguLambda1  float32  `mapstructure:"regu_lambda_1" json:"regu_lambda_1" validate:"gt=0"`
	ReguLambda2  float32  `mapstructure:"regu_lambda_2" json:"regu_lambda_2" validate:"gt=0"`
	ReguType     ReguType `mapstructure:"regu_type" json:"regu_type" validate:"regutype"`
	DecayRate    float32  `mapstructure:"decay_rate" json:"decay_rate" validate:"gte=0"`
	NumParam     int      `mapstructure:"num_param" json:"num_param" validate:"gte=0"`

	FTRLBeta float32 `mapstructure:"ftrl_beta" json:"ftrl_beta,omitempty" validate:"gte=0"` // FTRL β (default: 1.0)
	Epsilon  float32 `mapstructure:"epsilon" json:"epsilon,omitempty" validate:"gte=0"`     // AdaGrad/RMSProp denominator floor (default: 1e-7)
}

// Fallbacks used when FTRLBeta or Epsilon are left at zero.
const (
	DefaultFTRLBeta float32 = 1.0
	DefaultEpsilon  float32 = 1e-7
)

// Default returns hyperparameters used when a config leaves them unset.
func Default() HyperParameters {
	return HyperParameters{
		LearningRate: 0.2,
		ReguLambda1:  0.00002,
		ReguLambda2:  0.00002,
		ReguType:     ReguL2,
		DecayRate:    0.9,
		FTRLBeta:     DefaultFTRLBeta,
		Epsilon:      DefaultEpsilon,
	}
}

// ConfigurationError reports one hyperparameter that violates its constraint.
// Training cannot proceed with an updater built from an invalid configuration.
type ConfigurationError struct {
	Field      string // Config key, e.g. "learning_rate"
	Value      any    // Offending value
	Constraint string // Human-readable constraint, e.g. "> 0"
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid hyperparameter %s=%v: must be %s", e.Field, e.Value, e.Constraint)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	_ = v.RegisterValidation("regutype", func(fl validator.FieldLevel) bool {
		return ReguType(fl.Field().Int()).Valid()
	})
	return v
}

// Validate checks every precondition and returns all violations at once.
// Each violation is a *ConfigurationError; use errors.As to inspect them.
// NaN values fail every comparison and are therefore rejected.
func (h HyperParameters) Validate() error {
	err := validate.Struct(h)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var result *multierror.Error
	for _, fe := range verrs {
		result = multierror.Append(result, &ConfigurationError{
			Field:      fe.Field(),
			Value:      fe.Value(),
			Constraint: describeTag(fe.Tag(), fe.Param()),
		})
	}
	return result.ErrorOrNil()
}

func describeTag(tag, param string) string {
	switch tag {
	case "gt":
		return "> " + param
	case "gte":
		return ">= " + param
	case "regutype":
		return "one of none, l1, l2, l1l2"
	default:
		return tag + " " + param
	}
}

// PenaltyGradient returns the gradient of the regularization term at weight w.
//
//	L1:   λ1·sign(w)
//	L2:   λ2·w
//	L1L2: λ1·sign(w) + λ2·w
func (h HyperParameters) PenaltyGradient(w float32) float32 {
	switch h.ReguType {
	case ReguL1:
		return h.ReguLambda1 * sign(w)
	case ReguL2:
		return h.ReguLambda2 * w
	case ReguL1L2:
		return h.ReguLambda1*sign(w) + h.ReguLambda2*w
	default:
		return 0
	}
}

// Penalty returns the value of the regularization term for weights w.
func (h HyperParameters) Penalty(w []float32) float64 {
	var l1, l2 float64
	for _, x := range w {
		l1 += math.Abs(float64(x))
		l2 += float64(x) * float64(x)
	}
	switch h.ReguType {
	case ReguL1:
		return float64(h.ReguLambda1) * l1
	case ReguL2:
		return 0.5 * float64(h.ReguLambda2) * l2
	case ReguL1L2:
		return float64(h.ReguLambda1)*l1 + 0.5*float64(h.ReguLambda2)*l2
	default:
		return 0
	}
}

func sign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Beta returns FTRLBeta, or DefaultFTRLBeta when unset.
func (h HyperParameters) Beta() float32 {
	if h.FTRLBeta == 0 {
		return DefaultFTRLBeta
	}
	return h.FTRLBeta
}

// Eps returns Epsilon, or DefaultEpsilon when unset.
func (h HyperParameters) Eps() float32 {
	if h.Epsilon == 0 {
		return DefaultEpsilon
	}
	return h.Epsilon
}
