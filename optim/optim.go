// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/spf13/viper"

	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
	"github.com/born-ml/updater/internal/updater"
)

// Updater interface defines the common interface for all update rules.
type Updater = updater.Updater

// Kind identifies an update rule.
type Kind = updater.Kind

// Supported update rules.
const (
	KindSGD      = updater.KindSGD
	KindAdaGrad  = updater.KindAdaGrad
	KindRMSProp  = updater.KindRMSProp
	KindMomentum = updater.KindMomentum
	KindNesterov = updater.KindNesterov
	KindFTRL     = updater.KindFTRL
)

// LaneWidth is the number of coordinates BatchUpdate processes per lane
// group. Batch lengths must be a multiple of it.
const LaneWidth = simd.Width

// Common errors.
var (
	ErrNotInitialized = updater.ErrNotInitialized
	ErrEmptyBatch     = updater.ErrEmptyBatch
	ErrUnalignedBatch = updater.ErrUnalignedBatch
	ErrUnknownKind    = updater.ErrUnknownKind
	ErrStateMismatch  = updater.ErrStateMismatch
)

// Hyperparameters

// HyperParameters configures an updater at Initialize.
type HyperParameters = hyper.HyperParameters

// ReguType selects the regularization penalty.
type ReguType = hyper.ReguType

// Supported regularization types.
const (
	ReguNone = hyper.ReguNone
	ReguL1   = hyper.ReguL1
	ReguL2   = hyper.ReguL2
	ReguL1L2 = hyper.ReguL1L2
)

// ConfigurationError reports one hyperparameter that violates its constraint.
type ConfigurationError = hyper.ConfigurationError

// DefaultHyperParameters returns the defaults used by the CLI.
func DefaultHyperParameters() HyperParameters {
	return hyper.Default()
}

// LoadHyperParameters reads hyperparameters from an optional config file and
// UPDATER_* environment variables, then validates them.
func LoadHyperParameters(path string) (HyperParameters, error) {
	return hyper.Load(viper.New(), path)
}

// Construction

// New creates an uninitialized updater of the given kind.
//
// Example:
//
//	u, err := optim.New(optim.KindNesterov)
//	if err != nil {
//	    return err
//	}
//	hp := optim.DefaultHyperParameters()
//	hp.NumParam = len(params)
//	if err := u.Initialize(hp); err != nil {
//	    return err
//	}
func New(kind Kind) (Updater, error) {
	return updater.New(kind)
}

// ParseKind parses an update rule name such as "nesterov".
func ParseKind(s string) (Kind, error) {
	return updater.ParseKind(s)
}

// Kinds returns every supported update rule.
func Kinds() []Kind {
	return updater.Kinds()
}

// Nesterov is the Nesterov accelerated gradient updater.
type Nesterov = updater.Nesterov

// NewNesterov creates a new Nesterov updater.
func NewNesterov() *Nesterov {
	return updater.NewNesterov()
}

// Momentum is the classical momentum updater.
type Momentum = updater.Momentum

// NewMomentum creates a new momentum updater.
func NewMomentum() *Momentum {
	return updater.NewMomentum()
}

// SGD is plain stochastic gradient descent.
type SGD = updater.SGD

// NewSGD creates a new SGD updater.
func NewSGD() *SGD {
	return updater.NewSGD()
}

// AdaGrad scales each coordinate by its accumulated squared gradients.
type AdaGrad = updater.AdaGrad

// NewAdaGrad creates a new AdaGrad updater.
func NewAdaGrad() *AdaGrad {
	return updater.NewAdaGrad()
}

// RMSProp scales each coordinate by a decaying average of squared gradients.
type RMSProp = updater.RMSProp

// NewRMSProp creates a new RMSProp updater.
func NewRMSProp() *RMSProp {
	return updater.NewRMSProp()
}

// FTRL is the FTRL-proximal updater with fused L1/L2 regularization.
type FTRL = updater.FTRL

// NewFTRL creates a new FTRL updater.
func NewFTRL() *FTRL {
	return updater.NewFTRL()
}
