// Package updater implements per-coordinate parameter update rules.
//
// This package provides:
//   - Updater interface: lifecycle and update contract shared by all rules
//   - SGD: plain gradient descent
//   - AdaGrad and RMSProp: adaptive per-coordinate learning rates
//   - Momentum and Nesterov: velocity based rules
//   - FTRL: FTRL-proximal with fused L1/L2 regularization
//
// An updater owns its auxiliary state (velocity, accumulated squared
// gradients, ...) but never the parameter buffer, which the training loop
// passes into every call and which is mutated in place.
//
// Example usage:
//
//	u, _ := updater.New(updater.KindNesterov)
//	if err := u.Initialize(hp); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Training loop
//	for step := range steps {
//	    grads := computeGradient(params)
//	    body, _ := simd.Split(len(grads))
//	    if body > 0 {
//	        _ = u.BatchUpdate(grads[:body], 0, params)
//	    }
//	    for id := body; id < len(grads); id++ {
//	        u.Update(id, grads[id], params)
//	    }
//	}
//
// Updaters hold no locks. Concurrent calls are safe only when they touch
// disjoint coordinate ids.
package updater

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// Common errors.
var (
	ErrNotInitialized = errors.New("updater used before Initialize")
	ErrEmptyBatch     = errors.New("batch update with no values")
	ErrUnalignedBatch = errors.New("batch length is not a multiple of the lane width")
	ErrUnknownKind    = errors.New("unknown updater kind")
	ErrStateMismatch  = errors.New("updater state does not match model size")
)

// Updater is the interface shared by all update rules.
//
// All updaters must implement:
//   - Initialize: validate hyperparameters and allocate auxiliary state
//   - Update: apply the rule to one coordinate
//   - BatchUpdate: apply the rule to a lane-aligned contiguous range
type Updater interface {
	// Initialize validates hp and allocates zeroed auxiliary state of
	// length hp.NumParam. Any violation is returned as one or more
	// *hyper.ConfigurationError values; no update call is valid before
	// Initialize succeeds.
	Initialize(hp hyper.HyperParameters) error

	// Update applies one coordinate's step to param[id].
	//
	// The caller guarantees 0 <= id < NumParam and id < len(param). Nothing
	// is validated here unless built with the updaterdebug tag.
	Update(id int, grad float32, param []float32)

	// BatchUpdate applies the same rule to ids [startID, startID+len(values))
	// in groups of simd.Width lanes. len(values) must be a non-zero multiple
	// of simd.Width; remainders go through Update.
	BatchUpdate(values []float32, startID int, param []float32) error

	// Kind identifies the update rule.
	Kind() Kind

	// GetLR returns the current learning rate.
	GetLR() float32

	// StateDict returns a copy of the auxiliary state keyed by name.
	StateDict() map[string][]float32

	// LoadStateDict replaces the auxiliary state. Every vector must be
	// present and have length NumParam.
	LoadStateDict(state map[string][]float32) error
}

// Kind enumerates the update rules.
type Kind int

// Supported update rules.
const (
	KindSGD Kind = iota
	KindAdaGrad
	KindRMSProp
	KindMomentum
	KindNesterov
	KindFTRL
)

var kindNames = [...]string{
	KindSGD:      "sgd",
	KindAdaGrad:  "adagrad",
	KindRMSProp:  "rmsprop",
	KindMomentum: "momentum",
	KindNesterov: "nesterov",
	KindFTRL:     "ftrl",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every supported update rule.
func Kinds() []Kind {
	return []Kind{KindSGD, KindAdaGrad, KindRMSProp, KindMomentum, KindNesterov, KindFTRL}
}

// ParseKind parses an updater name such as "nesterov" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == key {
			return Kind(k), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}

// New returns an uninitialized updater for kind.
func New(kind Kind) (Updater, error) {
	switch kind {
	case KindSGD:
		return NewSGD(), nil
	case KindAdaGrad:
		return NewAdaGrad(), nil
	case KindRMSProp:
		return NewRMSProp(), nil
	case KindMomentum:
		return NewMomentum(), nil
	case KindNesterov:
		return NewNesterov(), nil
	case KindFTRL:
		return NewFTRL(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%v", kind)
	}
}

// base holds the hyperparameters every rule keeps after Initialize.
type base struct {
	lr       float32
	lambda1  float32
	lambda2  float32
	numParam int
	ready    bool
}

// configure validates hp and copies the shared hyperparameters.
func (b *base) configure(hp hyper.HyperParameters) error {
	b.ready = false
	if err := hp.Validate(); err != nil {
		return err
	}
	b.lr = hp.LearningRate
	b.lambda1 = hp.ReguLambda1
	b.lambda2 = hp.ReguLambda2
	b.numParam = hp.NumParam
	return nil
}

// GetLR returns the current learning rate.
func (b *base) GetLR() float32 {
	return b.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling between passes. It must not race with
// update calls.
func (b *base) SetLR(lr float32) {
	b.lr = lr
}

// checkBatch enforces the BatchUpdate preconditions.
func (b *base) checkBatch(values []float32, startID int, param []float32) error {
	if !b.ready {
		return ErrNotInitialized
	}
	if len(values) == 0 {
		return ErrEmptyBatch
	}
	if !simd.Aligned(len(values)) {
		return errors.Wrapf(ErrUnalignedBatch, "%d values, lane width %d", len(values), simd.Width)
	}
	if debugChecks {
		b.checkRange(startID, len(values), param)
	}
	return nil
}

// checkRange panics when [start, start+n) falls outside the state or param.
// Only called from debug builds.
func (b *base) checkRange(start, n int, param []float32) {
	if start < 0 || start+n > b.numParam || start+n > len(param) {
		panic(fmt.Sprintf("updater: ids [%d, %d) out of range (num_param %d, len(param) %d)",
			start, start+n, b.numParam, len(param)))
	}
}

// maxStateLen is the largest float32 state vector addressable on this platform.
const maxStateLen = math.MaxInt / 4

// allocState allocates a zeroed state vector of n values. Failure to allocate
// is reported as a configuration error naming the requested size; there is no
// degraded mode without state.
func allocState(n int) (state []float32, err error) {
	tooLarge := &hyper.ConfigurationError{
		Field:      "num_param",
		Value:      n,
		Constraint: fmt.Sprintf("allocatable (cannot allocate state for %d parameters)", n),
	}
	if n > maxStateLen {
		return nil, tooLarge
	}
	defer func() {
		if r := recover(); r != nil {
			state, err = nil, tooLarge
		}
	}()
	return make([]float32, n), nil
}

// copyState returns a copy of src for StateDict.
func copyState(src []float32) []float32 {
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

// checkState verifies that state[key] exists and holds n values.
func checkState(state map[string][]float32, key string, n int) error {
	src, ok := state[key]
	if !ok {
		return errors.Wrapf(ErrStateMismatch, "missing %q", key)
	}
	if len(src) != n {
		return errors.Wrapf(ErrStateMismatch, "%q: expected %d values, got %d", key, n, len(src))
	}
	return nil
}

// loadState copies state[key] into dst after checking its length.
func loadState(state map[string][]float32, key string, dst []float32) error {
	if err := checkState(state, key, len(dst)); err != nil {
		return err
	}
	copy(dst, state[key])
	return nil
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func sign32(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
