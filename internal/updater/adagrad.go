package updater

import (
	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// AdaGrad scales each coordinate's step by its accumulated squared gradient:
//
//	cache += grad^2
//	param -= lr * grad / sqrt(cache + eps)
type AdaGrad struct {
	base
	eps   float32
	cache []float32
}

// NewAdaGrad returns an uninitialized AdaGrad updater.
func NewAdaGrad() *AdaGrad {
	return &AdaGrad{}
}

// Kind returns KindAdaGrad.
func (a *AdaGrad) Kind() Kind {
	return KindAdaGrad
}

// Initialize validates hp and allocates a zeroed accumulator.
func (a *AdaGrad) Initialize(hp hyper.HyperParameters) error {
	if err := a.configure(hp); err != nil {
		return err
	}
	cache, err := allocState(hp.NumParam)
	if err != nil {
		return err
	}
	a.eps = hp.Eps()
	a.cache = cache
	a.ready = true
	return nil
}

// Update applies one AdaGrad step to param[id].
func (a *AdaGrad) Update(id int, grad float32, param []float32) {
	if debugChecks {
		a.checkRange(id, 1, param)
	}
	a.cache[id] += grad * grad
	param[id] -= a.lr * grad / sqrt32(a.cache[id]+a.eps)
}

// BatchUpdate applies the AdaGrad step lane-wise.
func (a *AdaGrad) BatchUpdate(values []float32, startID int, param []float32) error {
	if err := a.checkBatch(values, startID, param); err != nil {
		return err
	}
	lr, eps := a.lr, a.eps
	for i := 0; i < len(values); i += simd.Width {
		id := startID + i
		g := simd.Lanes(values, i)
		c := simd.Lanes(a.cache, id)
		w := simd.Lanes(param, id)
		for k := range g {
			c[k] += g[k] * g[k]
			w[k] -= lr * g[k] / sqrt32(c[k]+eps)
		}
	}
	return nil
}

// StateDict exports the accumulator under "cache".
func (a *AdaGrad) StateDict() map[string][]float32 {
	return map[string][]float32{"cache": copyState(a.cache)}
}

// LoadStateDict restores the accumulator.
func (a *AdaGrad) LoadStateDict(state map[string][]float32) error {
	if !a.ready {
		return ErrNotInitialized
	}
	return loadState(state, "cache", a.cache)
}
