package updater

import (
	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// RMSProp keeps an exponential moving average of squared gradients:
//
//	cache  = rho * cache + (1 - rho) * grad^2
//	param -= lr * grad / sqrt(cache + eps)
//
// rho is HyperParameters.DecayRate.
type RMSProp struct {
	base
	rho   float32
	eps   float32
	cache []float32
}

// NewRMSProp returns an uninitialized RMSProp updater.
func NewRMSProp() *RMSProp {
	return &RMSProp{}
}

// Kind returns KindRMSProp.
func (r *RMSProp) Kind() Kind {
	return KindRMSProp
}

// Initialize validates hp and allocates a zeroed moving average.
func (r *RMSProp) Initialize(hp hyper.HyperParameters) error {
	if err := r.configure(hp); err != nil {
		return err
	}
	cache, err := allocState(hp.NumParam)
	if err != nil {
		return err
	}
	r.rho = hp.DecayRate
	r.eps = hp.Eps()
	r.cache = cache
	r.ready = true
	return nil
}

// Update applies one RMSProp step to param[id].
func (r *RMSProp) Update(id int, grad float32, param []float32) {
	if debugChecks {
		r.checkRange(id, 1, param)
	}
	r.cache[id] = r.rho*r.cache[id] + (1-r.rho)*grad*grad
	param[id] -= r.lr * grad / sqrt32(r.cache[id]+r.eps)
}

// BatchUpdate applies the RMSProp step lane-wise.
func (r *RMSProp) BatchUpdate(values []float32, startID int, param []float32) error {
	if err := r.checkBatch(values, startID, param); err != nil {
		return err
	}
	lr, rho, eps := r.lr, r.rho, r.eps
	oneMinusRho := 1 - rho
	for i := 0; i < len(values); i += simd.Width {
		id := startID + i
		g := simd.Lanes(values, i)
		c := simd.Lanes(r.cache, id)
		w := simd.Lanes(param, id)
		for k := range g {
			c[k] = rho*c[k] + oneMinusRho*g[k]*g[k]
			w[k] -= lr * g[k] / sqrt32(c[k]+eps)
		}
	}
	return nil
}

// StateDict exports the moving average under "cache".
func (r *RMSProp) StateDict() map[string][]float32 {
	return map[string][]float32{"cache": copyState(r.cache)}
}

// LoadStateDict restores the moving average.
func (r *RMSProp) LoadStateDict(state map[string][]float32) error {
	if !r.ready {
		return ErrNotInitialized
	}
	return loadState(state, "cache", r.cache)
}
