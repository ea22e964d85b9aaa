package updater

import (
	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// FTRL implements per-coordinate FTRL-proximal with L1 and L2 terms fused
// into the closed-form weight:
//
//	sigma = (sqrt(n + grad^2) - sqrt(n)) / alpha
//	z    += grad - sigma * w
//	n    += grad^2
//	w     = 0                                                  if |z| <= lambda1
//	w     = -(z - sign(z)*lambda1) / ((beta + sqrt(n))/alpha + lambda2)  otherwise
//
// alpha is the learning rate and beta is HyperParameters.FTRLBeta. Unlike the
// other rules FTRL overwrites param[id] rather than adding to it, and the
// training loop must not add a penalty gradient of its own.
type FTRL struct {
	base
	beta float32
	z    []float32
	n    []float32
}

// NewFTRL returns an uninitialized FTRL updater.
func NewFTRL() *FTRL {
	return &FTRL{}
}

// Kind returns KindFTRL.
func (f *FTRL) Kind() Kind {
	return KindFTRL
}

// Initialize validates hp and allocates zeroed z and n accumulators.
func (f *FTRL) Initialize(hp hyper.HyperParameters) error {
	if err := f.configure(hp); err != nil {
		return err
	}
	z, err := allocState(hp.NumParam)
	if err != nil {
		return err
	}
	n, err := allocState(hp.NumParam)
	if err != nil {
		return err
	}
	f.beta = hp.Beta()
	f.z = z
	f.n = n
	f.ready = true
	return nil
}

// Update applies one FTRL step to param[id].
func (f *FTRL) Update(id int, grad float32, param []float32) {
	if debugChecks {
		f.checkRange(id, 1, param)
	}
	param[id] = f.step(&f.z[id], &f.n[id], grad, param[id])
}

// BatchUpdate applies the FTRL step lane-wise.
func (f *FTRL) BatchUpdate(values []float32, startID int, param []float32) error {
	if err := f.checkBatch(values, startID, param); err != nil {
		return err
	}
	for i := 0; i < len(values); i += simd.Width {
		id := startID + i
		g := simd.Lanes(values, i)
		z := simd.Lanes(f.z, id)
		n := simd.Lanes(f.n, id)
		w := simd.Lanes(param, id)
		for k := range g {
			w[k] = f.step(&z[k], &n[k], g[k], w[k])
		}
	}
	return nil
}

// step advances one coordinate's z and n and returns the new weight.
func (f *FTRL) step(z, n *float32, grad, w float32) float32 {
	alpha := f.lr
	nNew := *n + grad*grad
	sigma := (sqrt32(nNew) - sqrt32(*n)) / alpha
	*z += grad - sigma*w
	*n = nNew

	zv := *z
	if zv <= f.lambda1 && zv >= -f.lambda1 {
		return 0
	}
	return -(zv - sign32(zv)*f.lambda1) / ((f.beta+sqrt32(nNew))/alpha + f.lambda2)
}

// StateDict exports the accumulators under "z" and "n".
func (f *FTRL) StateDict() map[string][]float32 {
	return map[string][]float32{
		"z": copyState(f.z),
		"n": copyState(f.n),
	}
}

// LoadStateDict restores both accumulators.
func (f *FTRL) LoadStateDict(state map[string][]float32) error {
	if !f.ready {
		return ErrNotInitialized
	}
	for _, key := range []string{"z", "n"} {
		if err := checkState(state, key, f.numParam); err != nil {
			return err
		}
	}
	copy(f.z, state["z"])
	copy(f.n, state["n"])
	return nil
}
