package updater

import (
	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// Nesterov implements Nesterov accelerated momentum in its
// "updated velocity" form, which folds the lookahead correction into one
// step using the previous and the current velocity:
//
//	old_v = v
//	v     = rho * v - lr * grad
//	param += -rho * old_v + (1 + rho) * v
//
// rho is HyperParameters.DecayRate. No extra gradient evaluation at the
// lookahead point is needed.
type Nesterov struct {
	base
	rho float32
	v   []float32 // velocity, index-aligned with the parameter buffer
}

// NewNesterov returns an uninitialized Nesterov updater.
func NewNesterov() *Nesterov {
	return &Nesterov{}
}

// Kind returns KindNesterov.
func (n *Nesterov) Kind() Kind {
	return KindNesterov
}

// Initialize validates hp and allocates a zeroed velocity of hp.NumParam values.
func (n *Nesterov) Initialize(hp hyper.HyperParameters) error {
	if err := n.configure(hp); err != nil {
		return err
	}
	v, err := allocState(hp.NumParam)
	if err != nil {
		return err
	}
	n.rho = hp.DecayRate
	n.v = v
	n.ready = true
	return nil
}

// Update applies one Nesterov step to param[id].
func (n *Nesterov) Update(id int, grad float32, param []float32) {
	if debugChecks {
		n.checkRange(id, 1, param)
	}
	oldV := n.v[id]
	n.v[id] = n.rho*n.v[id] - n.lr*grad
	param[id] += -n.rho*oldV + (1+n.rho)*n.v[id]
}

// BatchUpdate applies the Nesterov step lane-wise to
// [startID, startID+len(values)).
func (n *Nesterov) BatchUpdate(values []float32, startID int, param []float32) error {
	if err := n.checkBatch(values, startID, param); err != nil {
		return err
	}
	lr, rho := n.lr, n.rho
	rhoAdd1 := rho + 1
	for i := 0; i < len(values); i += simd.Width {
		id := startID + i
		g := simd.Lanes(values, i)
		v := simd.Lanes(n.v, id)
		w := simd.Lanes(param, id)
		for k := range g {
			oldV := v[k]
			v[k] = rho*v[k] - lr*g[k]
			w[k] += rhoAdd1*v[k] - rho*oldV
		}
	}
	return nil
}

// StateDict exports the velocity under "velocity".
func (n *Nesterov) StateDict() map[string][]float32 {
	return map[string][]float32{"velocity": copyState(n.v)}
}

// LoadStateDict restores the velocity.
func (n *Nesterov) LoadStateDict(state map[string][]float32) error {
	if !n.ready {
		return ErrNotInitialized
	}
	return loadState(state, "velocity", n.v)
}
