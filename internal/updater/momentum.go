package updater

import (
	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// Momentum implements classical momentum:
//
//	v     = rho * v - lr * grad
//	param += v
type Momentum struct {
	base
	rho float32
	v   []float32
}

// NewMomentum returns an uninitialized Momentum updater.
func NewMomentum() *Momentum {
	return &Momentum{}
}

// Kind returns KindMomentum.
func (m *Momentum) Kind() Kind {
	return KindMomentum
}

// Initialize validates hp and allocates a zeroed velocity.
func (m *Momentum) Initialize(hp hyper.HyperParameters) error {
	if err := m.configure(hp); err != nil {
		return err
	}
	v, err := allocState(hp.NumParam)
	if err != nil {
		return err
	}
	m.rho = hp.DecayRate
	m.v = v
	m.ready = true
	return nil
}

// Update applies one momentum step to param[id].
func (m *Momentum) Update(id int, grad float32, param []float32) {
	if debugChecks {
		m.checkRange(id, 1, param)
	}
	m.v[id] = m.rho*m.v[id] - m.lr*grad
	param[id] += m.v[id]
}

// BatchUpdate applies the momentum step lane-wise.
func (m *Momentum) BatchUpdate(values []float32, startID int, param []float32) error {
	if err := m.checkBatch(values, startID, param); err != nil {
		return err
	}
	lr, rho := m.lr, m.rho
	for i := 0; i < len(values); i += simd.Width {
		id := startID + i
		g := simd.Lanes(values, i)
		v := simd.Lanes(m.v, id)
		w := simd.Lanes(param, id)
		for k := range g {
			v[k] = rho*v[k] - lr*g[k]
			w[k] += v[k]
		}
	}
	return nil
}

// StateDict exports the velocity under "velocity".
func (m *Momentum) StateDict() map[string][]float32 {
	return map[string][]float32{"velocity": copyState(m.v)}
}

// LoadStateDict restores the velocity.
func (m *Momentum) LoadStateDict(state map[string][]float32) error {
	if !m.ready {
		return ErrNotInitialized
	}
	return loadState(state, "velocity", m.v)
}
