package updater

import (
	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

// SGD implements plain stochastic gradient descent:
//
//	param -= lr * grad
//
// It keeps no auxiliary state.
type SGD struct {
	base
}

// NewSGD returns an uninitialized SGD updater.
func NewSGD() *SGD {
	return &SGD{}
}

// Kind returns KindSGD.
func (s *SGD) Kind() Kind {
	return KindSGD
}

// Initialize validates hp.
func (s *SGD) Initialize(hp hyper.HyperParameters) error {
	if err := s.configure(hp); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// Update applies one gradient step to param[id].
func (s *SGD) Update(id int, grad float32, param []float32) {
	if debugChecks {
		s.checkRange(id, 1, param)
	}
	param[id] -= s.lr * grad
}

// BatchUpdate applies the gradient step lane-wise.
func (s *SGD) BatchUpdate(values []float32, startID int, param []float32) error {
	if err := s.checkBatch(values, startID, param); err != nil {
		return err
	}
	lr := s.lr
	for i := 0; i < len(values); i += simd.Width {
		g := simd.Lanes(values, i)
		w := simd.Lanes(param, startID+i)
		for k := range g {
			w[k] -= lr * g[k]
		}
	}
	return nil
}

// StateDict returns an empty map: SGD has no state.
func (s *SGD) StateDict() map[string][]float32 {
	return map[string][]float32{}
}

// LoadStateDict accepts any state and ignores it.
func (s *SGD) LoadStateDict(map[string][]float32) error {
	if !s.ready {
		return ErrNotInitialized
	}
	return nil
}
