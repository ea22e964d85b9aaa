package trainloop

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/updater/internal/parallel"
)

// Objective computes the loss gradient for the current parameters.
// Gradient computation is outside the updater: the loop asks the objective,
// then hands the gradient to the updater.
type Objective interface {
	// Gradient writes dLoss/dw into grad (len(grad) == len(w)) and returns
	// the loss at w.
	Gradient(w, grad []float32) float64
}

// Quadratic is the objective 0.5 * ||w - Target||^2, whose gradient is
// w - Target.
type Quadratic struct {
	Target []float32
	cfg    parallel.Config
	diff   []float64
}

// NewQuadratic returns a quadratic objective with a target drawn uniformly
// from [-scale, scale].
func NewQuadratic(n int, scale float32, seed int64, cfg parallel.Config) *Quadratic {
	rng := rand.New(rand.NewSource(seed))
	target := make([]float32, n)
	for i := range target {
		target[i] = (rng.Float32()*2 - 1) * scale
	}
	return &Quadratic{Target: target, cfg: cfg}
}

// Gradient implements Objective.
func (q *Quadratic) Gradient(w, grad []float32) float64 {
	if len(q.diff) != len(w) {
		q.diff = make([]float64, len(w))
	}
	parallel.For(len(w), func(i int) {
		d := w[i] - q.Target[i]
		grad[i] = d
		q.diff[i] = float64(d)
	}, q.cfg)
	return 0.5 * floats.Dot(q.diff, q.diff)
}
