package updater

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/updater/internal/hyper"
	"github.com/born-ml/updater/internal/simd"
)

func testParams(numParam int) hyper.HyperParameters {
	return hyper.HyperParameters{
		LearningRate: 0.1,
		ReguLambda1:  0.01,
		ReguLambda2:  0.01,
		ReguType:     hyper.ReguNone,
		DecayRate:    0.9,
		NumParam:     numParam,
	}
}

func TestNesterov_InitializeZeroVelocity(t *testing.T) {
	const n = 37
	u := NewNesterov()
	require.NoError(t, u.Initialize(testParams(n)))

	require.Len(t, u.v, n)
	for i, v := range u.v {
		assert.Zero(t, v, "velocity[%d]", i)
	}
	assert.Equal(t, float32(0.1), u.GetLR())
	assert.Equal(t, KindNesterov, u.Kind())
}

func TestNesterov_InitializeEmptyModel(t *testing.T) {
	u := NewNesterov()
	require.NoError(t, u.Initialize(testParams(0)))
	assert.Empty(t, u.v)
}

func TestNesterov_InitializeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		field string
		tweak func(*hyper.HyperParameters)
	}{
		{"learning_rate = 0", "learning_rate", func(h *hyper.HyperParameters) { h.LearningRate = 0 }},
		{"learning_rate < 0", "learning_rate", func(h *hyper.HyperParameters) { h.LearningRate = -1 }},
		{"regu_lambda_1 = 0", "regu_lambda_1", func(h *hyper.HyperParameters) { h.ReguLambda1 = 0 }},
		{"regu_lambda_2 = 0", "regu_lambda_2", func(h *hyper.HyperParameters) { h.ReguLambda2 = 0 }},
		{"decay_rate < 0", "decay_rate", func(h *hyper.HyperParameters) { h.DecayRate = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := testParams(8)
			tt.tweak(&hp)

			u := NewNesterov()
			err := u.Initialize(hp)
			require.Error(t, err)

			var cfgErr *hyper.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)

			// Not ready: batch updates are refused.
			err = u.BatchUpdate(make([]float32, simd.Width), 0, make([]float32, simd.Width))
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestNesterov_InitializeReportsAllocationSize(t *testing.T) {
	u := NewNesterov()
	err := u.Initialize(testParams(math.MaxInt))
	require.Error(t, err)

	var cfgErr *hyper.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "num_param", cfgErr.Field)
	assert.Equal(t, math.MaxInt, cfgErr.Value)
	assert.Contains(t, err.Error(), "cannot allocate")
}

// With lr = 0.1 and rho = 0.9, starting from zero:
//
//	step 1: v = -0.1,  param = 1.9 * -0.1 = -0.19
//	step 2: v = 0.9 * -0.1 - 0.1 = -0.19,
//	        param += 0.09 + 1.9 * -0.19 = -0.271 -> -0.461
func TestNesterov_Recurrence(t *testing.T) {
	u := NewNesterov()
	require.NoError(t, u.Initialize(testParams(1)))
	param := []float32{0}

	u.Update(0, 1.0, param)
	assert.InDelta(t, -0.1, u.v[0], 1e-6)
	assert.InDelta(t, -0.19, param[0], 1e-6)

	u.Update(0, 1.0, param)
	assert.InDelta(t, -0.19, u.v[0], 1e-6)
	assert.InDelta(t, -0.461, param[0], 1e-6)
}

func TestNesterov_BatchRecurrence(t *testing.T) {
	u := NewNesterov()
	require.NoError(t, u.Initialize(testParams(simd.Width)))
	param := make([]float32, simd.Width)
	grads := make([]float32, simd.Width)
	for i := range grads {
		grads[i] = 1
	}

	require.NoError(t, u.BatchUpdate(grads, 0, param))
	require.NoError(t, u.BatchUpdate(grads, 0, param))

	for i := range param {
		assert.InDelta(t, -0.19, u.v[i], 1e-6)
		assert.InDelta(t, -0.461, param[i], 1e-6)
	}
}

// After one step with gradient 1, v0 = -0.1 and param = -0.19. With zero
// gradients v_n = rho^n * v0 and each step adds rho^2 * v_{n-1}, so param
// converges to -0.19 + v0 * rho^2 / (1 - rho) = -1.0.
func TestNesterov_ZeroGradientDecay(t *testing.T) {
	const rho = 0.9
	u := NewNesterov()
	require.NoError(t, u.Initialize(testParams(1)))
	param := []float32{0}

	u.Update(0, 1.0, param)
	v0 := float64(u.v[0])

	prev := param[0]
	var prevDelta float32 = math.MaxFloat32
	for n := 1; n <= 300; n++ {
		u.Update(0, 0, param)

		want := math.Pow(rho, float64(n)) * v0
		assert.InDelta(t, want, u.v[0], 1e-6, "v after %d zero steps", n)

		// Past ~100 steps the increments fall to float32 resolution.
		delta := float32(math.Abs(float64(param[0] - prev)))
		if n <= 100 {
			assert.Less(t, delta, prevDelta, "param step must shrink at %d", n)
		}
		prev, prevDelta = param[0], delta
	}
	assert.InDelta(t, -1.0, param[0], 1e-4)
}

func TestNesterov_ZeroDecayIsPlainSGD(t *testing.T) {
	hp := testParams(1)
	hp.DecayRate = 0
	u := NewNesterov()
	require.NoError(t, u.Initialize(hp))
	param := []float32{1}

	u.Update(0, 2, param)
	assert.InDelta(t, 0.8, param[0], 1e-6)
	u.Update(0, 2, param)
	assert.InDelta(t, 0.6, param[0], 1e-6)
}

func TestNesterov_BatchUpdateOffset(t *testing.T) {
	const n = 4 * simd.Width
	u := NewNesterov()
	require.NoError(t, u.Initialize(testParams(n)))
	param := make([]float32, n)
	grads := make([]float32, simd.Width)
	for i := range grads {
		grads[i] = 1
	}

	require.NoError(t, u.BatchUpdate(grads, 2*simd.Width, param))

	for i := 0; i < n; i++ {
		if i >= 2*simd.Width && i < 3*simd.Width {
			assert.InDelta(t, -0.19, param[i], 1e-6, "param[%d]", i)
			assert.InDelta(t, -0.1, u.v[i], 1e-6, "v[%d]", i)
		} else {
			assert.Zero(t, param[i], "param[%d] outside the range must be untouched", i)
			assert.Zero(t, u.v[i], "v[%d] outside the range must be untouched", i)
		}
	}
}

func TestNesterov_StateDictRoundTrip(t *testing.T) {
	const n = 2 * simd.Width
	a := NewNesterov()
	require.NoError(t, a.Initialize(testParams(n)))
	paramA := make([]float32, n)
	grads := make([]float32, n)
	for i := range grads {
		grads[i] = float32(i) * 0.1
	}
	require.NoError(t, a.BatchUpdate(grads, 0, paramA))

	state := a.StateDict()
	require.Contains(t, state, "velocity")
	assert.Equal(t, a.v, state["velocity"])

	// The exported slice is a copy.
	state["velocity"][0] = 42
	assert.NotEqual(t, float32(42), a.v[0])
	state["velocity"][0] = a.v[0]

	b := NewNesterov()
	require.NoError(t, b.Initialize(testParams(n)))
	require.NoError(t, b.LoadStateDict(state))
	paramB := append([]float32(nil), paramA...)

	require.NoError(t, a.BatchUpdate(grads, 0, paramA))
	require.NoError(t, b.BatchUpdate(grads, 0, paramB))
	assert.Equal(t, paramA, paramB)
	assert.Equal(t, a.v, b.v)
}

func TestNesterov_LoadStateDictMismatch(t *testing.T) {
	u := NewNesterov()
	assert.ErrorIs(t, u.LoadStateDict(nil), ErrNotInitialized)

	require.NoError(t, u.Initialize(testParams(4)))
	assert.ErrorIs(t, u.LoadStateDict(map[string][]float32{}), ErrStateMismatch)
	assert.ErrorIs(t, u.LoadStateDict(map[string][]float32{"velocity": make([]float32, 3)}), ErrStateMismatch)
}
