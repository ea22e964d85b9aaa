// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/updater/optim"
)

func TestNesterov_PublicAPI(t *testing.T) {
	u := optim.NewNesterov()
	hp := optim.DefaultHyperParameters()
	hp.LearningRate = 0.1
	hp.NumParam = 2 * optim.LaneWidth
	require.NoError(t, u.Initialize(hp))

	params := make([]float32, hp.NumParam)
	grads := make([]float32, hp.NumParam)
	for i := range grads {
		grads[i] = 1
	}
	require.NoError(t, u.BatchUpdate(grads, 0, params))

	// v = -0.1, param = (1 + 0.9) * v
	for _, w := range params {
		assert.InDelta(t, -0.19, w, 1e-6)
	}
	assert.Equal(t, optim.KindNesterov, u.Kind())
	assert.ErrorIs(t, u.BatchUpdate(grads[:1], 0, params), optim.ErrUnalignedBatch)
}

func TestNew_EveryKind(t *testing.T) {
	for _, k := range optim.Kinds() {
		u, err := optim.New(k)
		require.NoError(t, err)
		parsed, err := optim.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, u.Kind(), parsed)
	}
}

func TestInitialize_ConfigurationError(t *testing.T) {
	hp := optim.DefaultHyperParameters()
	hp.DecayRate = -1

	err := optim.NewMomentum().Initialize(hp)
	var cfgErr *optim.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "decay_rate", cfgErr.Field)
}
