package hyper

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() HyperParameters {
	return HyperParameters{
		LearningRate: 0.1,
		ReguLambda1:  0.01,
		ReguLambda2:  0.01,
		ReguType:     ReguL2,
		DecayRate:    0.9,
		NumParam:     16,
	}
}

func TestValidate_Accepts(t *testing.T) {
	require.NoError(t, validParams().Validate())
	require.NoError(t, Default().Validate())

	hp := validParams()
	hp.DecayRate = 0
	assert.NoError(t, hp.Validate(), "decay_rate = 0 is allowed")
}

func TestValidate_RejectsEachFieldIndependently(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name  string
		field string
		tweak func(*HyperParameters)
	}{
		{"zero learning rate", "learning_rate", func(h *HyperParameters) { h.LearningRate = 0 }},
		{"negative learning rate", "learning_rate", func(h *HyperParameters) { h.LearningRate = -0.1 }},
		{"NaN learning rate", "learning_rate", func(h *HyperParameters) { h.LearningRate = nan }},
		{"zero lambda 1", "regu_lambda_1", func(h *HyperParameters) { h.ReguLambda1 = 0 }},
		{"negative lambda 1", "regu_lambda_1", func(h *HyperParameters) { h.ReguLambda1 = -1 }},
		{"zero lambda 2", "regu_lambda_2", func(h *HyperParameters) { h.ReguLambda2 = 0 }},
		{"negative lambda 2", "regu_lambda_2", func(h *HyperParameters) { h.ReguLambda2 = -1 }},
		{"negative decay rate", "decay_rate", func(h *HyperParameters) { h.DecayRate = -0.5 }},
		{"negative num_param", "num_param", func(h *HyperParameters) { h.NumParam = -1 }},
		{"unknown regu type", "regu_type", func(h *HyperParameters) { h.ReguType = ReguType(42) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := validParams()
			tt.tweak(&hp)

			err := hp.Validate()
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected a ConfigurationError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	hp := validParams()
	hp.LearningRate = 0
	hp.ReguLambda2 = -1
	hp.DecayRate = -1

	err := hp.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)

	fields := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var cfgErr *ConfigurationError
		require.True(t, errors.As(e, &cfgErr))
		fields = append(fields, cfgErr.Field)
	}
	assert.ElementsMatch(t, []string{"learning_rate", "regu_lambda_2", "decay_rate"}, fields)
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Field: "learning_rate", Value: float32(-1), Constraint: "> 0"}
	assert.Equal(t, "invalid hyperparameter learning_rate=-1: must be > 0", err.Error())
}

func TestParseReguType(t *testing.T) {
	cases := map[string]ReguType{
		"none": ReguNone,
		"L1":   ReguL1,
		"l2":   ReguL2,
		"L1L2": ReguL1L2,
	}
	for in, want := range cases {
		got, err := ParseReguType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"elastic", "", "  "} {
		_, err := ParseReguType(bad)
		assert.Error(t, err, "%q", bad)
	}

	assert.Equal(t, "l1l2", ReguL1L2.String())
	assert.Equal(t, "ReguType(9)", ReguType(9).String())
}

func TestPenaltyGradient(t *testing.T) {
	hp := validParams()
	hp.ReguLambda1 = 0.5
	hp.ReguLambda2 = 0.25

	hp.ReguType = ReguNone
	assert.Equal(t, float32(0), hp.PenaltyGradient(2))

	hp.ReguType = ReguL1
	assert.Equal(t, float32(0.5), hp.PenaltyGradient(2))
	assert.Equal(t, float32(-0.5), hp.PenaltyGradient(-2))
	assert.Equal(t, float32(0), hp.PenaltyGradient(0))

	hp.ReguType = ReguL2
	assert.Equal(t, float32(0.5), hp.PenaltyGradient(2))

	hp.ReguType = ReguL1L2
	assert.Equal(t, float32(1.0), hp.PenaltyGradient(2))
}

func TestPenalty(t *testing.T) {
	hp := validParams()
	hp.ReguLambda1 = 1
	hp.ReguLambda2 = 2
	w := []float32{1, -2}

	hp.ReguType = ReguL1
	assert.InDelta(t, 3.0, hp.Penalty(w), 1e-9)
	hp.ReguType = ReguL2
	assert.InDelta(t, 5.0, hp.Penalty(w), 1e-9)
	hp.ReguType = ReguL1L2
	assert.InDelta(t, 8.0, hp.Penalty(w), 1e-9)
	hp.ReguType = ReguNone
	assert.Zero(t, hp.Penalty(w))
}

func TestBetaAndEpsFallbacks(t *testing.T) {
	hp := validParams()
	assert.Equal(t, DefaultFTRLBeta, hp.Beta())
	assert.Equal(t, DefaultEpsilon, hp.Eps())

	hp.FTRLBeta = 2
	hp.Epsilon = 1e-3
	assert.Equal(t, float32(2), hp.Beta())
	assert.Equal(t, float32(1e-3), hp.Eps())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "updater.yaml")
	content := `learning_rate: 0.05
regu_lambda_1: 0.001
regu_lambda_2: 0.002
regu_type: l1l2
decay_rate: 0.8
num_param: 1024
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	hp, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.05), hp.LearningRate)
	assert.Equal(t, float32(0.001), hp.ReguLambda1)
	assert.Equal(t, float32(0.002), hp.ReguLambda2)
	assert.Equal(t, ReguL1L2, hp.ReguType)
	assert.Equal(t, float32(0.8), hp.DecayRate)
	assert.Equal(t, 1024, hp.NumParam)
	assert.Equal(t, DefaultFTRLBeta, hp.FTRLBeta)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("UPDATER_DECAY_RATE", "0.5")
	t.Setenv("UPDATER_REGU_TYPE", "l1")

	hp, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), hp.DecayRate)
	assert.Equal(t, ReguL1, hp.ReguType)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("UPDATER_LEARNING_RATE", "0")

	_, err := Load(viper.New(), "")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "learning_rate", cfgErr.Field)
}

func TestLoad_EmptyReguTypeRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updater.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regu_type: \"\"\n"), 0o600))

	_, err := Load(viper.New(), path)
	assert.Error(t, err)

	// Without a regu_type key the default applies.
	hp, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default().ReguType, hp.ReguType)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHyperParameters_JSON(t *testing.T) {
	hp := validParams()
	hp.ReguType = ReguL1L2

	data, err := json.Marshal(hp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"regu_type":"l1l2"`)
	assert.Contains(t, string(data), `"learning_rate":0.1`)

	var back HyperParameters
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, hp, back)

	_, err = json.Marshal(HyperParameters{ReguType: ReguType(7)})
	assert.Error(t, err)
}
