package hyper

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. UPDATER_LEARNING_RATE.
const EnvPrefix = "UPDATER"

// CustomHooks are the decode hooks needed to unmarshal HyperParameters.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		ReguTypeHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)),
}

// ReguTypeHookFunc decodes "l1", "l2", "l1l2" and "none" into a ReguType.
func ReguTypeHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(ReguNone) {
			return data, nil
		}
		return ParseReguType(data.(string))
	}
}

// SetDefaults registers Default() on v so that every key is known to viper
// and can be overridden from the environment.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("learning_rate", d.LearningRate)
	v.SetDefault("regu_lambda_1", d.ReguLambda1)
	v.SetDefault("regu_lambda_2", d.ReguLambda2)
	v.SetDefault("regu_type", d.ReguType.String())
	v.SetDefault("decay_rate", d.DecayRate)
	v.SetDefault("num_param", d.NumParam)
	v.SetDefault("ftrl_beta", d.FTRLBeta)
	v.SetDefault("epsilon", d.Epsilon)
}

// Load reads hyperparameters from the config file at path (optional) and
// UPDATER_* environment variables, then validates them. A validation failure
// is returned as aggregated *ConfigurationError values.
func Load(v *viper.Viper, path string) (HyperParameters, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return HyperParameters{}, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var hp HyperParameters
	if err := v.Unmarshal(&hp, CustomHooks...); err != nil {
		return HyperParameters{}, errors.Wrap(err, "decoding hyperparameters")
	}
	if err := hp.Validate(); err != nil {
		return hp, err
	}
	return hp, nil
}
