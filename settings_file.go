package dropin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override file settings, e.g.
// DROPIN_CUSTOMERID.
const EnvPrefix = "DROPIN"

// ParseSettingsJSON strictly decodes merchant settings from r.
func ParseSettingsJSON(r io.Reader) (Settings, error) {
	var s Settings
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Settings{}, NewError(InvalidConfiguration, "settings body required")
		}
		return Settings{}, NewError(InvalidConfiguration, "decode settings", WithCause(err))
	}
	if dec.More() {
		return Settings{}, NewError(InvalidConfiguration, "unexpected data after settings")
	}
	return s, nil
}

// LoadSettingsFile reads merchant settings from a YAML, JSON or TOML file.
// Scalar settings can be overridden from the environment. Keys inside
// per-option settings are lower-cased by the loader.
func LoadSettingsFile(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{"customerId", "cardDisabled", "dataCollector", "threeDSecure"} {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, fmt.Errorf("dropin: bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return Settings{}, NewError(InvalidConfiguration, "read settings file", WithCause(err))
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, NewError(InvalidConfiguration, "decode settings file", WithCause(err))
	}
	return s, nil
}
