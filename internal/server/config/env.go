package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays configuration values from environment variables onto
// the provided Config. Unset variables leave existing values untouched.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
