package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name declared in Config tags.
const EnvPrefix = "TASKKEEPER_"

// parseEnv loads an optional .env file from the working directory and then
// overlays every TASKKEEPER_* variable that is set. Variables that are not
// set leave the current value alone. A malformed value panics.
func parseEnv(config *Config) {
	// a missing .env file is the normal case
	_ = godotenv.Load()

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
