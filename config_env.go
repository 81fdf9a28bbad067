package credflow

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by LoadConfigFromEnv.
const EnvPrefix = "CREDFLOW_"

// jwtKeysEnv carries key material, which is read from files so secrets do
// not need to sit in the process environment.
type jwtKeysEnv struct {
	Secret     string `env:"JWT_SECRET"`
	SecretFile string `env:"JWT_SECRET_FILE,file"`
	PrivateKey string `env:"JWT_PRIVATE_KEY_FILE,file"`
	PublicKey  string `env:"JWT_PUBLIC_KEY_FILE,file"`
}

// LoadConfigFromEnv starts from [DefaultConfig] and overrides any field
// whose CREDFLOW_* variable is set, for example CREDFLOW_ACCESS_TTL=10m or
// CREDFLOW_LOGIN_LIMIT_MAX_ATTEMPTS=3. The result is not validated.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	opts := env.Options{Prefix: EnvPrefix}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	var keys jwtKeysEnv
	if err := env.ParseWithOptions(&keys, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch {
	case keys.SecretFile != "":
		cfg.JWT.Secret = []byte(strings.TrimSpace(keys.SecretFile))
	case keys.Secret != "":
		cfg.JWT.Secret = []byte(keys.Secret)
	}
	if keys.PrivateKey != "" {
		cfg.JWT.PrivateKey = []byte(keys.PrivateKey)
	}
	if keys.PublicKey != "" {
		cfg.JWT.PublicKey = []byte(keys.PublicKey)
	}
	return cfg, nil
}
