package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvConfig    = "CONTRACTMOCK_CONFIG"
	EnvPort      = "CONTRACTMOCK_PORT"
	EnvContract  = "CONTRACTMOCK_CONTRACT"
	EnvService   = "CONTRACTMOCK_SERVICE"
	EnvLogLevel  = "CONTRACTMOCK_LOG_LEVEL"
	EnvLogFormat = "CONTRACTMOCK_LOG_FORMAT"
)

// LoadDotEnv loads variables from the .env file at path. A missing file is
// not an error. Variables already present in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with CONTRACTMOCK_* variables that are set.
// CONTRACTMOCK_CONTRACT is treated as a URL when it starts with http:// or
// https://, as a file path otherwise.
func ApplyEnv(cfg *Config) error {
	// CONTRACTMOCK_PORT
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Port = port
	}

	// CONTRACTMOCK_CONTRACT
	if v := os.Getenv(EnvContract); v != "" {
		cfg.Contract = ContractSourceFor(v)
	}

	// CONTRACTMOCK_SERVICE
	if v := os.Getenv(EnvService); v != "" {
		cfg.Service = v
	}

	// CONTRACTMOCK_LOG_LEVEL
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	// CONTRACTMOCK_LOG_FORMAT
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	return nil
}
