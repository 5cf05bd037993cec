// Package config holds the service configuration. Values come from an
// optional YAML file overridden by environment variables; the env names keep
// the deployment convention of the original SIFIS-Home images.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the env variable pointing at the YAML config file.
const ConfigFileEnv = "MOBILE_API_CONFIG"

// Config is the runtime configuration of the service. None of it is part of
// the device's persisted state; it only shapes where that state lives and
// how the server listens.
type Config struct {
	// BaseDir holds device.json, config.json and private.pem.
	BaseDir string `yaml:"base_dir" env:"SIFIS_HOME_PATH"`
	// ScriptsDir holds the externally supplied command scripts.
	ScriptsDir string `yaml:"scripts_dir" env:"MOBILE_API_SCRIPTS_PATH"`

	Address  string `yaml:"address" env:"MOBILE_API_ADDRESS"`
	Port     int    `yaml:"port" env:"MOBILE_API_PORT"`
	LogLevel string `yaml:"log_level" env:"MOBILE_API_LOG"`

	StatusTimeout time.Duration `yaml:"status_timeout" env:"MOBILE_API_STATUS_TIMEOUT"`
	ScriptTimeout time.Duration `yaml:"script_timeout" env:"MOBILE_API_SCRIPT_TIMEOUT"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		BaseDir:       "/opt/sifis-home",
		Address:       "0.0.0.0",
		Port:          8000,
		LogLevel:      "info",
		StatusTimeout: 2 * time.Second,
		ScriptTimeout: 30 * time.Second,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// MOBILE_API_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.ScriptsDir == "" {
		cfg.ScriptsDir = filepath.Join(cfg.BaseDir, "scripts")
	}
	return cfg, nil
}

// InfoFilePath is where the immutable device identity lives.
func (c Config) InfoFilePath() string {
	return filepath.Join(c.BaseDir, "device.json")
}

// ListenAddr is the host:port the HTTP server binds.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	if l, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		return l
	}
	return zerolog.InfoLevel
}
