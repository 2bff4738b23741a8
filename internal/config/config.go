// Package config holds the settings read once at process start.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config is built once at startup and passed by value afterwards.
type Config struct {
	Version         string        `env:"APP_VERSION" env-default:"unknown" yaml:"version" toml:"version"`
	Environment     string        `env:"ENV_COLOR" env-default:"blue" yaml:"environment" toml:"environment"`
	Port            int           `env:"PORT" env-default:"5000" yaml:"port" toml:"port"`
	DBPath          string        `env:"DB_PATH" env-default:"/data/todos.db" yaml:"db_path" toml:"db_path"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info" yaml:"log_level" toml:"log_level"`
	LogFormat       string        `env:"LOG_FORMAT" env-default:"json" yaml:"log_format" toml:"log_format"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Addr returns the listen address for all interfaces.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports settings that cannot be served.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}
	switch c.LogFormat {
	case FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Load reads the environment. When path is not empty the file is read
// first and environment variables override its values.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
