// Package config loads the host configuration from a YAML file overlaid by
// SCRIPTHOST_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scripthost/internal/core/observability/log"
)

const EnvPrefix = "SCRIPTHOST_"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log     Log     `yaml:"log" envPrefix:"LOG_"`
	Scripts Scripts `yaml:"scripts" envPrefix:"SCRIPTS_"`
	Console Console `yaml:"console" envPrefix:"CONSOLE_"`
}

type Log struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Encoding    string `yaml:"encoding" env:"ENCODING"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
	// Outputs are zap sink paths, stderr when empty.
	Outputs []string `yaml:"outputs" env:"OUTPUTS" envSeparator:","`
}

type Scripts struct {
	// Root is the default script domain root, also used by every reload.
	Root string `yaml:"root" env:"ROOT"`
	// SnapshotDir persists the domain snapshot across restarts when set.
	SnapshotDir string `yaml:"snapshot_dir" env:"SNAPSHOT_DIR"`
}

type Console struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Addr         string        `yaml:"addr" env:"ADDR"`
	Token        string        `yaml:"token" env:"TOKEN"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// MaxMessageSize bounds a single console command in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
	// RateLimit caps commands per client per second, zero for no limit.
	RateLimit int `yaml:"rate_limit" env:"RATE_LIMIT"`
}

func Default() Config {
	return Config{
		Log: Log{
			Level:    log.LevelInfo.String(),
			Encoding: "json",
		},
		Scripts: Scripts{
			Root: "scripts",
		},
		Console: Console{
			Enabled:        true,
			Addr:           "127.0.0.1:8090",
			WriteTimeout:   5 * time.Second,
			MaxMessageSize: 64 * 1024,
			RateLimit:      50,
		},
	}
}

// Load reads path (optional) over the defaults, applies the environment and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err = decodeYAML(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log encoding %q", c.Log.Encoding))
	}
	if c.Console.Enabled {
		if c.Console.Addr == "" {
			errs = append(errs, errors.New("console addr is empty"))
		}
		if c.Console.WriteTimeout <= 0 {
			errs = append(errs, errors.New("console write timeout must be positive"))
		}
		if c.Console.MaxMessageSize <= 0 {
			errs = append(errs, errors.New("console max message size must be positive"))
		}
		if c.Console.RateLimit < 0 {
			errs = append(errs, errors.New("console rate limit must not be negative"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Level returns the parsed log level. Call after Validate.
func (c Config) Level() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}
