// Package config loads gridtrace settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/validation"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRIDTRACE_"

const (
	DefaultState       = "normal"
	DefaultQueue       = "breadth"
	DefaultMaxSteps    = 10000
	MaxMaxSteps        = 10_000_000
	DefaultMetricsAddr = ":9090"
)

var (
	validStates = []string{"normal", "current"}
	validQueues = []string{"breadth", "depth"}
	validLevels = []string{"debug", "info", "warn", "error"}
)

// Config holds the settings shared by every gridtrace command.
type Config struct {
	LogLevel    string         `yaml:"log_level"`
	State       string         `yaml:"state"`
	Queue       string         `yaml:"queue"`
	MaxSteps    int            `yaml:"max_steps"`
	InferPhases bool           `yaml:"infer_phases"`
	Snapshot    SnapshotConfig `yaml:"snapshot"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

type SnapshotConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Snapshot: SnapshotConfig{Compress: true}}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, overlays GRIDTRACE_* environment
// variables, applies defaults and validates the result. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := &Config{Snapshot: SnapshotConfig{Compress: true}}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("STATE", &c.State)
	str("QUEUE", &c.Queue)
	if v, ok := lookup(EnvPrefix + "MAX_STEPS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_STEPS: %w", EnvPrefix, err))
		} else {
			c.MaxSteps = n
		}
	}
	boolean("INFER_PHASES", &c.InferPhases)
	str("SNAPSHOT_PATH", &c.Snapshot.Path)
	boolean("SNAPSHOT_COMPRESS", &c.Snapshot.Compress)
	boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	str("METRICS_ADDR", &c.Metrics.Addr)

	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	c.LogLevel = strings.ToLower(validation.DefaultOr(c.LogLevel, "info"))
	c.State = strings.ToLower(validation.DefaultOr(c.State, DefaultState))
	c.Queue = strings.ToLower(validation.DefaultOr(c.Queue, DefaultQueue))
	if c.MaxSteps == 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MaxSteps > 0 {
		c.MaxSteps = validation.ClampInt(c.MaxSteps, 1, MaxMaxSteps)
	}
	c.Metrics.Addr = validation.DefaultOr(c.Metrics.Addr, DefaultMetricsAddr)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		OneOf("log_level", c.LogLevel, validLevels).
		OneOf("state", c.State, validStates).
		OneOf("queue", c.Queue, validQueues).
		NonNegative("max_steps", c.MaxSteps).
		When(c.Metrics.Enabled, func(cv *validation.ConfigValidator) {
			cv.Custom("metrics.addr", func() error {
				_, _, err := net.SplitHostPort(c.Metrics.Addr)
				return err
			})
		}).
		Validate()
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}
