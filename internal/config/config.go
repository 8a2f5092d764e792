// Package config holds the application-level process configuration for
// taskflow's entry points — worker pool size, context store TTL, and
// logging — as distinct from the config package, which parses the task
// flow documents the scheduler executes.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the process-level configuration for a taskflow entry point.
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Observer  ObserverConfig  `toml:"observer"`
	Log       LogConfig       `toml:"log"`
}

// SchedulerConfig controls the worker pool and context store.
type SchedulerConfig struct {
	MaxWorkers        int           `toml:"max_workers"`
	ContextExpiration time.Duration `toml:"-"`
	ContextExpirySecs int           `toml:"context_expiration_seconds"`
}

// ObserverConfig toggles OpenTelemetry tracing.
type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// LogConfig holds the configured log level. Load only records the value;
// it does not configure any logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{
			MaxWorkers:        4,
			ContextExpirySecs: 600,
			ContextExpiration: 10 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "taskflow.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("TASKFLOW_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.MaxWorkers = n
		}
	}
	if v := os.Getenv("TASKFLOW_CONTEXT_EXPIRATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.ContextExpirySecs = n
		}
	}
	if v := os.Getenv("TASKFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TASKFLOW_OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	cfg.Scheduler.ContextExpiration = time.Duration(cfg.Scheduler.ContextExpirySecs) * time.Second

	return cfg
}
