// Package config defines the one explicit configuration struct the
// workspace engine is constructed with. All external configuration flows
// through here: defaults, an optional YAML file, then environment
// overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the workspace engine.
type Config struct {
	// MaxComponents bounds how many components one registry may hold.
	MaxComponents int `yaml:"max_components"`
	// MaxCommandHistory bounds the wiki editor's history store; 0 keeps
	// everything.
	MaxCommandHistory int `yaml:"max_command_history"`
	// DefaultMaxRetries is used for retryable side effects that do not set
	// their own bound.
	DefaultMaxRetries int `yaml:"default_max_retries"`
	// RenderHistoryTail is how many recent history entries the wiki editor
	// includes in its render.
	RenderHistoryTail int `yaml:"render_history_tail"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the rotating workspace log.
type LogConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	JSONMode   bool   `yaml:"json_mode"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxComponents:     50,
		MaxCommandHistory: 200,
		DefaultMaxRetries: 3,
		RenderHistoryTail: 5,
		Log: LogConfig{
			Filename:   ".aikb/workspace.log",
			MaxSizeMB:  15,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays AIKB_* environment variables onto the config.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv("AIKB_LOG_FILE"); v != "" {
		cfg.Log.Filename = v
	}
	if os.Getenv("AIKB_JSON_LOGS") == "1" {
		cfg.Log.JSONMode = true
	}
	if n, ok := envInt("AIKB_MAX_COMPONENTS"); ok {
		cfg.MaxComponents = n
	}
	if n, ok := envInt("AIKB_MAX_COMMAND_HISTORY"); ok {
		cfg.MaxCommandHistory = n
	}
	if n, ok := envInt("AIKB_RENDER_HISTORY_TAIL"); ok {
		cfg.RenderHistoryTail = n
	}
	return cfg
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
