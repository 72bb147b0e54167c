// Package config loads the small set of runtime tunables state-engine
// exposes to a host application: the recursion ceiling, default log level,
// and manifest directory. It is intentionally thin — state-engine has no
// command-line surface of its own — but a host embedding the library still
// needs a conventional way to override these from a config file or the
// environment, so a YAML file is layered under viper the usual way.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/declarative-state/state-engine/pkg/logger"
)

// EnvPrefix is the prefix state-engine binds environment overrides under,
// e.g. STATE_ENGINE_MAX_RECURSION=10.
const EnvPrefix = "STATE_ENGINE"

// Config holds state-engine's runtime tunables.
type Config struct {
	// ManifestDir is the directory State.NewFromManifestDir scans for
	// *.yml/*.yaml files.
	ManifestDir string `mapstructure:"manifest_dir"`

	// MaxRecursion overrides the default RecursionGuard depth ceiling
	// (20 by default).
	MaxRecursion int `mapstructure:"max_recursion"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `mapstructure:"log_level"`
}

// Defaults returns the built-in configuration: manifests under
// "./manifests", MAX_RECURSION=20, log level "info".
func Defaults() *Config {
	return &Config{
		ManifestDir:  "manifests",
		MaxRecursion: 20,
		LogLevel:     "info",
	}
}

// Load reads configuration from an optional YAML file at path, layering it
// over Defaults and over any STATE_ENGINE_* environment variable. Passing
// an empty path skips the file layer and returns Defaults with only
// environment overrides applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("manifest_dir", defaults.ManifestDir)
	v.SetDefault("max_recursion", defaults.MaxRecursion)
	v.SetDefault("log_level", defaults.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}
	if cfg.MaxRecursion <= 0 {
		return nil, fmt.Errorf("config: max_recursion must be positive, got %d", cfg.MaxRecursion)
	}
	return cfg, nil
}

// LogLevelValue parses c.LogLevel into a logger.Level, defaulting to
// logger.LevelInfo for an empty or unrecognised value.
func (c *Config) LogLevelValue() logger.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}
