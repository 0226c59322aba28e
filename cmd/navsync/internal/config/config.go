// Package config loads the optional navsync.yaml and scenario files used by
// the navsync CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/navsync/pkg/animation"
)

// FileName is the config file looked up in the working directory.
const FileName = "navsync.yaml"

// Config represents the optional navsync.yaml configuration.
type Config struct {
	// Requires is the minimum CLI version the file was written for, as a
	// semantic version ("v0.2.0").
	Requires  string          `yaml:"requires,omitempty"`
	Log       LogConfig       `yaml:"log"`
	Animation AnimationConfig `yaml:"animation"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
	JSON    bool   `yaml:"json,omitempty"`
}

// AnimationConfig contains animation defaults for scenario steps.
type AnimationConfig struct {
	Duration time.Duration `yaml:"duration,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path              string
	LogLevel          slog.Level
	Verbose           bool
	JSON              bool
	AnimationDuration time.Duration
}

// LoadOptional reads navsync.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve loads navsync.yaml from dir (if present), checks it against the
// running CLI version and fills in defaults.
func Resolve(dir, version string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(cfg.Requires, version); err != nil {
		return nil, err
	}

	level, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	duration := cfg.Animation.Duration
	if duration <= 0 {
		duration = animation.DefaultDuration
	}

	return &Resolved{
		Path:              filepath.Join(dir, FileName),
		LogLevel:          level,
		Verbose:           cfg.Log.Verbose,
		JSON:              cfg.Log.JSON,
		AnimationDuration: duration,
	}, nil
}

// ParseLevel maps a level name to a slog level. The empty string means
// info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func checkVersion(requires, version string) error {
	requires = strings.TrimSpace(requires)
	if requires == "" {
		return nil
	}
	if !strings.HasPrefix(requires, "v") {
		requires = "v" + requires
	}
	if !semver.IsValid(requires) {
		return fmt.Errorf("invalid requires %q in %s: not a semantic version", requires, FileName)
	}

	current := version
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !semver.IsValid(current) {
		// Development builds are not gated.
		return nil
	}
	if semver.Compare(current, requires) < 0 {
		return fmt.Errorf("%s requires navsync %s or newer, running %s", FileName, requires, current)
	}
	return nil
}
