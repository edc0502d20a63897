package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andperf/andperf/internal/constants"
)

// SchemaVersion is the configuration schema version.
const SchemaVersion = "1"

// ErrNoApp is returned when no target app was given on the command line or
// in the config.
var ErrNoApp = errors.New("no app configured: pass --app or run `andperf config set app=<package>`")

// ErrUnknownKey is returned by Set for keys it does not recognise.
var ErrUnknownKey = errors.New("unknown config key")

// Config represents ~/.andperf/config.yaml.
type Config struct {
	Version          string         `json:"version" yaml:"version"`
	App              string         `json:"app,omitempty" yaml:"app,omitempty" env:"ANDPERF_APP"`
	SystraceToolPath string         `json:"systrace_tool_path,omitempty" yaml:"systrace_tool_path,omitempty" env:"ANDPERF_SYSTRACE"`
	ADB              ADBConfig      `json:"adb" yaml:"adb"`
	Sampling         SamplingConfig `json:"sampling" yaml:"sampling"`
	Logging          LoggingConfig  `json:"logging" yaml:"logging"`
}

// ADBConfig selects the adb binary and target device.
type ADBConfig struct {
	Path   string `json:"path" yaml:"path" env:"ANDPERF_ADB"`
	Serial string `json:"serial,omitempty" yaml:"serial,omitempty" env:"ANDPERF_SERIAL"`
}

// SamplingConfig holds the default windows used when a command is run
// without an explicit interval flag.
type SamplingConfig struct {
	StatInterval  time.Duration `json:"stat_interval" yaml:"stat_interval" env:"ANDPERF_STAT_INTERVAL"`
	FPSInterval   time.Duration `json:"fps_interval" yaml:"fps_interval" env:"ANDPERF_FPS_INTERVAL"`
	MemInfoPeriod time.Duration `json:"meminfo_period" yaml:"meminfo_period" env:"ANDPERF_MEMINFO_PERIOD"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"ANDPERF_LOG_LEVEL"`
	Pretty bool   `json:"pretty" yaml:"pretty" env:"ANDPERF_LOG_PRETTY"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:          SchemaVersion,
		SystraceToolPath: constants.DefaultSystraceToolPath,
		ADB: ADBConfig{
			Path: constants.DefaultADBPath,
		},
		Sampling: SamplingConfig{
			StatInterval:  constants.DefaultStatInterval,
			FPSInterval:   constants.DefaultFPSInterval,
			MemInfoPeriod: constants.DefaultMemInfoPeriod,
		},
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
	}
}

var validLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for values the commands cannot use.
func (c *Config) Validate() error {
	if c.ADB.Path == "" {
		return fmt.Errorf("adb.path cannot be empty")
	}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Sampling.StatInterval < 0 || c.Sampling.FPSInterval < 0 || c.Sampling.MemInfoPeriod < 0 {
		return fmt.Errorf("sampling intervals cannot be negative")
	}
	if strings.ContainsAny(c.App, " \t\n") {
		return fmt.Errorf("invalid app %q: must not contain whitespace", c.App)
	}
	return nil
}

// ResolveApp returns flagValue if set, otherwise the configured app.
func (c *Config) ResolveApp(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if c.App != "" {
		return c.App, nil
	}
	return "", ErrNoApp
}

type setter func(c *Config, value string) error

// ParseSeconds parses a Go duration ("2s", "500ms") or a bare number of
// seconds ("2", "0.5").
func ParseSeconds(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err == nil {
		return d, nil
	}
	secs, nerr := strconv.ParseFloat(value, 64)
	if nerr != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func durationSetter(dst func(*Config) *time.Duration) setter {
	return func(c *Config, value string) error {
		d, err := ParseSeconds(value)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var setters = map[string]setter{
	"app":                func(c *Config, v string) error { c.App = v; return nil },
	"systrace":           func(c *Config, v string) error { c.SystraceToolPath = v; return nil },
	"systrace_tool_path": func(c *Config, v string) error { c.SystraceToolPath = v; return nil },
	"adb":                func(c *Config, v string) error { c.ADB.Path = v; return nil },
	"serial":             func(c *Config, v string) error { c.ADB.Serial = v; return nil },
	"log_level":          func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"stat_interval":      durationSetter(func(c *Config) *time.Duration { return &c.Sampling.StatInterval }),
	"fps_interval":       durationSetter(func(c *Config) *time.Duration { return &c.Sampling.FPSInterval }),
	"meminfo_period":     durationSetter(func(c *Config) *time.Duration { return &c.Sampling.MemInfoPeriod }),
}

// Keys lists the keys accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one recognised key. The result is validated.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return c.Validate()
}

// SetPairs applies "key=value" assignments in order.
func (c *Config) SetPairs(pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q: expected key=value", pair)
		}
		if err := c.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}
