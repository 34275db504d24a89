package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/freq"
)

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (Default())
//  2. YAML file at path, if path is non-empty
//  3. environment variables (prefix MAINS_, double underscore nests:
//     MAINS_MEASUREMENT__TARGET_HZ -> measurement.target_hz)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("MAINS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MAINS_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration once at startup so bad values fail
// before any measurement runs.
func (c *Config) Validate() error {
	if c.PulsesPerCycle < 1 {
		return fmt.Errorf("pulses_per_cycle %d: %w", c.PulsesPerCycle, freq.ErrInvalidCalibration)
	}
	if c.Measurement.WindowDuration <= 0 {
		return errors.New("measurement.window_duration must be positive")
	}
	if c.Measurement.SampleCount < 1 {
		return errors.New("measurement.sample_count must be >= 1")
	}
	if c.Measurement.DebounceInterval < 0 {
		return errors.New("measurement.debounce_interval must not be negative")
	}
	if c.Measurement.TargetHz <= 0 {
		return errors.New("measurement.target_hz must be positive")
	}
	switch c.Measurement.Direction {
	case "rising", "falling", "both":
	default:
		return fmt.Errorf("measurement.direction %q must be rising, falling, or both", c.Measurement.Direction)
	}
	switch classify.Policy(c.Measurement.CalibrationPolicy) {
	case classify.FirstMatch, classify.BestMatch:
	default:
		return fmt.Errorf("measurement.calibration_policy %q must be first_match or best_match", c.Measurement.CalibrationPolicy)
	}
	for _, b := range c.Measurement.Bands {
		if b.Low >= b.High {
			return fmt.Errorf("band %v-%v: low must be below high", b.Low, b.High)
		}
	}
	if c.Restart.MaxPerHour < 0 {
		return errors.New("restart.max_per_hour must not be negative")
	}
	if c.HealthCheck.Enabled && c.HealthCheck.EndpointURL == "" {
		return errors.New("health_check.endpoint_url required when health_check.enabled")
	}
	return nil
}

// DirectionFilter converts the configured direction to a freq filter.
func (c *Config) DirectionFilter() freq.Direction {
	switch c.Measurement.Direction {
	case "rising":
		return freq.Rising
	case "both":
		return freq.Both
	default:
		return freq.Falling
	}
}
