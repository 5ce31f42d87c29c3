package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const weightTolerance = 1e-9

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AFWD_CONFIG is set
//  3. env (prefix AFWD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("AFWD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: AFWD_ADDR, AFWD_WORKER_COUNT, ...
	// Keys are lowercased with underscores preserved to match the koanf
	// struct tags. Nested keys use double underscores:
	// AFWD_FIT_WEIGHTS__TIMELINE -> fit_weights.timeline.
	envProvider := env.Provider("AFWD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "afwd_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that must hold before the service starts.
// Weight sets that do not sum to 1.0 are fatal here, by design.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.WindowDays < 1 {
		return fmt.Errorf("%w: window_days must be positive", ErrInvalidConfig)
	}
	if c.MinCohortSize < 1 {
		return fmt.Errorf("%w: min_cohort_size must be positive", ErrInvalidConfig)
	}
	if c.MaxSeasonWiden < 0 {
		return fmt.Errorf("%w: max_season_widen must not be negative", ErrInvalidConfig)
	}

	sum := c.FitWeights.PositionNeed + c.FitWeights.Timeline +
		c.FitWeights.DepthImpact + c.FitWeights.Quality + c.FitWeights.Value
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: fit weights sum to %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}
