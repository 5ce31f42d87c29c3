// Package config defines service configuration structures and loading.
//
// Conventions follow the rest of the codebase: defaults first, layered
// file/env overrides, sentinel errors, and fail-fast validation. Weight
// sets that do not sum to 1.0 are a construction-time error, never
// silently renormalized.
package config

import (
	"runtime"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/fit"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON selects the JSON log handler.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// WorkerCount bounds the ranking worker pool.
	WorkerCount int `koanf:"worker_count"`

	// WindowDays is the default trailing performance window.
	WindowDays int `koanf:"window_days"`

	// MaxRankingLimit caps GET /rankings?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// Cohort store policy.
	MinCohortSize  int `koanf:"min_cohort_size"`
	MaxSeasonWiden int `koanf:"max_season_widen"`

	// Role-specific minimum event counts for performance snapshots.
	BatterMinPitches  int `koanf:"batter_min_pitches"`
	PitcherMinPitches int `koanf:"pitcher_min_pitches"`

	// SeverityThreshold is the gap score at which a position becomes a
	// team weakness.
	SeverityThreshold float64 `koanf:"severity_threshold"`

	// Ranking eligibility ceiling (MLB experience proxies).
	MaxMLBAtBats  int     `koanf:"max_mlb_at_bats"`
	MaxMLBInnings float64 `koanf:"max_mlb_innings"`

	// FitWeights are the five fit component weights.
	FitWeights fit.ComponentWeights `koanf:"fit_weights"`

	// CohortFile is the snapshot export the refresh adapter watches.
	CohortFile string `koanf:"cohort_file"`

	// PostgresDSN connects the catalog, roster and event providers.
	PostgresDSN string `koanf:"postgres_dsn"`

	// Quality-signal provider settings. Empty QualityURL disables it.
	QualityURL         string  `koanf:"quality_url"`
	QualityRPS         float64 `koanf:"quality_rps"`
	QualityCacheTTLSec int     `koanf:"quality_cache_ttl_sec"`
	RedisAddr          string  `koanf:"redis_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8090",
		WorkerCount:        runtime.NumCPU() * 2,
		WindowDays:         90,
		MaxRankingLimit:    500,
		MinCohortSize:      10,
		MaxSeasonWiden:     2,
		BatterMinPitches:   50,
		PitcherMinPitches:  100,
		SeverityThreshold:  6.0,
		MaxMLBAtBats:       130,
		MaxMLBInnings:      50,
		FitWeights:         fit.DefaultWeights(),
		CohortFile:         "cohorts.json",
		QualityRPS:         5,
		QualityCacheTTLSec: 3600,
	}
}
