// Package app provides the core service that wires providers to the
// valuation engine and implements the dependencies required by the HTTP
// API.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/adapters/cohortfile"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/agecurve"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/cohort"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/fit"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/performance"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/ranking"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/teamneeds"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/logger"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// ProspectCatalog is the catalog collaborator.
type ProspectCatalog interface {
	GetProspect(ctx context.Context, id string) (model.Prospect, error)
	ListProspects(ctx context.Context) ([]model.Prospect, error)
}

// RosterProvider supplies team roster snapshots.
type RosterProvider interface {
	GetRoster(ctx context.Context, teamID string) ([]model.RosterPlayer, error)
}

// QualityProvider supplies the optional external quality signal. ok=false
// means no estimate exists for the prospect.
type QualityProvider interface {
	GetQualityEstimate(ctx context.Context, prospectID string) (fit.QualityEstimate, bool, error)
}

// Service implements the engine's public operations.
type Service struct {
	mu sync.RWMutex

	// Collaborators.
	catalog ProspectCatalog
	rosters RosterProvider
	events  performance.EventSource
	quality QualityProvider

	// Core components, built in Start.
	store      *cohort.Store
	loader     *cohortfile.Loader
	aggregator *performance.Aggregator
	analyzer   *teamneeds.Analyzer
	fitEngine  *fit.Engine
	curve      *agecurve.Curve
	assembler  *ranking.Assembler

	// Configuration.
	workerCount       int
	windowDays        int
	minCohortSize     int
	maxSeasonWiden    int
	batterMinPitches  int
	pitcherMinPitches int
	severityThreshold float64
	maxMLBAtBats      int
	maxMLBInnings     float64
	fitWeights        fit.ComponentWeights
	cohortFile        string

	// State.
	started         bool
	stopWait        func()
	lastRankingSize int
	rankedTotal     int64

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithProviders injects the catalog, roster and event collaborators.
func WithProviders(catalog ProspectCatalog, rosters RosterProvider, events performance.EventSource) Option {
	return func(s *Service) {
		s.catalog = catalog
		s.rosters = rosters
		s.events = events
	}
}

// WithQualityProvider injects the optional quality-signal provider.
func WithQualityProvider(q QualityProvider) Option {
	return func(s *Service) { s.quality = q }
}

// WithWorkerCount bounds the ranking worker pool.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithWindowDays sets the default trailing performance window.
func WithWindowDays(d int) Option {
	return func(s *Service) {
		if d > 0 {
			s.windowDays = d
		}
	}
}

// WithCohortPolicy sets the cohort store policy knobs.
func WithCohortPolicy(minSize, maxWiden int) Option {
	return func(s *Service) {
		if minSize > 0 {
			s.minCohortSize = minSize
		}
		if maxWiden >= 0 {
			s.maxSeasonWiden = maxWiden
		}
	}
}

// WithMinSamples sets the role-specific event floors.
func WithMinSamples(batter, pitcher int) Option {
	return func(s *Service) {
		if batter > 0 {
			s.batterMinPitches = batter
		}
		if pitcher > 0 {
			s.pitcherMinPitches = pitcher
		}
	}
}

// WithSeverityThreshold sets the weakness gap threshold.
func WithSeverityThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.severityThreshold = t
		}
	}
}

// WithExperienceCeiling sets the ranking eligibility ceiling.
func WithExperienceCeiling(atBats int, innings float64) Option {
	return func(s *Service) {
		if atBats > 0 {
			s.maxMLBAtBats = atBats
		}
		if innings > 0 {
			s.maxMLBInnings = innings
		}
	}
}

// WithFitWeights overrides the fit component weights.
func WithFitWeights(w fit.ComponentWeights) Option {
	return func(s *Service) { s.fitWeights = w }
}

// WithCohortFile points the refresh adapter at a snapshot export.
func WithCohortFile(path string) Option {
	return func(s *Service) { s.cohortFile = path }
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		windowDays:        90,
		minCohortSize:     10,
		maxSeasonWiden:    2,
		batterMinPitches:  50,
		pitcherMinPitches: 100,
		severityThreshold: 6.0,
		maxMLBAtBats:      130,
		maxMLBInnings:     50,
		fitWeights:        fit.DefaultWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine components. Invalid weight configurations fail
// here, before the service accepts any request.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("app")
	}
	if s.catalog == nil || s.rosters == nil || s.events == nil {
		return fmt.Errorf("catalog, roster and event providers are required")
	}

	s.store = cohort.NewStore(
		cohort.WithMinCohortSize(s.minCohortSize),
		cohort.WithMaxSeasonWiden(s.maxSeasonWiden),
	)

	var err error
	s.aggregator, err = performance.New(s.events, s.store,
		performance.WithMinSamples(s.batterMinPitches, s.pitcherMinPitches),
	)
	if err != nil {
		return fmt.Errorf("build aggregator: %w", err)
	}

	s.fitEngine, err = fit.New(fit.WithWeights(s.fitWeights))
	if err != nil {
		return fmt.Errorf("build fit engine: %w", err)
	}

	s.analyzer = teamneeds.New(teamneeds.WithSeverityThreshold(s.severityThreshold))
	s.curve = agecurve.New()
	s.assembler = ranking.New(s.curve, s.aggregator,
		ranking.WithWorkerCount(s.workerCount),
		ranking.WithWindowDays(s.windowDays),
		ranking.WithExperienceCeiling(s.maxMLBAtBats, s.maxMLBInnings),
		ranking.WithLogger(s.log.Named("ranking")),
	)

	if s.cohortFile != "" {
		s.loader = cohortfile.New(s.cohortFile, s.store,
			cohortfile.WithMinSamples(s.batterMinPitches, s.pitcherMinPitches),
			cohortfile.WithLogger(s.log.Named("cohortfile")),
		)
		if err := s.loader.Load(ctx); err != nil {
			// Startup proceeds; percentile queries report no-cohort until
			// the first successful refresh lands.
			s.log.Warn(ctx, "initial cohort load failed", logger.Error(err))
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if werr := s.loader.Watch(watchCtx); werr != nil {
				s.log.Error(watchCtx, "cohort watcher stopped", logger.Error(werr))
			}
		}()
		s.stopWait = func() {
			cancel()
			<-done
		}
	}

	s.started = true
	s.log.Info(ctx, "valuation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("window_days", s.windowDays),
		logger.Int("min_cohort_size", s.minCohortSize),
	)
	return nil
}

// Stop shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.stopWait != nil {
		s.stopWait()
		s.stopWait = nil
	}
	s.started = false
	s.log.Info(context.Background(), "valuation service stopped")
}

// ScoreFit scores one prospect against one team. league may be nil.
func (s *Service) ScoreFit(ctx context.Context, prospectID, teamID string, league *fit.LeagueSettings) (fit.Score, error) {
	p, err := s.catalog.GetProspect(ctx, prospectID)
	if err != nil {
		return fit.Score{}, err
	}
	roster, err := s.rosters.GetRoster(ctx, teamID)
	if err != nil {
		return fit.Score{}, err
	}

	now := time.Now()
	needs := s.analyzer.Analyze(teamID, roster, now)

	var estimate *fit.QualityEstimate
	if s.quality != nil {
		q, ok, qerr := s.quality.GetQualityEstimate(ctx, prospectID)
		switch {
		case qerr != nil:
			// The signal is optional; fall back to the scouting grade.
			s.log.Warn(ctx, "quality provider unavailable",
				logger.String("prospect_id", prospectID),
				logger.Error(qerr),
			)
		case ok:
			estimate = &q
		}
	}

	return s.fitEngine.Score(p, needs, estimate, league, now.Year()), nil
}

// Performance computes a performance snapshot. level may be nil; a zero
// windowDays uses the configured default.
func (s *Service) Performance(ctx context.Context, playerID string, role model.Role, level *model.Level, windowDays int) (performance.Snapshot, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	return s.aggregator.Compute(ctx, playerID, role, level, windowDays, time.Now())
}

// RankProspects returns the global ranking under the given filter.
func (s *Service) RankProspects(ctx context.Context, f ranking.Filter) ([]ranking.Entry, error) {
	prospects, err := s.catalog.ListProspects(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.assembler.Rank(ctx, prospects, f, time.Now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastRankingSize = len(entries)
	s.rankedTotal += int64(len(entries))
	s.mu.Unlock()

	return entries, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"worker_count":      s.workerCount,
		"window_days":       s.windowDays,
		"last_ranking_size": s.lastRankingSize,
		"ranked_total":      s.rankedTotal,
	}
	if s.store != nil {
		builtAt := s.store.BuiltAt()
		stats["cohort_snapshot_built_at"] = builtAt
		if !builtAt.IsZero() {
			age := time.Since(builtAt)
			stats["cohort_snapshot_age_seconds"] = age.Seconds()
			metrics.UpdateCohortSnapshotAge(age.Seconds())
		}
	}
	stats["quality_provider"] = s.quality != nil
	return stats
}
