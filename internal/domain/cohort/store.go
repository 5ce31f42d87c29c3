// Package cohort maintains per-(level, season, metric) peer distributions
// and answers percentile queries against them.
//
// The store is read-mostly: an external refresh process builds a complete
// Snapshot and swaps it in atomically. Readers acquire a snapshot handle
// once per scoring call so every lookup within that call sees the same
// distributions, even while a refresh lands concurrently.
package cohort

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// Metric names a cohort-relative rate statistic. The set below is the
// shared vocabulary between the aggregator and the snapshot loader.
type Metric string

// Batter metrics.
const (
	MetricExitVelo90      Metric = "ev90"
	MetricHardContactRate Metric = "hard_contact_rate"
	MetricContactRate     Metric = "contact_rate"
	MetricWhiffRate       Metric = "whiff_rate"
	MetricChaseRate       Metric = "chase_rate"
)

// Pitcher metrics.
const (
	MetricWhiffRateInduced Metric = "whiff_rate_induced"
	MetricZoneRate         Metric = "zone_rate"
	MetricFastballVelo     Metric = "fastball_velo"
	MetricHardContactAllow Metric = "hard_contact_allowed"
	MetricChaseRateInduced Metric = "chase_rate_induced"
)

// Key identifies one cohort distribution.
type Key struct {
	Level  model.Level
	Season int
	Metric Metric
}

// Result is a successful percentile lookup. SeasonUsed reports which
// season's cohort actually answered the query; it differs from the
// requested season when the store widened.
type Result struct {
	Percentile float64
	SeasonUsed int
	CohortSize int
}

// Snapshot is an immutable set of cohort distributions. All value slices
// are sorted ascending at build time and never mutated afterwards.
type Snapshot struct {
	cohorts map[Key][]float64
	builtAt time.Time
}

// BuiltAt returns when the snapshot was assembled.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Size returns the number of distinct cohorts in the snapshot.
func (s *Snapshot) Size() int { return len(s.cohorts) }

// members returns the sorted distribution for key, or nil.
func (s *Snapshot) members(k Key) []float64 {
	return s.cohorts[k]
}

// Builder accumulates per-player metric values into a Snapshot.
// Eligibility filtering (per-player minimum sample) is the loader's job;
// the builder stores whatever it is given.
type Builder struct {
	cohorts map[Key][]float64
}

// NewBuilder creates an empty snapshot builder.
func NewBuilder() *Builder {
	return &Builder{cohorts: make(map[Key][]float64)}
}

// Add records one player's value for a cohort.
func (b *Builder) Add(level model.Level, season int, metric Metric, value float64) {
	k := Key{Level: level, Season: season, Metric: metric}
	b.cohorts[k] = append(b.cohorts[k], value)
}

// Build sorts every distribution and returns the immutable snapshot.
func (b *Builder) Build(builtAt time.Time) *Snapshot {
	for _, vs := range b.cohorts {
		sort.Float64s(vs)
	}
	snap := &Snapshot{cohorts: b.cohorts, builtAt: builtAt}
	b.cohorts = make(map[Key][]float64)
	return snap
}

// Store answers percentile queries against the current snapshot.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot

	minCohortSize  int
	maxSeasonWiden int
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithMinCohortSize sets the minimum member count below which a cohort is
// treated as unavailable.
func WithMinCohortSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.minCohortSize = n
		}
	}
}

// WithMaxSeasonWiden bounds how many seasons back a lookup may widen when
// the requested season has no eligible cohort.
func WithMaxSeasonWiden(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxSeasonWiden = n
		}
	}
}

// Default policy constants.
const (
	defaultMinCohortSize  = 10
	defaultMaxSeasonWiden = 2
)

// NewStore creates an empty store. Percentile queries fail with
// ErrNoSnapshot until the first Swap.
func NewStore(opts ...Option) *Store {
	s := &Store{
		minCohortSize:  defaultMinCohortSize,
		maxSeasonWiden: defaultMaxSeasonWiden,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Swap atomically replaces the current snapshot.
func (s *Store) Swap(snap *Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	metrics.RecordCohortSnapshotReload()
}

// Acquire returns the current snapshot handle. Callers performing several
// lookups for one scoring decision should acquire once and query the
// handle, so a concurrent Swap cannot split their view.
func (s *Store) Acquire() (*Snapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// BuiltAt reports the build time of the active snapshot, or zero time.
func (s *Store) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return time.Time{}
	}
	return s.snap.builtAt
}

// PercentileOf answers a one-off percentile query against the current
// snapshot. Multi-lookup callers should use Acquire + Snapshot.PercentileOf.
func (s *Store) PercentileOf(level model.Level, season int, metric Metric, value float64) (Result, error) {
	snap, err := s.Acquire()
	if err != nil {
		return Result{}, err
	}
	return s.lookup(snap, level, season, metric, value)
}

// SnapshotPercentileOf answers a percentile query against a previously
// acquired snapshot, applying the store's widening and size policy.
func (s *Store) SnapshotPercentileOf(snap *Snapshot, level model.Level, season int, metric Metric, value float64) (Result, error) {
	return s.lookup(snap, level, season, metric, value)
}

// lookup tries the requested season first, then widens to earlier seasons
// for the same level, nearest first, up to the configured bound.
func (s *Store) lookup(snap *Snapshot, level model.Level, season int, metric Metric, value float64) (Result, error) {
	metrics.RecordPercentileLookup()

	for back := 0; back <= s.maxSeasonWiden; back++ {
		use := season - back
		members := snap.members(Key{Level: level, Season: use, Metric: metric})
		if len(members) < s.minCohortSize {
			continue
		}
		if back > 0 {
			metrics.RecordSeasonWidening()
		}
		return Result{
			Percentile: percentile(members, value),
			SeasonUsed: use,
			CohortSize: len(members),
		}, nil
	}

	metrics.RecordNoCohort()
	return Result{}, fmt.Errorf("level %s season %d metric %s: %w", level, season, metric, ErrNoCohort)
}

// percentile computes the inclusive-rank percentile of value within the
// sorted distribution: the fraction of members with a value <= the queried
// value, scaled to [0,100].
func percentile(sorted []float64, value float64) float64 {
	// First index with member > value; equal members rank inclusively.
	idx := sort.SearchFloat64s(sorted, value)
	for idx < len(sorted) && sorted[idx] == value {
		idx++
	}
	return float64(idx) / float64(len(sorted)) * 100
}
