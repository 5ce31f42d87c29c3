// Package performance turns windows of pitch-level events into rate
// metrics, cohort-relative percentiles, and a bounded performance modifier.
package performance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/cohort"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// Default aggregation policy constants.
const (
	defaultBatterMinPitches  = 50
	defaultPitcherMinPitches = 100
	defaultWindowDays        = 90

	// Modifier saturation: composite percentile 50 is neutral; the
	// modifier approaches +-maxModifier asymptotically at the extremes.
	maxModifier      = 15.0
	saturationScale  = 25.0
	neutralComposite = 50.0

	weightTolerance = 1e-9
)

// EventSource supplies pre-fetched event windows. Implementations must not
// be consulted for anything but reads.
type EventSource interface {
	GetEvents(ctx context.Context, playerID string, role model.Role, since time.Time) ([]model.EventRecord, error)
}

// MetricScore is one metric's contribution to the composite, kept for
// explainability.
type MetricScore struct {
	Metric        cohort.Metric `json:"metric"`
	Value         float64       `json:"value"`
	Percentile    float64       `json:"percentile"`
	Weight        float64       `json:"weight"`
	LowerIsBetter bool          `json:"lower_is_better"`
	SeasonUsed    int           `json:"season_used"`
	CohortSize    int           `json:"cohort_size"`
	NoCohort      bool          `json:"no_cohort,omitempty"`
}

// Snapshot is a fully computed performance view for one player. It is
// either complete or not returned at all.
type Snapshot struct {
	PlayerID            string        `json:"player_id"`
	Role                string        `json:"role"`
	PrimaryLevel        string        `json:"primary_level"`
	LevelsAggregated    []string      `json:"levels_aggregated"`
	WindowDays          int           `json:"window_days"`
	SampleSize          int           `json:"sample_size"`
	Metrics             []MetricScore `json:"metrics"`
	CompositePercentile float64       `json:"composite_percentile"`
	Modifier            float64       `json:"modifier"`
}

// Aggregator computes performance snapshots against a cohort store.
type Aggregator struct {
	source EventSource
	store  *cohort.Store

	batterMin  int
	pitcherMin int
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithMinSamples overrides the role-specific minimum pitch counts.
func WithMinSamples(batter, pitcher int) Option {
	return func(a *Aggregator) {
		if batter > 0 {
			a.batterMin = batter
		}
		if pitcher > 0 {
			a.pitcherMin = pitcher
		}
	}
}

// New creates an Aggregator. It fails fast if either fixed metric weight
// set does not sum to 1.0; weights are never silently renormalized.
func New(source EventSource, store *cohort.Store, opts ...Option) (*Aggregator, error) {
	for role, set := range map[string][]weightedMetric{
		"batter":  batterWeights,
		"pitcher": pitcherWeights,
	} {
		var sum float64
		for _, wm := range set {
			sum += wm.Weight
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return nil, fmt.Errorf("%s weights sum to %v: %w", role, sum, ErrInvalidWeights)
		}
	}

	a := &Aggregator{
		source:     source,
		store:      store,
		batterMin:  defaultBatterMinPitches,
		pitcherMin: defaultPitcherMinPitches,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// minSample returns the role-specific event floor below which rate stats
// are too noisy to score.
func (a *Aggregator) minSample(role model.Role) int {
	if role == model.RolePitcher {
		return a.pitcherMin
	}
	return a.batterMin
}

// Compute builds a performance snapshot for one player over a trailing
// window ending at asOf. A nil levelFilter aggregates across every level
// the player appeared at in the window; a set filter restricts to that
// level only when the player actually has events there.
func (a *Aggregator) Compute(ctx context.Context, playerID string, role model.Role, levelFilter *model.Level, windowDays int, asOf time.Time) (Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPerformanceLatency(float64(time.Since(start).Milliseconds()))
	}()

	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	since := asOf.AddDate(0, 0, -windowDays)

	all, err := a.source.GetEvents(ctx, playerID, role, since)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch events for %s: %w", playerID, err)
	}

	// The source may over-return; keep only in-window events for this role.
	events := make([]model.EventRecord, 0, len(all))
	for _, e := range all {
		if e.Role != role || e.GameDate.Before(since) || e.GameDate.After(asOf) {
			continue
		}
		events = append(events, e)
	}

	levels := levelsByVolume(events)

	// An explicit level filter only applies when the player has events
	// there; otherwise fold every level played in the window together.
	// Restricting to the highest level reached would undercount players
	// promoted mid-window.
	primary, filtered := a.selectLevels(events, levels, levelFilter)

	if len(filtered) < a.minSample(role) {
		metrics.RecordInsufficientSample(role.String())
		return Snapshot{}, fmt.Errorf("player %s: %d events, need %d: %w",
			playerID, len(filtered), a.minSample(role), ErrInsufficientSample)
	}

	raw := rawMetrics(role, filtered)
	season := latestSeason(filtered)

	snap, err := a.store.Acquire()
	if err != nil {
		return Snapshot{}, fmt.Errorf("player %s: %w", playerID, ErrNoCohort)
	}

	weights := batterWeights
	if role == model.RolePitcher {
		weights = pitcherWeights
	}

	var (
		scores      []MetricScore
		weightedSum float64
		weightAvail float64
	)
	for _, wm := range weights {
		value, hasValue := raw[wm.Metric]
		if !hasValue {
			continue
		}
		ms := MetricScore{
			Metric:        wm.Metric,
			Value:         value,
			Weight:        wm.Weight,
			LowerIsBetter: wm.LowerIsBetter,
		}
		res, lerr := a.store.SnapshotPercentileOf(snap, primary, season, wm.Metric, value)
		if lerr != nil {
			ms.NoCohort = true
			scores = append(scores, ms)
			continue
		}
		p := res.Percentile
		if wm.LowerIsBetter {
			p = 100 - p
		}
		ms.Percentile = p
		ms.SeasonUsed = res.SeasonUsed
		ms.CohortSize = res.CohortSize
		scores = append(scores, ms)

		weightedSum += wm.Weight * p
		weightAvail += wm.Weight
	}

	if weightAvail == 0 {
		return Snapshot{}, fmt.Errorf("player %s level %s season %d: %w", playerID, primary, season, ErrNoCohort)
	}

	composite := weightedSum / weightAvail

	levelNames := make([]string, 0, len(filteredLevels(filtered)))
	for _, l := range filteredLevels(filtered) {
		levelNames = append(levelNames, l.String())
	}

	return Snapshot{
		PlayerID:            playerID,
		Role:                role.String(),
		PrimaryLevel:        primary.String(),
		LevelsAggregated:    levelNames,
		WindowDays:          windowDays,
		SampleSize:          len(filtered),
		Metrics:             scores,
		CompositePercentile: composite,
		Modifier:            modifierFor(composite),
	}, nil
}

// selectLevels picks the primary cohort level and the event subset to
// aggregate over.
func (a *Aggregator) selectLevels(events []model.EventRecord, byVolume []model.Level, filter *model.Level) (model.Level, []model.EventRecord) {
	if filter != nil {
		restricted := make([]model.EventRecord, 0, len(events))
		for _, e := range events {
			if e.Level == *filter {
				restricted = append(restricted, e)
			}
		}
		if len(restricted) > 0 {
			return *filter, restricted
		}
	}
	primary := model.LevelRookie
	if len(byVolume) > 0 {
		primary = byVolume[0]
	}
	return primary, events
}

// levelsByVolume returns the levels present in events ordered by event
// count descending, with level order as the deterministic tie-break.
func levelsByVolume(events []model.EventRecord) []model.Level {
	counts := make(map[model.Level]int)
	for _, e := range events {
		counts[e.Level]++
	}
	levels := make([]model.Level, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool {
		if counts[levels[i]] != counts[levels[j]] {
			return counts[levels[i]] > counts[levels[j]]
		}
		return levels[i] > levels[j]
	})
	return levels
}

// filteredLevels lists the distinct levels in the aggregated subset, in
// ascending level order, for the explainability output.
func filteredLevels(events []model.EventRecord) []model.Level {
	seen := make(map[model.Level]bool)
	var levels []model.Level
	for _, e := range events {
		if !seen[e.Level] {
			seen[e.Level] = true
			levels = append(levels, e.Level)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}

// latestSeason returns the most recent season present in events.
func latestSeason(events []model.EventRecord) int {
	season := 0
	for _, e := range events {
		if e.Season > season {
			season = e.Season
		}
	}
	return season
}

// modifierFor maps a composite percentile to the bounded performance
// modifier. Monotonic and saturating: neutral at the 50th percentile,
// approaching +-maxModifier at the extremes without ever diverging.
func modifierFor(composite float64) float64 {
	return maxModifier * math.Tanh((composite-neutralComposite)/saturationScale)
}
