// Package ranking combines scouting grade, performance modifier and age
// factor into a global, deterministically ordered prospect ranking.
package ranking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/agecurve"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/performance"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/logger"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// Default valuation policy constants.
const (
	defaultWorkerCount = 8
	defaultWindowDays  = 90

	// Ungraded prospects enter at an average grade rather than being
	// excluded: absence of a scout report is not evidence of absence.
	ungradedBaseline = 40.0

	// Reference event volumes at which sample reliability reaches 1.0.
	batterReferenceEvents  = 400
	pitcherReferenceEvents = 600

	// Rookie-eligibility style experience ceiling. At or above either
	// bound a player is a proven non-prospect and leaves the rankings.
	defaultMaxMLBAtBats  = 130
	defaultMaxMLBInnings = 50.0
)

// levelWeight reflects the quality of competition behind a prospect's
// recent performance.
var levelWeight = map[model.Level]float64{
	model.LevelRookie: 0.85,
	model.LevelA:      0.90,
	model.LevelAPlus:  0.95,
	model.LevelAA:     1.00,
	model.LevelAAA:    1.05,
}

// PerformanceSource computes performance snapshots. Satisfied by
// *performance.Aggregator.
type PerformanceSource interface {
	Compute(ctx context.Context, playerID string, role model.Role, level *model.Level, windowDays int, asOf time.Time) (performance.Snapshot, error)
}

// Entry is one row of the global ranking output.
type Entry struct {
	Rank         int     `json:"rank"`
	ProspectID   string  `json:"prospect_id"`
	Name         string  `json:"name"`
	Position     string  `json:"position"`
	Organization string  `json:"organization"`
	Level        string  `json:"level"`
	Age          float64 `json:"age"`
	Grade        float64 `json:"grade"`
	AgeFactor    float64 `json:"age_factor"`
	Modifier     float64 `json:"modifier"`
	Reliability  float64 `json:"reliability"`
	SampleSize   int     `json:"sample_size"`
	Composite    float64 `json:"composite"`
}

// Filter narrows the prospect set before ranking. Zero values mean "no
// constraint".
type Filter struct {
	Position     *model.Position
	Level        *model.Level
	Organization string
	MaxAge       float64
	MinGrade     float64
	Limit        int
}

// Assembler produces ranked valuations.
type Assembler struct {
	curve *agecurve.Curve
	perf  PerformanceSource

	workerCount   int
	windowDays    int
	maxMLBAtBats  int
	maxMLBInnings float64

	log logger.Logger
}

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithWorkerCount bounds the scoring worker pool.
func WithWorkerCount(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.workerCount = n
		}
	}
}

// WithWindowDays sets the trailing performance window.
func WithWindowDays(d int) Option {
	return func(a *Assembler) {
		if d > 0 {
			a.windowDays = d
		}
	}
}

// WithExperienceCeiling overrides the MLB experience bounds.
func WithExperienceCeiling(atBats int, innings float64) Option {
	return func(a *Assembler) {
		if atBats > 0 {
			a.maxMLBAtBats = atBats
		}
		if innings > 0 {
			a.maxMLBInnings = innings
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an Assembler.
func New(curve *agecurve.Curve, perf PerformanceSource, opts ...Option) *Assembler {
	a := &Assembler{
		curve:         curve,
		perf:          perf,
		workerCount:   defaultWorkerCount,
		windowDays:    defaultWindowDays,
		maxMLBAtBats:  defaultMaxMLBAtBats,
		maxMLBInnings: defaultMaxMLBInnings,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("ranking")
	}
	metrics.UpdateWorkerCount(a.workerCount)
	return a
}

// Rank values every eligible prospect and returns them in descending
// composite order with deterministic tie-breaks. Prospects are scored in
// parallel by a bounded worker pool; the final order never depends on
// worker scheduling.
func (a *Assembler) Rank(ctx context.Context, prospects []model.Prospect, f Filter, asOf time.Time) ([]Entry, error) {
	start := time.Now()
	runID := uuid.New().String()

	candidates := make([]model.Prospect, 0, len(prospects))
	for _, p := range prospects {
		if f.matches(p, asOf) {
			candidates = append(candidates, p)
		}
	}

	// Fan out over prospects, never within one prospect's scoring path.
	// Results land in a fixed slot per candidate so ordering is stable.
	results := make([]*Entry, len(candidates))
	jobs := make(chan int)

	workers := a.workerCount
	if workers > len(candidates) {
		workers = len(candidates)
	}
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range jobs {
				results[i] = a.value(ctx, candidates[i], asOf)
			}
		}()
	}

	for i := range candidates {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			for w := 0; w < workers; w++ {
				<-done
			}
			return nil, ctx.Err()
		}
	}
	close(jobs)
	for w := 0; w < workers; w++ {
		<-done
	}

	entries := make([]Entry, 0, len(candidates))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}

	sortEntries(entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}

	a.log.Debug(ctx, "ranking run complete",
		logger.String("run_id", runID),
		logger.Int("candidates", len(candidates)),
		logger.Int("ranked", len(entries)),
		logger.Duration("elapsed", time.Since(start)),
	)
	metrics.RecordRankingBatch(len(candidates), float64(time.Since(start).Milliseconds()))

	return entries, nil
}

// value produces one prospect's ranking entry, or nil when the prospect is
// ineligible. Ineligibility is exclusion, not an error.
func (a *Assembler) value(ctx context.Context, p model.Prospect, asOf time.Time) *Entry {
	age := p.AgeAt(asOf)
	combined := a.curve.Combined(age, p.Level)
	if combined <= 0 || p.MLBAtBats >= a.maxMLBAtBats || p.MLBInnings >= a.maxMLBInnings {
		metrics.RecordIneligibleProspect()
		a.log.Debug(ctx, "prospect ineligible for ranking",
			logger.String("prospect_id", p.ID),
			logger.Float64("age", age),
			logger.Float64("age_factor", combined),
			logger.Int("mlb_at_bats", p.MLBAtBats),
		)
		return nil
	}

	role := model.RoleBatter
	if p.Position.IsPitcher() {
		role = model.RolePitcher
	}

	var (
		modifier    float64
		reliability float64
		sample      int
	)
	snap, err := a.perf.Compute(ctx, p.ID, role, nil, a.windowDays, asOf)
	switch {
	case err == nil:
		modifier = snap.Modifier
		sample = snap.SampleSize
		reliability = sampleReliability(role, sample)
	case errors.Is(err, performance.ErrInsufficientSample), errors.Is(err, performance.ErrNoCohort):
		// Grade-only valuation; low data flows through, it does not abort.
	default:
		a.log.Warn(ctx, "performance snapshot failed; using grade-only valuation",
			logger.String("prospect_id", p.ID),
			logger.Error(err),
		)
	}

	grade := ungradedBaseline
	if p.HasGrade {
		grade = p.FutureValue
	}

	composite := grade * combined * levelWeight[p.Level] * (1 + modifier/100*reliability)

	return &Entry{
		ProspectID:   p.ID,
		Name:         p.Name,
		Position:     string(p.Position),
		Organization: p.Organization,
		Level:        p.Level.String(),
		Age:          age,
		Grade:        grade,
		AgeFactor:    combined,
		Modifier:     modifier,
		Reliability:  reliability,
		SampleSize:   sample,
		Composite:    composite,
	}
}

// sampleReliability scales toward 1.0 as recent event volume approaches
// the role's reference volume, so small samples cannot swing a valuation.
func sampleReliability(role model.Role, sample int) float64 {
	reference := batterReferenceEvents
	if role == model.RolePitcher {
		reference = pitcherReferenceEvents
	}
	r := float64(sample) / float64(reference)
	if r > 1 {
		return 1
	}
	return r
}

// sortEntries orders by composite descending with deterministic
// tie-breaks: higher grade, younger age, then stable id order. Ties are
// never left to insertion order.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if a.Grade != b.Grade {
			return a.Grade > b.Grade
		}
		if a.Age != b.Age {
			return a.Age < b.Age
		}
		return a.ProspectID < b.ProspectID
	})
}

// matches applies the filter criteria to one prospect.
func (f Filter) matches(p model.Prospect, asOf time.Time) bool {
	if f.Position != nil && p.Position != *f.Position {
		return false
	}
	if f.Level != nil && p.Level != *f.Level {
		return false
	}
	if f.Organization != "" && p.Organization != f.Organization {
		return false
	}
	if f.MaxAge > 0 && p.AgeAt(asOf) > f.MaxAge {
		return false
	}
	if f.MinGrade > 0 && (!p.HasGrade || p.FutureValue < f.MinGrade) {
		return false
	}
	return true
}
