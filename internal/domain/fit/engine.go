// Package fit scores how well one prospect fits one team's needs, with an
// explainable per-component breakdown.
package fit

import (
	"fmt"
	"math"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/teamneeds"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// ErrInvalidWeights is fatal at construction time: component weights must
// sum to 1.0 and are never renormalized.
var ErrInvalidWeights = fmt.Errorf("fit component weights do not sum to 1.0")

const weightTolerance = 1e-9

// ComponentWeights holds the five fixed component weights.
type ComponentWeights struct {
	PositionNeed float64 `json:"position_need" koanf:"position_need"`
	Timeline     float64 `json:"timeline" koanf:"timeline"`
	DepthImpact  float64 `json:"depth_impact" koanf:"depth_impact"`
	Quality      float64 `json:"quality" koanf:"quality"`
	Value        float64 `json:"value" koanf:"value"`
}

// DefaultWeights is the standard weighting.
func DefaultWeights() ComponentWeights {
	return ComponentWeights{
		PositionNeed: 0.30,
		Timeline:     0.25,
		DepthImpact:  0.20,
		Quality:      0.15,
		Value:        0.10,
	}
}

func (w ComponentWeights) sum() float64 {
	return w.PositionNeed + w.Timeline + w.DepthImpact + w.Quality + w.Value
}

// Components are the five 0-10 scores that make up the fit breakdown.
type Components struct {
	PositionNeed float64 `json:"position_need"`
	Timeline     float64 `json:"timeline"`
	DepthImpact  float64 `json:"depth_impact"`
	Quality      float64 `json:"quality"`
	Value        float64 `json:"value"`
}

// QualityEstimate is the opaque projection provider's signal for a
// prospect: a success probability and the confidence of that estimate.
type QualityEstimate struct {
	Probability float64        `json:"probability"`
	Confidence  ConfidenceTier `json:"confidence"`
}

// LeagueSettings carries the optional league-specific scoring hints.
type LeagueSettings struct {
	ScoringSystem string `json:"scoring_system"`
	RosterFormat  string `json:"roster_format"`
}

// Score is the full result of scoring one prospect against one team.
type Score struct {
	ProspectID string           `json:"prospect_id"`
	TeamID     string           `json:"team_id"`
	Window     teamneeds.Window `json:"window"`
	Components Components       `json:"components"`
	Weights    ComponentWeights `json:"weights"`
	Overall    float64          `json:"overall"`
	Rating     Rating           `json:"rating"`
}

// Engine computes fit scores.
type Engine struct {
	weights  ComponentWeights
	scarcity map[model.Position]float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the component weights. New still validates the sum.
func WithWeights(w ComponentWeights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithScarcity overrides the position-scarcity multipliers.
func WithScarcity(s map[model.Position]float64) Option {
	return func(e *Engine) {
		if len(s) > 0 {
			e.scarcity = s
		}
	}
}

// New creates an Engine, failing fast on weights that do not sum to 1.0.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:  DefaultWeights(),
		scarcity: defaultScarcity,
	}
	for _, opt := range opts {
		opt(e)
	}
	if math.Abs(e.weights.sum()-1.0) > weightTolerance {
		return nil, fmt.Errorf("sum %v: %w", e.weights.sum(), ErrInvalidWeights)
	}
	return e, nil
}

// Score computes the fit of prospect p for the team described by needs.
// quality may be nil (fall back to the scouting grade); league may be nil
// (skip the scarcity multiplier). currentYear anchors years-to-ETA.
func (e *Engine) Score(p model.Prospect, needs teamneeds.Analysis, quality *QualityEstimate, league *LeagueSettings, currentYear int) Score {
	start := time.Now()

	weak := needs.IsWeakness(p.Position)
	gap := needs.Gaps[p.Position]

	c := Components{
		PositionNeed: positionNeedScore(gap, weak),
		Timeline:     timelineScore(needs.Window, p.ETAYear-currentYear),
		DepthImpact:  depthImpactScore(gap, needs.Depth[p.Position]),
		Quality:      qualityScore(p, quality),
	}
	c.Value = valueScore(c.PositionNeed, weak)

	overall := c.PositionNeed*e.weights.PositionNeed +
		c.Timeline*e.weights.Timeline +
		c.DepthImpact*e.weights.DepthImpact +
		c.Quality*e.weights.Quality +
		c.Value*e.weights.Value

	if league != nil {
		if mult, ok := e.scarcity[p.Position]; ok {
			overall *= mult
		}
		overall = clamp(overall, 0, 10)
	}

	rating := ratingFor(overall)
	metrics.RecordFitScore(string(rating))
	metrics.RecordFitLatency(float64(time.Since(start).Milliseconds()))

	return Score{
		ProspectID: p.ID,
		TeamID:     needs.TeamID,
		Window:     needs.Window,
		Components: c,
		Weights:    e.weights,
		Overall:    overall,
		Rating:     rating,
	}
}

// positionNeedScore is the team's gap score at the position, with a +1
// bonus when the position is also a flagged weakness, capped at 10.
func positionNeedScore(gap float64, weakness bool) float64 {
	score := gap
	if weakness {
		score++
	}
	return clamp(score, 0, 10)
}

// depthImpactScore is higher when the positional deficit is large (likely
// immediate starter) or current depth is thin, lower when depth is strong.
func depthImpactScore(gap float64, depth int) float64 {
	switch {
	case gap >= 7:
		return 10
	case depth <= 1:
		return 9
	case depth <= 2:
		return 8
	case gap >= 5:
		return 7
	case depth <= 3:
		return 6
	case depth >= 5:
		return 3
	default:
		return 5
	}
}

// qualityScore uses the external success-probability estimate when
// available, damped by its confidence tier; otherwise it rescales the
// 20-80 scouting grade to 0-10. Ungraded prospects score neutral.
func qualityScore(p model.Prospect, q *QualityEstimate) float64 {
	if q != nil {
		damp, ok := confidenceDamping[q.Confidence]
		if !ok {
			damp = confidenceDamping[ConfidenceLow]
		}
		return clamp(q.Probability*10*damp, 0, 10)
	}
	if !p.HasGrade {
		return 5
	}
	return clamp((p.FutureValue-20)/60*10, 0, 10)
}

// valueScore rewards filling urgent needs: 70% of the position-need score
// plus a flat +3 when the position is a weakness, capped at 10.
func valueScore(positionNeed float64, weakness bool) float64 {
	score := positionNeed * 0.7
	if weakness {
		score += 3
	}
	return clamp(score, 0, 10)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
