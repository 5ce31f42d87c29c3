// Package teamneeds derives positional gaps, depth, and a competitive
// window classification from a roster snapshot.
package teamneeds

import (
	"sort"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
)

// Window is a team's competitive phase. Classification is total: every
// roster maps to exactly one label.
type Window string

const (
	WindowContending   Window = "contending"
	WindowRetooling    Window = "retooling"
	WindowRebuilding   Window = "rebuilding"
	WindowTransitional Window = "transitional"
)

// Analysis is the immutable result of analyzing one roster snapshot.
type Analysis struct {
	TeamID     string                     `json:"team_id"`
	AsOf       time.Time                  `json:"as_of"`
	Gaps       map[model.Position]float64 `json:"gaps"`
	Depth      map[model.Position]int     `json:"depth"`
	Window     Window                     `json:"window"`
	Weaknesses []model.Position           `json:"weaknesses"`
}

// IsWeakness reports whether pos made the weakness list.
func (a Analysis) IsWeakness(pos model.Position) bool {
	for _, w := range a.Weaknesses {
		if w == pos {
			return true
		}
	}
	return false
}

// Default policy constants.
const (
	defaultSeverityThreshold = 6.0
	maxGapScore              = 10.0

	// Window classification thresholds over the roster quality index
	// (share of quality-adjusted slots filled), average age, and average
	// control years.
	contendQuality   = 0.55
	rebuildQuality   = 0.35
	agingRosterAge   = 30.0
	youngCoreControl = 3.5
)

// requiredSlots is the roster-construction baseline per position for a
// standard fantasy format.
var requiredSlots = map[model.Position]int{
	model.Catcher:      1,
	model.FirstBase:    1,
	model.SecondBase:   1,
	model.ThirdBase:    1,
	model.Shortstop:    1,
	model.Outfield:     3,
	model.DesignatedH:  1,
	model.StarterPitch: 5,
	model.Relief:       2,
}

// tierValue is the quality-adjusted roster credit per player tier. Bench
// and replacement players fill less of a slot than starters.
var tierValue = map[model.PlayerTier]float64{
	model.TierStar:        1.25,
	model.TierStarter:     1.0,
	model.TierBench:       0.5,
	model.TierReplacement: 0.25,
}

// Analyzer computes team needs analyses.
type Analyzer struct {
	severityThreshold float64
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithSeverityThreshold sets the gap score at or above which a position is
// flagged as a team weakness.
func WithSeverityThreshold(t float64) Option {
	return func(a *Analyzer) {
		if t > 0 {
			a.severityThreshold = t
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{severityThreshold: defaultSeverityThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces the needs analysis for one roster snapshot. The result
// is a pure function of its inputs; callers own any caching.
func (a *Analyzer) Analyze(teamID string, roster []model.RosterPlayer, asOf time.Time) Analysis {
	gaps := make(map[model.Position]float64, len(requiredSlots))
	depth := make(map[model.Position]int, len(requiredSlots))
	quality := make(map[model.Position]float64, len(requiredSlots))

	for _, p := range roster {
		depth[p.Position]++
		quality[p.Position] += tierValue[p.Tier]
	}

	var weaknesses []model.Position
	for _, pos := range model.Positions {
		required := requiredSlots[pos]
		gap := (float64(required) - quality[pos]) / float64(required) * maxGapScore
		gap = clamp(gap, 0, maxGapScore)
		gaps[pos] = gap
		if gap >= a.severityThreshold {
			weaknesses = append(weaknesses, pos)
		}
	}
	// Severity order, largest gap first; position order breaks ties.
	sort.Slice(weaknesses, func(i, j int) bool {
		if gaps[weaknesses[i]] != gaps[weaknesses[j]] {
			return gaps[weaknesses[i]] > gaps[weaknesses[j]]
		}
		return weaknesses[i] < weaknesses[j]
	})

	return Analysis{
		TeamID:     teamID,
		AsOf:       asOf,
		Gaps:       gaps,
		Depth:      depth,
		Window:     classify(roster),
		Weaknesses: weaknesses,
	}
}

// classify applies the competitive-window rule over aggregate roster
// quality, average age, and average control years. The rule ladder is
// total and stable: identical rosters always map to the same label.
func classify(roster []model.RosterPlayer) Window {
	if len(roster) == 0 {
		return WindowRebuilding
	}

	var qualitySum, ageSum, controlSum float64
	for _, p := range roster {
		qualitySum += tierValue[p.Tier]
		ageSum += p.Age
		controlSum += float64(p.ControlYears)
	}

	totalRequired := 0
	for _, n := range requiredSlots {
		totalRequired += n
	}

	quality := qualitySum / float64(totalRequired)
	avgAge := ageSum / float64(len(roster))
	avgControl := controlSum / float64(len(roster))

	switch {
	case quality >= contendQuality && avgAge <= agingRosterAge:
		return WindowContending
	case quality >= contendQuality:
		return WindowRetooling
	case quality < rebuildQuality:
		return WindowRebuilding
	case avgControl >= youngCoreControl:
		return WindowTransitional
	default:
		return WindowRetooling
	}
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
