package fit

import (
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/teamneeds"
)

// timelineScore is the hand-tuned (window, years-to-ETA) table. These are
// discrete business rules, not samples of a curve; do not smooth them.
func timelineScore(window teamneeds.Window, yearsToETA int) float64 {
	switch window {
	case teamneeds.WindowContending:
		switch {
		case yearsToETA <= 1:
			return 10
		case yearsToETA == 2:
			return 6
		default:
			return 3
		}
	case teamneeds.WindowRetooling:
		switch {
		case yearsToETA <= 1:
			return 9
		case yearsToETA == 2:
			return 8
		case yearsToETA == 3:
			return 6
		default:
			return 4
		}
	case teamneeds.WindowRebuilding:
		switch {
		case yearsToETA <= 1:
			return 7
		case yearsToETA <= 4:
			return 10
		default:
			return 6
		}
	default: // transitional
		switch {
		case yearsToETA <= 2:
			return 8
		case yearsToETA == 3:
			return 7
		default:
			return 5
		}
	}
}

// Rating buckets for the overall fit score.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingVeryGood  Rating = "very good"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// ratingFor maps an overall score to its categorical rating.
func ratingFor(overall float64) Rating {
	switch {
	case overall >= 8.5:
		return RatingExcellent
	case overall >= 7.0:
		return RatingVeryGood
	case overall >= 5.5:
		return RatingGood
	case overall >= 4.0:
		return RatingFair
	default:
		return RatingPoor
	}
}

// defaultScarcity is the position-scarcity multiplier applied by the
// league-aware variant after the base score is computed.
var defaultScarcity = map[model.Position]float64{
	model.Catcher:   1.10,
	model.Relief:    1.10,
	model.Outfield:  0.95,
	model.FirstBase: 0.95,
}

// Confidence tiers for the external quality signal. Lower confidence damps
// the quality component rather than discarding it.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

var confidenceDamping = map[ConfidenceTier]float64{
	ConfidenceHigh:   1.0,
	ConfidenceMedium: 0.85,
	ConfidenceLow:    0.7,
}
