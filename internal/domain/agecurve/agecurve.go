// Package agecurve models the non-linear value of prospect age, with a
// hard cutoff and a level-relative adjustment.
package agecurve

import (
	"math"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
)

// Default curve parameters.
const (
	defaultOptimalAge  = 21.0
	defaultCutoffAge   = 27.0
	defaultSensitivity = 1.5
	defaultYoungAge    = 19.0
	defaultYoungBonus  = 1.15

	// Level-relative adjustment: value per year ahead of the expected age
	// for a level, and the bounds of the adjustment factor.
	perYearLevelBonus = 0.05
	maxLevelAdjust    = 0.25
)

// expectedAge is the typical age for a player at each level. A player
// younger than this at their level is ahead of the development curve.
var expectedAge = map[model.Level]float64{
	model.LevelRookie: 19.0,
	model.LevelA:      20.0,
	model.LevelAPlus:  21.0,
	model.LevelAA:     22.5,
	model.LevelAAA:    24.0,
}

// Curve is a pure age-valuation function.
type Curve struct {
	optimalAge  float64
	cutoffAge   float64
	sensitivity float64
	youngAge    float64
	youngBonus  float64
}

// Option applies a configuration option to the Curve.
type Option func(*Curve)

// WithOptimalAge sets the age at which the base factor is 1.0.
func WithOptimalAge(age float64) Option {
	return func(c *Curve) {
		if age > 0 {
			c.optimalAge = age
		}
	}
}

// WithCutoffAge sets the age at and beyond which the factor is exactly 0.
func WithCutoffAge(age float64) Option {
	return func(c *Curve) {
		if age > 0 {
			c.cutoffAge = age
		}
	}
}

// WithSensitivity sets the exponent controlling decay sharpness above the
// optimal age.
func WithSensitivity(exp float64) Option {
	return func(c *Curve) {
		if exp > 0 {
			c.sensitivity = exp
		}
	}
}

// WithYoungBonus sets the threshold age and multiplier applied below it.
func WithYoungBonus(age, bonus float64) Option {
	return func(c *Curve) {
		if age > 0 && bonus >= 1 {
			c.youngAge = age
			c.youngBonus = bonus
		}
	}
}

// New creates a Curve with default parameters.
func New(opts ...Option) *Curve {
	c := &Curve{
		optimalAge:  defaultOptimalAge,
		cutoffAge:   defaultCutoffAge,
		sensitivity: defaultSensitivity,
		youngAge:    defaultYoungAge,
		youngBonus:  defaultYoungBonus,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CutoffAge returns the hard cutoff age.
func (c *Curve) CutoffAge() float64 { return c.cutoffAge }

// AgeFactor returns the base age multiplier. It is 1.0 at and below the
// optimal age (boosted below the young threshold), decays monotonically
// above it, and is exactly 0 at and beyond the cutoff. The zero is a hard
// filter used by ranking eligibility, not a small number.
func (c *Curve) AgeFactor(age float64) float64 {
	switch {
	case age >= c.cutoffAge:
		return 0
	case age < c.youngAge:
		return c.youngBonus
	case age <= c.optimalAge:
		return 1.0
	}
	remaining := 1 - (age-c.optimalAge)/(c.cutoffAge-c.optimalAge)
	return math.Pow(remaining, c.sensitivity)
}

// LevelFactor returns the age-relative-to-level multiplier: being younger
// than the expected age at a level raises value, older lowers it, bounded
// either side.
func (c *Curve) LevelFactor(age float64, level model.Level) float64 {
	expected, ok := expectedAge[level]
	if !ok {
		return 1.0
	}
	adjust := (expected - age) * perYearLevelBonus
	if adjust > maxLevelAdjust {
		adjust = maxLevelAdjust
	}
	if adjust < -maxLevelAdjust {
		adjust = -maxLevelAdjust
	}
	return 1 + adjust
}

// Combined returns the product of the base and level-relative factors.
// It is 0 exactly when AgeFactor is 0.
func (c *Curve) Combined(age float64, level model.Level) float64 {
	base := c.AgeFactor(age)
	if base == 0 {
		return 0
	}
	return base * c.LevelFactor(age, level)
}
