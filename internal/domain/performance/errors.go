package performance

import "errors"

// Sentinel kinds for performance aggregation. Both are recoverable:
// callers fall back to scouting-grade-only valuation on
// ErrInsufficientSample, and ErrNoCohort means peers were missing for
// every metric, not that the player's data was bad.
var (
	ErrInsufficientSample = errors.New("insufficient sample data")
	ErrNoCohort           = errors.New("no cohort available for any metric")
	ErrInvalidWeights     = errors.New("metric weights do not sum to 1.0")
)
