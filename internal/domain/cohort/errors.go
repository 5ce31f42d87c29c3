package cohort

import "errors"

// Sentinel kinds for cohort lookups. ErrNoCohort is a recoverable,
// reportable condition: the caller decides whether a score can still be
// produced without the affected metric.
var (
	ErrNoCohort    = errors.New("no cohort available")
	ErrNoSnapshot  = errors.New("no cohort snapshot loaded")
	ErrEmptyCohort = errors.New("cohort has no members")
)
