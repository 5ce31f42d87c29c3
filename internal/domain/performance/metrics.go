package performance

import (
	"sort"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/cohort"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
)

// weightedMetric binds a cohort metric to its share of the composite.
// LowerIsBetter metrics are inverted (100 - percentile) before weighting.
type weightedMetric struct {
	Metric        cohort.Metric
	Weight        float64
	LowerIsBetter bool
}

// Fixed per-role weight sets. Each set must sum to 1.0; New validates this
// at construction and refuses to renormalize.
var (
	batterWeights = []weightedMetric{
		{Metric: cohort.MetricExitVelo90, Weight: 0.25},
		{Metric: cohort.MetricHardContactRate, Weight: 0.25},
		{Metric: cohort.MetricContactRate, Weight: 0.20},
		{Metric: cohort.MetricWhiffRate, Weight: 0.15, LowerIsBetter: true},
		{Metric: cohort.MetricChaseRate, Weight: 0.15, LowerIsBetter: true},
	}

	pitcherWeights = []weightedMetric{
		{Metric: cohort.MetricWhiffRateInduced, Weight: 0.30},
		{Metric: cohort.MetricFastballVelo, Weight: 0.20},
		{Metric: cohort.MetricHardContactAllow, Weight: 0.20, LowerIsBetter: true},
		{Metric: cohort.MetricZoneRate, Weight: 0.15},
		{Metric: cohort.MetricChaseRateInduced, Weight: 0.15},
	}
)

// rawMetrics computes the raw rate statistics for one role from a window
// of events. Metrics whose denominator is zero are omitted from the map.
func rawMetrics(role model.Role, events []model.EventRecord) map[cohort.Metric]float64 {
	if role == model.RolePitcher {
		return pitcherMetrics(events)
	}
	return batterMetrics(events)
}

func batterMetrics(events []model.EventRecord) map[cohort.Metric]float64 {
	var (
		swings, whiffs, contacts int
		outZone, chases          int
		battedBalls, hardHits    int
		exitVelos                []float64
	)

	for _, e := range events {
		if e.Swung {
			swings++
			if e.Whiff() {
				whiffs++
			} else if e.Contact {
				contacts++
			}
		}
		if !e.InZone {
			outZone++
			if e.Chase {
				chases++
			}
		}
		if e.InPlay() {
			battedBalls++
			exitVelos = append(exitVelos, e.ExitVelocity)
			if e.HardHit {
				hardHits++
			}
		}
	}

	m := make(map[cohort.Metric]float64)
	if swings > 0 {
		m[cohort.MetricContactRate] = float64(contacts) / float64(swings)
		m[cohort.MetricWhiffRate] = float64(whiffs) / float64(swings)
	}
	if outZone > 0 {
		m[cohort.MetricChaseRate] = float64(chases) / float64(outZone)
	}
	if battedBalls > 0 {
		m[cohort.MetricHardContactRate] = float64(hardHits) / float64(battedBalls)
		m[cohort.MetricExitVelo90] = percentile90(exitVelos)
	}
	return m
}

func pitcherMetrics(events []model.EventRecord) map[cohort.Metric]float64 {
	var (
		total, inZone            int
		swings, whiffs           int
		outZone, chases          int
		battedBalls, hardHits    int
		fastballs                int
		fastballVeloSum          float64
	)

	for _, e := range events {
		total++
		if e.InZone {
			inZone++
		} else {
			outZone++
			if e.Chase {
				chases++
			}
		}
		if e.Swung {
			swings++
			if e.Whiff() {
				whiffs++
			}
		}
		if e.InPlay() {
			battedBalls++
			if e.HardHit {
				hardHits++
			}
		}
		if e.IsFastball && e.PitchVelocity > 0 {
			fastballs++
			fastballVeloSum += e.PitchVelocity
		}
	}

	m := make(map[cohort.Metric]float64)
	if total > 0 {
		m[cohort.MetricZoneRate] = float64(inZone) / float64(total)
	}
	if swings > 0 {
		m[cohort.MetricWhiffRateInduced] = float64(whiffs) / float64(swings)
	}
	if outZone > 0 {
		m[cohort.MetricChaseRateInduced] = float64(chases) / float64(outZone)
	}
	if battedBalls > 0 {
		m[cohort.MetricHardContactAllow] = float64(hardHits) / float64(battedBalls)
	}
	if fastballs > 0 {
		m[cohort.MetricFastballVelo] = fastballVeloSum / float64(fastballs)
	}
	return m
}

// percentile90 returns the empirical 90th-percentile value of vs.
func percentile90(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)-1) * 0.9)
	return sorted[idx]
}
