package performance_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/cohort"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/performance"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEvents struct {
	events []model.EventRecord
	err    error
}

func (f *fakeEvents) GetEvents(_ context.Context, _ string, _ model.Role, _ time.Time) ([]model.EventRecord, error) {
	return f.events, f.err
}

var asOf = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

// makeBatterEvents produces n events (n a multiple of 4) with fixed rates:
// contact 2/3, whiff 1/3, chase 0.5, hard contact 0.5, EV90 of 90.
func makeBatterEvents(n int, level model.Level, gameDate time.Time) []model.EventRecord {
	events := make([]model.EventRecord, 0, n)
	for i := 0; i < n/4; i++ {
		events = append(events,
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: 2025, GameDate: gameDate,
				InZone: true, Swung: true, Contact: true, ExitVelocity: 90, HardHit: true},
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: 2025, GameDate: gameDate,
				InZone: true, Swung: true, Contact: false},
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: 2025, GameDate: gameDate,
				InZone: false, Swung: false},
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: 2025, GameDate: gameDate,
				InZone: false, Swung: true, Contact: true, Chase: true, ExitVelocity: 80},
		)
	}
	return events
}

// makePitcherEvents produces n events (n a multiple of 4) with fixed rates:
// zone 0.5, induced whiff 1/3, induced chase 0.5, hard contact allowed 0.5,
// average fastball velocity 95.
func makePitcherEvents(n int, level model.Level, gameDate time.Time) []model.EventRecord {
	events := make([]model.EventRecord, 0, n)
	for i := 0; i < n/4; i++ {
		events = append(events,
			model.EventRecord{Role: model.RolePitcher, Level: level, Season: 2025, GameDate: gameDate,
				InZone: true, Swung: true, Contact: false, IsFastball: true, PitchVelocity: 95},
			model.EventRecord{Role: model.RolePitcher, Level: level, Season: 2025, GameDate: gameDate,
				InZone: true, Swung: true, Contact: true, ExitVelocity: 85, HardHit: true},
			model.EventRecord{Role: model.RolePitcher, Level: level, Season: 2025, GameDate: gameDate,
				InZone: false, Swung: true, Contact: true, Chase: true, ExitVelocity: 70},
			model.EventRecord{Role: model.RolePitcher, Level: level, Season: 2025, GameDate: gameDate,
				InZone: false, Swung: false},
		)
	}
	return events
}

// centeredStore builds a store whose cohort for each metric straddles the
// given player value, placing it exactly at the 50th percentile.
func centeredStore(level model.Level, values map[cohort.Metric]float64) *cohort.Store {
	b := cohort.NewBuilder()
	for metric, v := range values {
		// The fifth member is exactly v, so the inclusive rank is 5 of 10.
		for i := 1; i <= 10; i++ {
			b.Add(level, 2025, metric, v*(float64(i)/5.0))
		}
	}
	store := cohort.NewStore(cohort.WithMinCohortSize(10))
	store.Swap(b.Build(time.Now()))
	return store
}

func batterValues() map[cohort.Metric]float64 {
	return map[cohort.Metric]float64{
		cohort.MetricExitVelo90:      90,
		cohort.MetricHardContactRate: 0.5,
		cohort.MetricContactRate:     2.0 / 3.0,
		cohort.MetricWhiffRate:       1.0 / 3.0,
		cohort.MetricChaseRate:       0.5,
	}
}

func TestComputeBatter(t *testing.T) {
	Convey("Given a batter with 60 pitches in the window", t, func() {
		source := &fakeEvents{events: makeBatterEvents(60, model.LevelAA, asOf.AddDate(0, 0, -10))}
		agg, err := performance.New(source, centeredStore(model.LevelAA, batterValues()))
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			snap, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)

			Convey("Then the snapshot is complete and centered", func() {
				So(err, ShouldBeNil)
				So(snap.SampleSize, ShouldEqual, 60)
				So(snap.PrimaryLevel, ShouldEqual, "AA")
				So(snap.Metrics, ShouldHaveLength, 5)
				for _, ms := range snap.Metrics {
					So(ms.NoCohort, ShouldBeFalse)
					So(ms.Percentile, ShouldAlmostEqual, 50, 1e-9)
					So(ms.SeasonUsed, ShouldEqual, 2025)
				}
				So(snap.CompositePercentile, ShouldAlmostEqual, 50, 1e-9)
				So(snap.Modifier, ShouldAlmostEqual, 0, 1e-9)
			})
		})
	})

	Convey("Given a batter with only 40 pitches in the window", t, func() {
		source := &fakeEvents{events: makeBatterEvents(40, model.LevelAA, asOf.AddDate(0, 0, -10))}
		agg, err := performance.New(source, centeredStore(model.LevelAA, batterValues()))
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			_, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)

			Convey("Then the sample is rejected", func() {
				So(errors.Is(err, performance.ErrInsufficientSample), ShouldBeTrue)
			})
		})
	})

	Convey("Given a batter whose recent pitches are mostly stale", t, func() {
		events := makeBatterEvents(40, model.LevelAA, asOf.AddDate(0, 0, -200))
		events = append(events, makeBatterEvents(40, model.LevelAA, asOf.AddDate(0, 0, -10))...)
		source := &fakeEvents{events: events}
		agg, err := performance.New(source, centeredStore(model.LevelAA, batterValues()))
		So(err, ShouldBeNil)

		Convey("When computing over a 90-day window", func() {
			_, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)

			Convey("Then out-of-window pitches do not count toward the floor", func() {
				So(errors.Is(err, performance.ErrInsufficientSample), ShouldBeTrue)
			})
		})
	})
}

func TestComputePitcher(t *testing.T) {
	values := map[cohort.Metric]float64{
		cohort.MetricWhiffRateInduced:  1.0 / 3.0,
		cohort.MetricFastballVelo:      95,
		cohort.MetricHardContactAllow:  0.5,
		cohort.MetricZoneRate:          0.5,
		cohort.MetricChaseRateInduced:  0.5,
	}

	Convey("Given a pitcher with 100 pitches in the window", t, func() {
		source := &fakeEvents{events: makePitcherEvents(100, model.LevelAAA, asOf.AddDate(0, 0, -5))}
		agg, err := performance.New(source, centeredStore(model.LevelAAA, values))
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			snap, err := agg.Compute(context.Background(), "p2", model.RolePitcher, nil, 90, asOf)

			Convey("Then the pitcher floor of 100 is met", func() {
				So(err, ShouldBeNil)
				So(snap.SampleSize, ShouldEqual, 100)
				So(snap.Metrics, ShouldHaveLength, 5)
				So(snap.CompositePercentile, ShouldAlmostEqual, 50, 1e-9)
			})
		})
	})

	Convey("Given a pitcher just below the floor", t, func() {
		source := &fakeEvents{events: makePitcherEvents(96, model.LevelAAA, asOf.AddDate(0, 0, -5))}
		agg, err := performance.New(source, centeredStore(model.LevelAAA, values))
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			_, err := agg.Compute(context.Background(), "p2", model.RolePitcher, nil, 90, asOf)

			Convey("Then the batter floor does not apply to pitchers", func() {
				So(errors.Is(err, performance.ErrInsufficientSample), ShouldBeTrue)
			})
		})
	})
}

func TestInversionAndRenormalization(t *testing.T) {
	Convey("Given a store with a cohort for whiff rate only", t, func() {
		// Every cohort member whiffs less than the player, so the raw
		// percentile is 100 and the inverted score is 0.
		b := cohort.NewBuilder()
		for i := 1; i <= 10; i++ {
			b.Add(model.LevelAA, 2025, cohort.MetricWhiffRate, float64(i)*0.01)
		}
		store := cohort.NewStore(cohort.WithMinCohortSize(10))
		store.Swap(b.Build(time.Now()))

		source := &fakeEvents{events: makeBatterEvents(60, model.LevelAA, asOf.AddDate(0, 0, -10))}
		agg, err := performance.New(source, store)
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			snap, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)
			So(err, ShouldBeNil)

			Convey("Then whiff rate is inverted to 0 and carries the composite alone", func() {
				var whiff *performance.MetricScore
				missing := 0
				for i := range snap.Metrics {
					if snap.Metrics[i].Metric == cohort.MetricWhiffRate {
						whiff = &snap.Metrics[i]
					} else if snap.Metrics[i].NoCohort {
						missing++
					}
				}
				So(whiff, ShouldNotBeNil)
				So(whiff.NoCohort, ShouldBeFalse)
				So(whiff.Percentile, ShouldAlmostEqual, 0, 1e-9)
				So(missing, ShouldEqual, 4)
				So(snap.CompositePercentile, ShouldAlmostEqual, 0, 1e-9)
			})

			Convey("Then the modifier saturates without reaching the bound", func() {
				So(snap.Modifier, ShouldAlmostEqual, 15*math.Tanh(-2), 1e-9)
				So(snap.Modifier, ShouldBeGreaterThan, -15)
			})
		})
	})

	Convey("Given a store with no usable cohort at the player's level", t, func() {
		store := cohort.NewStore(cohort.WithMinCohortSize(10))
		b := cohort.NewBuilder()
		for i := 1; i <= 10; i++ {
			b.Add(model.LevelRookie, 2025, cohort.MetricContactRate, float64(i)*0.1)
		}
		store.Swap(b.Build(time.Now()))

		source := &fakeEvents{events: makeBatterEvents(60, model.LevelAA, asOf.AddDate(0, 0, -10))}
		agg, err := performance.New(source, store)
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			_, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)

			Convey("Then the computation fails with no-cohort", func() {
				So(errors.Is(err, performance.ErrNoCohort), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store with no snapshot at all", t, func() {
		source := &fakeEvents{events: makeBatterEvents(60, model.LevelAA, asOf.AddDate(0, 0, -10))}
		agg, err := performance.New(source, cohort.NewStore())
		So(err, ShouldBeNil)

		Convey("When computing the snapshot", func() {
			_, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)

			Convey("Then the computation fails with no-cohort", func() {
				So(errors.Is(err, performance.ErrNoCohort), ShouldBeTrue)
			})
		})
	})
}

func TestLevelSelection(t *testing.T) {
	Convey("Given a batter promoted mid-window with events at A and AA", t, func() {
		events := makeBatterEvents(60, model.LevelA, asOf.AddDate(0, 0, -40))
		events = append(events, makeBatterEvents(60, model.LevelAA, asOf.AddDate(0, 0, -10))...)
		source := &fakeEvents{events: events}

		vals := batterValues()
		b := cohort.NewBuilder()
		for _, level := range []model.Level{model.LevelA, model.LevelAA} {
			for metric, v := range vals {
				for i := 1; i <= 10; i++ {
					b.Add(level, 2025, metric, v*(float64(i)/5.0))
				}
			}
		}
		store := cohort.NewStore(cohort.WithMinCohortSize(10))
		store.Swap(b.Build(time.Now()))

		agg, err := performance.New(source, store)
		So(err, ShouldBeNil)

		Convey("When filtering to AA", func() {
			level := model.LevelAA
			snap, err := agg.Compute(context.Background(), "p1", model.RoleBatter, &level, 90, asOf)

			Convey("Then only AA events are aggregated", func() {
				So(err, ShouldBeNil)
				So(snap.SampleSize, ShouldEqual, 60)
				So(snap.PrimaryLevel, ShouldEqual, "AA")
				So(snap.LevelsAggregated, ShouldResemble, []string{"AA"})
			})
		})

		Convey("When filtering to a level the player never reached", func() {
			level := model.LevelAAA
			snap, err := agg.Compute(context.Background(), "p1", model.RoleBatter, &level, 90, asOf)

			Convey("Then every level in the window is folded together", func() {
				So(err, ShouldBeNil)
				So(snap.SampleSize, ShouldEqual, 120)
				So(snap.PrimaryLevel, ShouldEqual, "AA")
				So(snap.LevelsAggregated, ShouldResemble, []string{"A", "AA"})
			})
		})

		Convey("When computing without a filter", func() {
			snap, err := agg.Compute(context.Background(), "p1", model.RoleBatter, nil, 90, asOf)

			Convey("Then the primary level breaks the volume tie upward", func() {
				So(err, ShouldBeNil)
				So(snap.PrimaryLevel, ShouldEqual, "AA")
			})
		})
	})
}
