package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	app "github.com/afinewinecompany/afinewinedynasty-sub005/internal/app"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/fit"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/performance"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/ranking"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type fakeCatalog struct {
	prospects map[string]model.Prospect
	err       error
}

func (f *fakeCatalog) GetProspect(_ context.Context, id string) (model.Prospect, error) {
	if f.err != nil {
		return model.Prospect{}, f.err
	}
	p, ok := f.prospects[id]
	if !ok {
		return model.Prospect{}, fmt.Errorf("prospect %s not found", id)
	}
	return p, nil
}

func (f *fakeCatalog) ListProspects(_ context.Context) ([]model.Prospect, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Prospect, 0, len(f.prospects))
	for _, p := range f.prospects {
		out = append(out, p)
	}
	return out, nil
}

type fakeRosters struct {
	rosters map[string][]model.RosterPlayer
	err     error
}

func (f *fakeRosters) GetRoster(_ context.Context, teamID string) ([]model.RosterPlayer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rosters[teamID], nil
}

type fakeEvents struct {
	events map[string][]model.EventRecord
}

func (f *fakeEvents) GetEvents(_ context.Context, playerID string, _ model.Role, _ time.Time) ([]model.EventRecord, error) {
	return f.events[playerID], nil
}

type fakeQuality struct {
	estimate fit.QualityEstimate
	ok       bool
	err      error
	calls    int
}

func (f *fakeQuality) GetQualityEstimate(_ context.Context, _ string) (fit.QualityEstimate, bool, error) {
	f.calls++
	return f.estimate, f.ok, f.err
}

// batterEvents produces n in-window events (n a multiple of 4) at level.
func batterEvents(n int, level model.Level, season int, gameDate time.Time) []model.EventRecord {
	events := make([]model.EventRecord, 0, n)
	for i := 0; i < n/4; i++ {
		events = append(events,
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: season, GameDate: gameDate,
				InZone: true, Swung: true, Contact: true, ExitVelocity: 90, HardHit: true},
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: season, GameDate: gameDate,
				InZone: true, Swung: true, Contact: false},
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: season, GameDate: gameDate,
				InZone: false, Swung: false},
			model.EventRecord{Role: model.RoleBatter, Level: level, Season: season, GameDate: gameDate,
				InZone: false, Swung: true, Contact: true, Chase: true, ExitVelocity: 80},
		)
	}
	return events
}

// writeCohortExport writes a cohort file covering every batter metric at AA
// for the given season, 12 members each.
func writeCohortExport(t *testing.T, dir string, season int) string {
	t.Helper()
	type row struct {
		Level    string  `json:"level"`
		Season   int     `json:"season"`
		Metric   string  `json:"metric"`
		Role     string  `json:"role"`
		PlayerID string  `json:"player_id"`
		Value    float64 `json:"value"`
		Sample   int     `json:"sample"`
	}
	metrics := []string{"ev90", "hard_contact_rate", "contact_rate", "whiff_rate", "chase_rate"}
	var rows []row
	for _, m := range metrics {
		for i := 1; i <= 12; i++ {
			rows = append(rows, row{
				Level:    "AA",
				Season:   season,
				Metric:   m,
				Role:     "batter",
				PlayerID: fmt.Sprintf("cohort-%d", i),
				Value:    float64(i) * 0.08,
				Sample:   80,
			})
		}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal cohort export: %v", err)
	}
	path := filepath.Join(dir, "cohorts.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write cohort export: %v", err)
	}
	return path
}

func testFixtures(t *testing.T) (*fakeCatalog, *fakeRosters, *fakeEvents, string) {
	now := time.Now()
	season := now.Year()

	catalog := &fakeCatalog{prospects: map[string]model.Prospect{
		"p1": {
			ID: "p1", Name: "Alpha", Position: model.Catcher, Organization: "NYY",
			Level: model.LevelAA, BirthDate: now.AddDate(-20, 0, 0),
			ETAYear: season + 1, FutureValue: 55, HasGrade: true,
		},
		"p2": {
			ID: "p2", Name: "Beta", Position: model.Outfield, Organization: "BOS",
			Level: model.LevelAA, BirthDate: now.AddDate(-21, 0, 0),
			ETAYear: season + 2, FutureValue: 45, HasGrade: true,
		},
	}}
	rosters := &fakeRosters{rosters: map[string][]model.RosterPlayer{
		"t1": {
			{PlayerID: "r1", Position: model.Outfield, Tier: model.TierStar, Age: 28, ControlYears: 3},
			{PlayerID: "r2", Position: model.Shortstop, Tier: model.TierStarter, Age: 27, ControlYears: 2},
		},
	}}
	events := &fakeEvents{events: map[string][]model.EventRecord{
		"p1": batterEvents(60, model.LevelAA, season, now.AddDate(0, 0, -10)),
		"p2": batterEvents(40, model.LevelAA, season, now.AddDate(0, 0, -10)),
	}}
	return catalog, rosters, events, writeCohortExport(t, t.TempDir(), season)
}

func TestServiceStart(t *testing.T) {
	Convey("Given a service without providers", t, func() {
		svc := app.New()

		Convey("Then Start refuses to run", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})

	Convey("Given fit weights that do not sum to 1.0", t, func() {
		catalog, rosters, events, _ := testFixtures(t)
		svc := app.New(
			app.WithProviders(catalog, rosters, events),
			app.WithFitWeights(fit.ComponentWeights{PositionNeed: 0.9}),
		)

		Convey("Then Start fails before serving anything", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, fit.ErrInvalidWeights), ShouldBeTrue)
		})
	})

	Convey("Given a missing cohort file", t, func() {
		catalog, rosters, events, _ := testFixtures(t)
		svc := app.New(
			app.WithProviders(catalog, rosters, events),
			app.WithCohortFile(filepath.Join(t.TempDir(), "absent.json")),
		)

		Convey("Then the service still starts and degrades to no-cohort", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.Performance(context.Background(), "p1", model.RoleBatter, nil, 0)
			So(errors.Is(err, performance.ErrNoCohort), ShouldBeTrue)
		})
	})
}

func TestServiceOperations(t *testing.T) {
	Convey("Given a started service with a loaded cohort snapshot", t, func() {
		catalog, rosters, events, cohortFile := testFixtures(t)
		svc := app.New(
			app.WithProviders(catalog, rosters, events),
			app.WithCohortFile(cohortFile),
			app.WithWorkerCount(2),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		Reset(svc.Stop)

		ctx := context.Background()

		Convey("When scoring fit for a known prospect and team", func() {
			score, err := svc.ScoreFit(ctx, "p1", "t1", nil)

			Convey("Then a complete explainable score comes back", func() {
				So(err, ShouldBeNil)
				So(score.ProspectID, ShouldEqual, "p1")
				So(score.TeamID, ShouldEqual, "t1")
				So(score.Rating, ShouldNotBeEmpty)
				So(score.Overall, ShouldBeBetweenOrEqual, 0, 10)
				// Catcher is unfilled on this roster.
				So(score.Components.PositionNeed, ShouldEqual, 10)
			})
		})

		Convey("When the prospect does not exist", func() {
			_, err := svc.ScoreFit(ctx, "ghost", "t1", nil)

			Convey("Then the catalog error propagates", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When computing performance for a well-sampled batter", func() {
			snap, err := svc.Performance(ctx, "p1", model.RoleBatter, nil, 0)

			Convey("Then the configured default window applies", func() {
				So(err, ShouldBeNil)
				So(snap.WindowDays, ShouldEqual, 90)
				So(snap.SampleSize, ShouldEqual, 60)
				So(snap.Modifier, ShouldBeBetween, -15, 15)
			})
		})

		Convey("When computing performance for a thin sample", func() {
			_, err := svc.Performance(ctx, "p2", model.RoleBatter, nil, 0)

			Convey("Then the insufficient-sample error surfaces", func() {
				So(errors.Is(err, performance.ErrInsufficientSample), ShouldBeTrue)
			})
		})

		Convey("When ranking all prospects", func() {
			entries, err := svc.RankProspects(ctx, ranking.Filter{})

			Convey("Then both prospects rank, best first", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Composite, ShouldBeGreaterThanOrEqualTo, entries[1].Composite)
			})

			Convey("Then the run is reflected in stats", func() {
				stats := svc.GetStats()
				So(stats["last_ranking_size"], ShouldEqual, 2)
				So(stats["ranked_total"], ShouldEqual, int64(2))
			})
		})

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then the snapshot and runtime state are reported", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["worker_count"], ShouldEqual, 2)
				So(stats["quality_provider"], ShouldBeFalse)
				So(stats, ShouldContainKey, "cohort_snapshot_built_at")
			})
		})
	})
}

func TestServiceQualitySignal(t *testing.T) {
	Convey("Given a service with a quality provider", t, func() {
		catalog, rosters, events, cohortFile := testFixtures(t)

		Convey("When the provider returns a high-confidence estimate", func() {
			q := &fakeQuality{estimate: fit.QualityEstimate{Probability: 0.9, Confidence: fit.ConfidenceHigh}, ok: true}
			svc := app.New(
				app.WithProviders(catalog, rosters, events),
				app.WithQualityProvider(q),
				app.WithCohortFile(cohortFile),
			)
			So(svc.Start(context.Background()), ShouldBeNil)
			Reset(svc.Stop)

			score, err := svc.ScoreFit(context.Background(), "p1", "t1", nil)

			Convey("Then the estimate drives the quality component", func() {
				So(err, ShouldBeNil)
				So(q.calls, ShouldEqual, 1)
				So(score.Components.Quality, ShouldAlmostEqual, 9.0, 1e-9)
			})
		})

		Convey("When the provider fails", func() {
			q := &fakeQuality{err: errors.New("upstream down")}
			svc := app.New(
				app.WithProviders(catalog, rosters, events),
				app.WithQualityProvider(q),
				app.WithCohortFile(cohortFile),
			)
			So(svc.Start(context.Background()), ShouldBeNil)
			Reset(svc.Stop)

			score, err := svc.ScoreFit(context.Background(), "p1", "t1", nil)

			Convey("Then scoring falls back to the scouting grade", func() {
				So(err, ShouldBeNil)
				// (55 - 20) / 60 * 10 from the 20-80 grade scale.
				So(score.Components.Quality, ShouldAlmostEqual, 35.0/6.0, 1e-9)
			})
		})

		Convey("When no estimate exists for the prospect", func() {
			q := &fakeQuality{ok: false}
			svc := app.New(
				app.WithProviders(catalog, rosters, events),
				app.WithQualityProvider(q),
				app.WithCohortFile(cohortFile),
			)
			So(svc.Start(context.Background()), ShouldBeNil)
			Reset(svc.Stop)

			score, err := svc.ScoreFit(context.Background(), "p1", "t1", nil)

			Convey("Then the grade fallback applies without error", func() {
				So(err, ShouldBeNil)
				So(score.Components.Quality, ShouldAlmostEqual, 35.0/6.0, 1e-9)
			})
		})
	})
}

func TestServiceStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		catalog, rosters, events, cohortFile := testFixtures(t)
		svc := app.New(
			app.WithProviders(catalog, rosters, events),
			app.WithCohortFile(cohortFile),
		)
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then the second stop is a no-op", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}
