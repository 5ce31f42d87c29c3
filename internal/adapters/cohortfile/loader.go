// Package cohortfile loads cohort distributions from the JSON export the
// out-of-scope ETL produces, and swaps them into the cohort store when the
// file changes. This is the engine-side half of the "refreshed
// periodically by an external process" contract: refreshes land as whole
// snapshots, never partial updates.
package cohortfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/cohort"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/logger"
)

// row is one player's value for one cohort in the export file.
type row struct {
	Level    string  `json:"level"`
	Season   int     `json:"season"`
	Metric   string  `json:"metric"`
	Role     string  `json:"role"`
	PlayerID string  `json:"player_id"`
	Value    float64 `json:"value"`
	Sample   int     `json:"sample"`
}

// Loader watches one export file and keeps the store's snapshot current.
type Loader struct {
	path  string
	store *cohort.Store

	batterMinSample  int
	pitcherMinSample int

	log logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithMinSamples sets the role-specific per-player sample floors. Players
// below the floor are excluded from cohort membership entirely.
func WithMinSamples(batter, pitcher int) Option {
	return func(l *Loader) {
		if batter > 0 {
			l.batterMinSample = batter
		}
		if pitcher > 0 {
			l.pitcherMinSample = pitcher
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// Default per-player sample floors, matching the aggregator's role minimums.
const (
	defaultBatterMinSample  = 50
	defaultPitcherMinSample = 100
)

// New creates a Loader for path feeding store.
func New(path string, store *cohort.Store, opts ...Option) *Loader {
	l := &Loader{
		path:             path,
		store:            store,
		batterMinSample:  defaultBatterMinSample,
		pitcherMinSample: defaultPitcherMinSample,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Get().Named("cohortfile")
	}
	return l
}

// Load reads the export file once and swaps the resulting snapshot in.
func (l *Loader) Load(ctx context.Context) error {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read cohort file: %w", err)
	}

	var rows []row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("parse cohort file %s: %w", l.path, err)
	}

	b := cohort.NewBuilder()
	kept := 0
	for _, r := range rows {
		role, ok := model.ParseRole(r.Role)
		if !ok {
			continue
		}
		min := l.batterMinSample
		if role == model.RolePitcher {
			min = l.pitcherMinSample
		}
		if r.Sample < min {
			continue
		}
		level, ok := model.ParseLevel(r.Level)
		if !ok {
			continue
		}
		b.Add(level, r.Season, cohort.Metric(r.Metric), r.Value)
		kept++
	}

	snap := b.Build(time.Now())
	l.store.Swap(snap)

	l.log.Info(ctx, "cohort snapshot loaded",
		logger.String("path", l.path),
		logger.Int("rows", len(rows)),
		logger.Int("kept", kept),
		logger.Int("cohorts", snap.Size()),
	)
	return nil
}

// Watch reloads the snapshot whenever the export file is rewritten. It
// watches the parent directory so atomic rename-into-place still triggers.
// Watch blocks until ctx is canceled.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(l.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := l.Load(ctx); err != nil {
				l.log.Error(ctx, "cohort reload failed", logger.Error(err))
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Warn(ctx, "cohort watcher error", logger.Error(werr))
		}
	}
}
