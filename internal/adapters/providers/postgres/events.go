package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
)

// Events reads pitch-level event windows.
type Events struct {
	db *sql.DB
}

// NewEvents creates an event store provider.
func NewEvents(db *sql.DB) *Events {
	return &Events{db: db}
}

// GetEvents returns a player's events for one role since the given date,
// oldest first.
func (e *Events) GetEvents(ctx context.Context, playerID string, role model.Role, since time.Time) ([]model.EventRecord, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT player_id, level, season, game_date,
		       in_zone, swung, contact, chase,
		       pitch_velocity, is_fastball, exit_velocity, hard_hit
		FROM events
		WHERE player_id = $1 AND role = $2 AND game_date >= $3
		ORDER BY game_date`, playerID, role.String(), since)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", playerID, err)
	}
	defer rows.Close()

	var events []model.EventRecord
	for rows.Next() {
		var (
			rec      model.EventRecord
			level    string
			exitVelo sql.NullFloat64
		)
		if err := rows.Scan(&rec.PlayerID, &level, &rec.Season, &rec.GameDate,
			&rec.InZone, &rec.Swung, &rec.Contact, &rec.Chase,
			&rec.PitchVelocity, &rec.IsFastball, &exitVelo, &rec.HardHit); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Role = role
		if l, ok := model.ParseLevel(level); ok {
			rec.Level = l
		}
		if exitVelo.Valid {
			rec.ExitVelocity = exitVelo.Float64
		}
		events = append(events, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query events for %s: %w", playerID, err)
	}
	return events, nil
}
