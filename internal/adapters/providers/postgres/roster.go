package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
)

// Rosters reads team roster snapshots.
type Rosters struct {
	db *sql.DB
}

// NewRosters creates a roster snapshot provider.
func NewRosters(db *sql.DB) *Rosters {
	return &Rosters{db: db}
}

var tierByName = map[string]model.PlayerTier{
	"star":        model.TierStar,
	"starter":     model.TierStarter,
	"bench":       model.TierBench,
	"replacement": model.TierReplacement,
}

// GetRoster returns a team's current roster, or ErrNotFound for an unknown
// team.
func (r *Rosters) GetRoster(ctx context.Context, teamID string) ([]model.RosterPlayer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, name, position, tier, age, control_years
		FROM roster_players
		WHERE team_id = $1
		ORDER BY player_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("query roster %s: %w", teamID, err)
	}
	defer rows.Close()

	var roster []model.RosterPlayer
	for rows.Next() {
		var (
			p        model.RosterPlayer
			position string
			tier     string
		)
		if err := rows.Scan(&p.PlayerID, &p.Name, &position, &tier, &p.Age, &p.ControlYears); err != nil {
			return nil, fmt.Errorf("scan roster player: %w", err)
		}
		p.Position = model.Position(position)
		p.Tier = tierByName[tier]
		roster = append(roster, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query roster %s: %w", teamID, err)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	return roster, nil
}
