package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/model"
)

// Catalog reads prospect records.
type Catalog struct {
	db *sql.DB
}

// NewCatalog creates a catalog provider over an open connection pool.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

const prospectColumns = `id, name, position, organization, level, birth_date,
	eta_year, future_value, mlb_at_bats, mlb_innings`

// GetProspect returns one prospect by id, or ErrNotFound.
func (c *Catalog) GetProspect(ctx context.Context, id string) (model.Prospect, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE id = $1`, id)
	p, err := scanProspect(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prospect{}, fmt.Errorf("prospect %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Prospect{}, fmt.Errorf("get prospect %s: %w", id, err)
	}
	return p, nil
}

// ListProspects returns every prospect in the catalog, in stable id order.
func (c *Catalog) ListProspects(ctx context.Context) ([]model.Prospect, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		prospects = append(prospects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	return prospects, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProspect(row scanner) (model.Prospect, error) {
	var (
		p        model.Prospect
		position string
		level    string
		grade    sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.Name, &position, &p.Organization, &level,
		&p.BirthDate, &p.ETAYear, &grade, &p.MLBAtBats, &p.MLBInnings); err != nil {
		return model.Prospect{}, err
	}
	p.Position = model.Position(position)
	if l, ok := model.ParseLevel(level); ok {
		p.Level = l
	}
	if grade.Valid {
		p.FutureValue = grade.Float64
		p.HasGrade = true
	}
	return p, nil
}
