// Package postgres implements the engine's collaborator interfaces
// (prospect catalog, roster snapshots, event store) over a Postgres
// database owned by the surrounding platform.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
)

// Sentinel kinds for provider lookups.
var (
	ErrNotFound = errors.New("not found")
)

const (
	defaultMaxOpenConns = 10
	defaultConnLifetime = 5 * time.Minute
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxLifetime(defaultConnLifetime)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
