package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

// Connect opens the pool and pings it within timeout.
func Connect(dsn string, timeout time.Duration, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Match recording is the only writer; a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close database handle after ping error", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id               BIGSERIAL PRIMARY KEY,
	tournament_id    TEXT,
	left_id          INTEGER REFERENCES users(id) ON DELETE SET NULL,
	left_guest_name  TEXT,
	right_id         INTEGER REFERENCES users(id) ON DELETE SET NULL,
	right_guest_name TEXT,
	winner           TEXT NOT NULL CHECK (winner IN ('left', 'right', 'draw')),
	score_left       INTEGER NOT NULL,
	score_right      INTEGER NOT NULL,
	duration_ms      BIGINT NOT NULL,
	forfeit          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS matches_left_id_idx ON matches (left_id);
CREATE INDEX IF NOT EXISTS matches_right_id_idx ON matches (right_id);
CREATE INDEX IF NOT EXISTS matches_tournament_id_idx ON matches (tournament_id);
`

// EnsureSchema creates the tables owned by this server. Users and friendships
// belong to the profile service and are only read.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure matches schema: %w", err)
	}
	return nil
}
