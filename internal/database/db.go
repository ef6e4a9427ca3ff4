// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the shared pool, set by ConnectDB.
var DB *pgxpool.Pool

// ConnectDB opens the pool for connStr (a DATABASE_URL) and pings it.
func ConnectDB(ctx context.Context, connStr string) error {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	DB = pool
	return nil
}

// Close releases the pool, if one was opened.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	winner_id   UUID,
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_results (
	game_id     UUID NOT NULL REFERENCES games(id),
	player_id   UUID NOT NULL,
	cards_left  INT  NOT NULL,
	did_win     BOOLEAN NOT NULL,
	PRIMARY KEY (game_id, player_id)
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id        UUID   NOT NULL REFERENCES games(id),
	action_index   INT    NOT NULL,
	actor_user_id  UUID   NOT NULL,
	action_type    TEXT   NOT NULL,
	action_payload JSONB  NOT NULL,
	action_time    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);
`

// EnsureSchema creates the tables used by the server and the historian if they are missing.
func EnsureSchema(ctx context.Context) error {
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
