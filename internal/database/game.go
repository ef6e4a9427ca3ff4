// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/cache"
)

// RecordGameResult persists the final outcome of a game: the game row is marked completed
// and every player's remaining card count is stored.
func RecordGameResult(ctx context.Context, gameID, winnerID uuid.UUID, finalCounts map[uuid.UUID]int) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, winner_id, end_time)
			VALUES ($1, 'completed', $2, NOW())
			ON CONFLICT (id) DO UPDATE SET status = 'completed', winner_id = $2, end_time = NOW()
		`
		if _, e := tx.Exec(ctx, upsertGame, gameID, winnerID); e != nil {
			return e
		}

		for playerID, left := range finalCounts {
			q := `
				INSERT INTO game_results (game_id, player_id, cards_left, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET cards_left = $3, did_win = $4
			`
			if _, e := tx.Exec(ctx, q, gameID, playerID, left, playerID == winnerID); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record game result: %w", err)
	}
	return nil
}

// InsertActions stores a batch of historian records in one transaction. Games are created
// on first sight; a game_end action completes the game.
func InsertActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertGameActionTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert actions: %w", err)
	}
	return nil
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_user_id, action_type, action_payload, action_time
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, rec.ActorUserID, rec.ActionType, jsonPayload,
		time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	if rec.ActionType == cache.ActionGameEnd {
		finalizeQ := `
			UPDATE games
			SET status = 'completed', end_time = COALESCE(end_time, NOW())
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID); err != nil {
			return err
		}
	}
	return nil
}

// MarkGameAbandoned marks a game as 'abandoned' if it is still in progress.
func MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) error {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := DB.Exec(ctx, q, gameID); err != nil {
		return fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return nil
}

// ActionStore exposes the historian writes of this package as a value.
type ActionStore struct{}

func (ActionStore) InsertActions(ctx context.Context, records []cache.GameActionRecord) error {
	return InsertActions(ctx, records)
}

func (ActionStore) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) error {
	return MarkGameAbandoned(ctx, gameID)
}
