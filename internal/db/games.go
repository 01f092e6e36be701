package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type GameRecord struct {
	ID           string
	RoomCode     string
	TotalRounds  int
	RoundsPlayed int
	Completed    bool
	StartedAt    *time.Time
	EndedAt      time.Time
	Players      []PlayerResult
}

// PlayerResult is one player's line in a finished game.
type PlayerResult struct {
	Name        string
	RoundScores []float64
	Total       float64
	Rank        int
}

// RecordGame stores a finished game and its players in one transaction.
// Recording the same game twice replaces the earlier rows.
func (d *DB) RecordGame(ctx context.Context, rec GameRecord) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, room_code, total_rounds, rounds_played, completed, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			rounds_played = $4, completed = $5, started_at = $6, ended_at = $7
	`, rec.ID, rec.RoomCode, rec.TotalRounds, rec.RoundsPlayed, rec.Completed, rec.StartedAt, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("recording game: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM game_players WHERE game_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("clearing game players: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO game_players (game_id, name, round_scores, total, rank)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range rec.Players {
		scores := p.RoundScores
		if scores == nil {
			scores = []float64{}
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, p.Name, pq.Array(scores), p.Total, p.Rank); err != nil {
			return fmt.Errorf("recording game player %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing game: %w", err)
	}
	return nil
}

// GetGame loads a finished game with its players ordered by rank.
func (d *DB) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	rec := GameRecord{ID: id}
	err := d.conn.QueryRowContext(ctx, `
		SELECT room_code, total_rounds, rounds_played, completed, started_at, ended_at
		FROM games WHERE id = $1
	`, id).Scan(&rec.RoomCode, &rec.TotalRounds, &rec.RoundsPlayed, &rec.Completed, &rec.StartedAt, &rec.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	players, err := d.GamePlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Players = players
	return &rec, nil
}

func (d *DB) GamePlayers(ctx context.Context, gameID string) ([]PlayerResult, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT name, round_scores, total, rank
		FROM game_players
		WHERE game_id = $1
		ORDER BY rank, name
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing game players: %w", err)
	}
	defer rows.Close()

	var players []PlayerResult
	for rows.Next() {
		var p PlayerResult
		var scores pq.Float64Array
		if err := rows.Scan(&p.Name, &scores, &p.Total, &p.Rank); err != nil {
			return nil, fmt.Errorf("scanning game player: %w", err)
		}
		p.RoundScores = []float64(scores)
		players = append(players, p)
	}
	return players, rows.Err()
}
