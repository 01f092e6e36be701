package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"poseparty/internal/db"
)

var ErrNotFound = errors.New("not found")

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

func (q *Queries) GetPlayerLifetimeStats(ctx context.Context, name string) (*PlayerLifetimeStats, error) {
	stats := &PlayerLifetimeStats{Name: name}

	err := q.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as games_played,
			COALESCE(SUM(total), 0) as total_score,
			COALESCE(MAX(total), 0) as best_game,
			COUNT(*) FILTER (WHERE rank = 1) as win_count
		FROM game_players
		WHERE name = $1
	`, name).Scan(&stats.GamesPlayed, &stats.TotalScore, &stats.BestGame, &stats.WinCount)
	if err != nil {
		return nil, fmt.Errorf("getting lifetime stats: %w", err)
	}
	if stats.GamesPlayed == 0 {
		return nil, ErrNotFound
	}

	// Most recent games first; the leading run of wins is the streak.
	rows, err := q.DB.QueryContext(ctx, `
		SELECT g.id, gp.rank
		FROM game_players gp
		JOIN games g ON g.id = gp.game_id
		WHERE gp.name = $1
		ORDER BY g.ended_at DESC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("getting win streak: %w", err)
	}
	defer rows.Close()

	streaking := true
	for rows.Next() {
		var gameID string
		var rank int
		if err := rows.Scan(&gameID, &rank); err != nil {
			return nil, err
		}
		if len(stats.RecentGames) < 10 {
			stats.RecentGames = append(stats.RecentGames, gameID)
		}
		if streaking && rank == 1 {
			stats.WinStreak++
		} else {
			streaking = false
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.Badges = EvaluateLifetimeBadges(*stats)
	return stats, nil
}

func (q *Queries) GetLeaderboard(ctx context.Context, category string, limit int) ([]LeaderboardEntry, error) {
	var query string
	switch category {
	case "score":
		query = `
			SELECT name, COALESCE(SUM(total), 0) as value
			FROM game_players
			GROUP BY name
			ORDER BY value DESC, name
			LIMIT $1`
	case "wins":
		query = `
			SELECT name, COUNT(*) FILTER (WHERE rank = 1) as value
			FROM game_players
			GROUP BY name
			ORDER BY value DESC, name
			LIMIT $1`
	case "best":
		query = `
			SELECT name, COALESCE(MAX(total), 0) as value
			FROM game_players
			GROUP BY name
			ORDER BY value DESC, name
			LIMIT $1`
	case "games":
		query = `
			SELECT name, COUNT(*) as value
			FROM game_players
			GROUP BY name
			ORDER BY value DESC, name
			LIMIT $1`
	default:
		return nil, fmt.Errorf("unknown leaderboard category: %s", category)
	}

	rows, err := q.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (q *Queries) GetGameRecap(ctx context.Context, gameID string) (*GameRecap, error) {
	rec, err := q.DB.GetGame(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Recap(rec), nil
}

// Recap attaches per-game badges to an archived game.
func Recap(rec *db.GameRecord) *GameRecap {
	recap := &GameRecap{
		GameID:       rec.ID,
		RoomCode:     rec.RoomCode,
		TotalRounds:  rec.TotalRounds,
		RoundsPlayed: rec.RoundsPlayed,
		Completed:    rec.Completed,
		StartedAt:    rec.StartedAt,
		EndedAt:      rec.EndedAt,
		Players:      make([]PlayerRecap, 0, len(rec.Players)),
	}

	field := make([]Standing, 0, len(rec.Players))
	for _, p := range rec.Players {
		field = append(field, Standing{Name: p.Name, RoundScores: p.RoundScores, Total: p.Total, Rank: p.Rank})
	}
	for _, s := range field {
		recap.Players = append(recap.Players, PlayerRecap{
			Standing: s,
			Badges:   EvaluateGameBadges(s, field, rec.Completed),
		})
	}
	return recap
}
