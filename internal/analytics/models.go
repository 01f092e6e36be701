package analytics

import "time"

// Standing is one player's result within a single game.
type Standing struct {
	Name        string    `json:"name"`
	RoundScores []float64 `json:"roundScores"`
	Total       float64   `json:"total"`
	Rank        int       `json:"rank"`
}

type PlayerLifetimeStats struct {
	Name        string   `json:"name"`
	GamesPlayed int      `json:"gamesPlayed"`
	TotalScore  float64  `json:"totalScore"`
	BestGame    float64  `json:"bestGame"`
	WinCount    int      `json:"winCount"`
	WinStreak   int      `json:"winStreak"`
	Badges      []Badge  `json:"badges"`
	RecentGames []string `json:"recentGames"`
}

type LeaderboardEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Rank  int     `json:"rank"`
}

type PlayerRecap struct {
	Standing
	Badges []Badge `json:"badges"`
}

type GameRecap struct {
	GameID       string        `json:"gameId"`
	RoomCode     string        `json:"room"`
	TotalRounds  int           `json:"totalRounds"`
	RoundsPlayed int           `json:"roundsPlayed"`
	Completed    bool          `json:"completed"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	EndedAt      time.Time     `json:"endedAt"`
	Players      []PlayerRecap `json:"players"`
}
