package server

import (
	"errors"
	"net/http"
	"strconv"

	"poseparty/internal/analytics"
	"poseparty/internal/logging"

	"github.com/google/uuid"
)

const maxLeaderboardLimit = 100

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Leaderboard requires a database connection", http.StatusServiceUnavailable)
		return
	}

	category := r.URL.Query().Get("cat")
	if category == "" {
		category = "score"
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	q := analytics.NewQueries(s.DB)
	entries, err := q.GetLeaderboard(r.Context(), category, limit)
	if err != nil {
		l := logging.For("analytics")
		l.Warn().Err(err).Str("category", category).Msg("leaderboard error")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Analytics requires a database connection", http.StatusServiceUnavailable)
		return
	}

	q := analytics.NewQueries(s.DB)
	stats, err := q.GetPlayerLifetimeStats(r.Context(), r.PathValue("name"))
	if errors.Is(err, analytics.ErrNotFound) {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}
	if err != nil {
		l := logging.For("analytics")
		l.Error().Err(err).Msg("player stats error")
		http.Error(w, "Error loading player stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "Analytics requires a database connection", http.StatusServiceUnavailable)
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	q := analytics.NewQueries(s.DB)
	recap, err := q.GetGameRecap(r.Context(), id)
	if errors.Is(err, analytics.ErrNotFound) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		l := logging.For("analytics")
		l.Error().Err(err).Msg("game recap error")
		http.Error(w, "Error loading game recap", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recap)
}
