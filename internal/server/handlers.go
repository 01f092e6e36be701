package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"poseparty/internal/db"
	"poseparty/internal/events"
	"poseparty/internal/game"
	"poseparty/internal/logging"
	"poseparty/internal/metrics"
	"poseparty/internal/rooms"
	"poseparty/internal/wshub"

	"github.com/coder/websocket"
)

type Server struct {
	Rooms         *rooms.Store
	Hub           *wshub.Hub
	Dispatcher    *Dispatcher
	Bus           *events.Bus
	Metrics       *metrics.Metrics
	DB            *db.DB // nil if no database configured
	ClientOptions wshub.Options
	Origins       []string
}

// handleWS upgrades the request and serves the connection until it closes.
// Whatever ends the connection, the player leaves its game exactly once.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.Origins})
	if err != nil {
		l := logging.For("http")
		l.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := wshub.NewClient(r.Context(), conn, s.ClientOptions)
	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ID())

	l := logging.For("http")
	l.Info().Str("conn", client.ID()).Str("remote", r.RemoteAddr).Msg("client connected")

	client.Serve(func(data []byte) error {
		return s.Dispatcher.Dispatch(client, data)
	}, func() {
		s.Dispatcher.Leave(client.ID())
	})

	l.Info().Str("conn", client.ID()).Msg("client disconnected")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	list := s.Rooms.List()
	snapshots := make([]game.Snapshot, 0, len(list))
	for _, room := range list {
		snapshots = append(snapshots, room.Game.Snapshot())
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := logging.For("http")
		l.Warn().Err(err).Msg("writing response")
	}
}
