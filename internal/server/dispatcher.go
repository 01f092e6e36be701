package server

import (
	"errors"
	"fmt"
	"strings"

	"poseparty/internal/events"
	"poseparty/internal/game"
	"poseparty/internal/logging"
	"poseparty/internal/metrics"
	"poseparty/internal/rooms"
	"poseparty/internal/wshub"

	"github.com/rs/zerolog"
)

// leaveFrame is the raw text the client sends when the player quits.
const leaveFrame = "close"

// Dispatcher routes decoded client actions to the room's game. It is
// called from each connection's read loop, so events from one connection
// are handled in order.
type Dispatcher struct {
	Rooms   *rooms.Store
	Metrics *metrics.Metrics // nil in tests
	log     zerolog.Logger
}

func NewDispatcher(store *rooms.Store, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		Rooms:   store,
		Metrics: m,
		log:     logging.For("dispatch"),
	}
}

// Dispatch handles one inbound frame. Bad events are logged and ignored;
// the only error returned is wshub.ErrClientClosed, after an explicit leave.
func (d *Dispatcher) Dispatch(conn game.Conn, raw []byte) error {
	if strings.TrimSpace(string(raw)) == leaveFrame {
		d.log.Debug().Str("conn", conn.ID()).Msg("client asked to leave")
		d.Leave(conn.ID())
		return wshub.ErrClientClosed
	}

	in, err := events.Decode(raw)
	if err != nil {
		d.reject(conn, "", err)
		return nil
	}
	roomID, err := rooms.ValidateID(string(in.Room))
	if err != nil {
		d.reject(conn, string(in.Room), fmt.Errorf("%w: %v", events.ErrMalformedEvent, err))
		return nil
	}

	switch in.Action {
	case events.ActionJoinGame:
		err = d.join(conn, roomID, strings.TrimSpace(string(in.Name)))
	case events.ActionSetReady:
		err = d.withGame(roomID, func(g *game.Game) error {
			return g.Ready(conn.ID())
		})
	case events.ActionFinishRound:
		err = d.withGame(roomID, func(g *game.Game) error {
			return g.SubmitScore(conn.ID(), float64(*in.Score))
		})
	case events.ActionRestartGame:
		err = d.withGame(roomID, func(g *game.Game) error {
			return g.Restart()
		})
	}
	if err != nil {
		d.reject(conn, roomID, err)
	}
	return nil
}

// join adds conn to roomID, leaving any other room first. A game that
// emptied between lookup and join is replaced once.
func (d *Dispatcher) join(conn game.Conn, roomID, name string) error {
	if prev, ok := d.Rooms.RoomOf(conn.ID()); ok && prev != roomID {
		d.log.Info().Str("conn", conn.ID()).Str("from", prev).Str("to", roomID).Msg("switching rooms")
		d.Leave(conn.ID())
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		room, _ := d.Rooms.GetOrCreate(roomID)
		err = room.Game.AddPlayer(conn, name)
		if errors.Is(err, game.ErrGameClosed) {
			continue
		}
		if err != nil {
			return err
		}
		d.Rooms.Bind(conn.ID(), roomID)
		return nil
	}
	return err
}

func (d *Dispatcher) withGame(roomID string, fn func(g *game.Game) error) error {
	room := d.Rooms.Get(roomID)
	if room == nil {
		return fmt.Errorf("%w: %q", rooms.ErrUnknownRoom, roomID)
	}
	return fn(room.Game)
}

// Leave removes the connection's player from its game and drops the game
// once it is empty. Only the first call for a connection does anything.
func (d *Dispatcher) Leave(connID string) {
	roomID, ok := d.Rooms.Unbind(connID)
	if !ok {
		return
	}
	room := d.Rooms.Get(roomID)
	if room == nil {
		return
	}
	removed, empty := room.Game.RemovePlayer(connID)
	if removed && empty {
		d.Rooms.Remove(roomID, room.Game)
	}
}

func (d *Dispatcher) reject(conn game.Conn, roomID string, err error) {
	reason := rejectReason(err)
	d.log.Warn().Err(err).Str("conn", conn.ID()).Str("room", roomID).Str("reason", reason).Msg("event ignored")
	if d.Metrics != nil {
		d.Metrics.Reject(reason)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, events.ErrMalformedEvent):
		return "malformed_event"
	case errors.Is(err, events.ErrUnrecognizedAction):
		return "unrecognized_action"
	case errors.Is(err, rooms.ErrUnknownRoom):
		return "unknown_room"
	case errors.Is(err, game.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, game.ErrDuplicateSubmission):
		return "duplicate_submission"
	case errors.Is(err, game.ErrRoundNotActive):
		return "round_not_active"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrGameClosed):
		return "game_closed"
	default:
		return "other"
	}
}
