package game

import (
	"errors"
	"sync"
	"time"

	"poseparty/internal/events"
	"poseparty/internal/logging"
	"poseparty/internal/players"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrDuplicateSubmission = errors.New("score already submitted for this round")
	ErrRoundNotActive      = errors.New("no round in progress")
	ErrAlreadyJoined       = errors.New("connection already joined")
	ErrGameClosed          = errors.New("game closed")
)

type Phase string

const (
	PhaseAwaitingPlayers = Phase("awaiting_players")
	PhaseAwaitingReady   = Phase("awaiting_ready")
	PhaseRoundActive     = Phase("round_active")
	PhaseEnded           = Phase("ended")
)

// Conn is the outbound half of a player's connection. Send must not block;
// it reports false when the message could not be queued.
type Conn interface {
	ID() string
	Send(data []byte) bool
}

// Selector chooses the image and advisory duration of each round.
type Selector interface {
	Pick(used map[string]struct{}) (string, error)
	Duration() int
}

// Game is one room's state machine. All methods are safe for concurrent
// use; each transition and the broadcast it causes happen under one lock,
// so members never observe a half-announced round.
type Game struct {
	mu           sync.Mutex
	room         string
	id           string
	totalRounds  int
	currentRound int
	roundActive  bool
	ended        bool
	closed       bool
	startedAt    time.Time
	usedImages   map[string]struct{}
	players      *players.Store
	conns        map[string]Conn
	selector     Selector
	bus          *events.Bus
	log          zerolog.Logger
}

func New(room string, totalRounds int, sel Selector, bus *events.Bus) *Game {
	return &Game{
		room:        room,
		id:          uuid.NewString(),
		totalRounds: totalRounds,
		usedImages:  make(map[string]struct{}),
		players:     players.NewStore(),
		conns:       make(map[string]Conn),
		selector:    sel,
		bus:         bus,
		log:         logging.For("game").With().Str("room", room).Logger(),
	}
}

func (g *Game) Room() string {
	return g.room
}

// ID identifies the current playthrough; Restart assigns a new one.
func (g *Game) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

// Closed reports whether the game lost its last player. A closed game
// accepts no new players and is about to leave the registry.
func (g *Game) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players.Count()
}

// AddPlayer joins conn under name. Players arriving mid-game get a zero
// for every round already played. Nothing is broadcast.
func (g *Game) AddPlayer(conn Conn, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGameClosed
	}
	if g.players.Get(conn.ID()) != nil {
		return ErrAlreadyJoined
	}

	g.players.Add(conn.ID(), name, g.currentRound)
	g.conns[conn.ID()] = conn

	g.log.Info().Str("player", name).Int("round", g.currentRound).Msg("player joined")
	g.publish(events.Lifecycle{Kind: events.KindPlayerJoined, Player: name})
	return nil
}

// RemovePlayer drops the player behind connID. empty reports that the game
// has no players left; it has then been ended and closed, and the caller
// must remove it from the registry.
func (g *Game) RemovePlayer(connID string) (removed, empty bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.players.Get(connID)
	if p == nil {
		return false, g.players.Count() == 0
	}
	g.players.Remove(connID)
	delete(g.conns, connID)

	g.log.Info().Str("player", p.Name).Msg("player left")
	g.publish(events.Lifecycle{Kind: events.KindPlayerLeft, Player: p.Name})

	if g.players.Count() == 0 {
		g.end()
		g.closed = true
		g.log.Info().Msg("destroying game")
		return true, true
	}

	// The barriers only count players still present.
	if g.roundActive {
		g.completeRoundIfDone()
	} else if !g.ended && g.players.AllReady() {
		g.startRound()
	}
	return true, false
}

// Ready marks the player ready. The round opens once every current player
// is ready; the check and the transition are a single critical section.
func (g *Game) Ready(connID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.players.SetReady(connID, true)
	if p == nil {
		return ErrUnknownPlayer
	}
	g.log.Debug().Str("player", p.Name).Msg("player ready")

	if !g.roundActive && !g.ended && g.players.AllReady() {
		g.startRound()
	}
	return nil
}

// SubmitScore records the player's score for the active round and advances
// the game when it completes the round.
func (g *Game) SubmitScore(connID string, score float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.players.Get(connID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if !g.roundActive {
		return ErrRoundNotActive
	}
	if p.HasSubmitted(g.currentRound) {
		return ErrDuplicateSubmission
	}

	p.RoundScores = append(p.RoundScores, score)
	g.log.Debug().Str("player", p.Name).Int("round", g.currentRound).Float64("score", score).Msg("score submitted")

	g.completeRoundIfDone()
	return nil
}

// Restart clears scores, readiness, round and image history for all
// current players. It is allowed in any phase.
func (g *Game) Restart() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGameClosed
	}

	g.players.ResetAll()
	g.currentRound = 0
	g.roundActive = false
	g.ended = false
	g.startedAt = time.Time{}
	g.usedImages = make(map[string]struct{})
	g.id = uuid.NewString()

	g.log.Info().Msg("game restarted")
	g.broadcast(events.NewRestartGame())
	g.publish(events.Lifecycle{Kind: events.KindGameRestarted})
	return nil
}

func (g *Game) completeRoundIfDone() {
	if !g.roundActive || !g.players.AllSubmitted(g.currentRound) {
		return
	}
	g.currentRound++
	g.roundActive = false
	if g.currentRound == g.totalRounds {
		g.end()
		return
	}
	g.startRound()
}

func (g *Game) startRound() {
	image, err := g.selector.Pick(g.usedImages)
	if err != nil {
		g.log.Error().Err(err).Int("round", g.currentRound).Msg("cannot select image, ending game")
		g.end()
		return
	}
	duration := g.selector.Duration()
	g.usedImages[image] = struct{}{}
	g.roundActive = true
	if g.currentRound == 0 {
		g.startedAt = time.Now()
	}

	g.log.Info().Int("round", g.currentRound).Str("image", image).Int("duration", duration).Msg("starting round")
	g.broadcast(events.NewStartRound(duration, image, g.currentRound, g.totalRounds, g.players.Scores()))
	g.players.ResetReady()

	g.publish(events.Lifecycle{
		Kind:     events.KindRoundStarted,
		Image:    image,
		Duration: duration,
	})
}

func (g *Game) end() {
	if g.ended {
		return
	}
	g.ended = true
	g.roundActive = false

	scores := g.players.Scores()
	g.log.Info().Int("round", g.currentRound).Msg("game ending")
	g.broadcast(events.NewEndGame(g.totalRounds, scores))

	g.publish(events.Lifecycle{
		Kind:      events.KindGameEnded,
		Scores:    scores,
		Completed: g.currentRound == g.totalRounds,
		StartedAt: g.startedAt,
	})
}

func (g *Game) broadcast(msg any) {
	data, err := events.Encode(msg)
	if err != nil {
		g.log.Error().Err(err).Msg("encoding outbound event")
		return
	}
	for _, p := range g.players.GetList() {
		if !g.conns[p.ID].Send(data) {
			g.log.Warn().Str("player", p.Name).Msg("outbound queue full, message dropped")
		}
	}
}

func (g *Game) publish(ev events.Lifecycle) {
	ev.Room = g.room
	ev.GameID = g.id
	ev.Round = g.currentRound
	ev.TotalRounds = g.totalRounds
	ev.At = time.Now()
	if !g.bus.Publish(ev) && g.bus != nil {
		g.log.Warn().Str("kind", string(ev.Kind)).Msg("lifecycle event dropped")
	}
}
