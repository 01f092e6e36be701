package rooms

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"poseparty/internal/game"
	"poseparty/internal/logging"
)

var ErrUnknownRoom = errors.New("unknown room")

// emptyGrace is how long an empty room may exist before the sweeper drops
// it. Rooms normally leave the registry the moment their last player does.
const emptyGrace = time.Minute

// Store is the room registry and the connection index. Its lock is held
// only for map operations; callers mutate games outside of it.
type Store struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	conns   map[string]string // connection id -> room id
	newGame func(id string) *game.Game
}

func NewStore(newGame func(id string) *game.Game) *Store {
	return &Store{
		rooms:   make(map[string]*Room),
		conns:   make(map[string]string),
		newGame: newGame,
	}
}

// GetOrCreate returns the room's game, creating it when the room is new.
// Concurrent calls for the same unseen id share one game. A game that
// already lost its last player is replaced.
func (s *Store) GetOrCreate(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[id]; ok && !room.Game.Closed() {
		return room, false
	}

	room := &Room{
		ID:        id,
		Game:      s.newGame(id),
		CreatedAt: time.Now(),
	}
	s.rooms[id] = room
	l := logging.For("rooms")
	l.Info().Str("room", id).Msg("created game")
	return room, true
}

func (s *Store) Get(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

// Remove deletes the room if it still maps to g and g has no players.
func (s *Store) Remove(id string, g *game.Game) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok || room.Game != g || g.PlayerCount() != 0 {
		return false
	}
	delete(s.rooms, id)
	l := logging.For("rooms")
	l.Info().Str("room", id).Msg("removed game")
	return true
}

// List returns rooms ordered by id.
func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Bind records which room a connection joined, replacing any earlier one.
func (s *Store) Bind(connID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[connID] = roomID
}

// Unbind removes the connection from the index. Only the first call for a
// binding reports ok, which makes disconnect cleanup run once.
func (s *Store) Unbind(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.conns[connID]
	if ok {
		delete(s.conns, connID)
	}
	return roomID, ok
}

func (s *Store) RoomOf(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.conns[connID]
	return roomID, ok
}

// Sweep drops rooms that have sat empty longer than emptyGrace until ctx
// is cancelled.
func (s *Store) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepStale(now)
		}
	}
}

func (s *Store) sweepStale(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for id, room := range s.rooms {
		if room.Game.PlayerCount() == 0 && now.Sub(room.CreatedAt) > emptyGrace {
			delete(s.rooms, id)
			swept++
		}
	}
	if swept > 0 {
		l := logging.For("rooms")
		l.Warn().Int("count", swept).Msg("swept empty rooms")
	}
	return swept
}
