package players

import (
	"sort"
	"time"
)

// Store is the player set of one game. It has no lock of its own: the
// owning game serializes every call.
type Store struct {
	players map[string]*Player
	seq     map[string]int
	nextSeq int
}

func NewStore() *Store {
	return &Store{
		players: make(map[string]*Player),
		seq:     make(map[string]int),
	}
}

// Add registers a player who missed the first backfill rounds; each of
// those counts as a zero score.
func (s *Store) Add(id string, name string, backfill int) *Player {
	if backfill < 0 {
		backfill = 0
	}
	player := &Player{
		ID:          id,
		Name:        name,
		RoundScores: make([]float64, backfill),
		JoinedAt:    time.Now(),
	}
	s.players[id] = player
	s.seq[id] = s.nextSeq
	s.nextSeq++
	return player
}

func (s *Store) Get(id string) *Player {
	return s.players[id]
}

func (s *Store) Remove(id string) bool {
	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	delete(s.seq, id)
	return true
}

func (s *Store) Count() int {
	return len(s.players)
}

// GetList returns players in join order.
func (s *Store) GetList() []*Player {
	playerList := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		playerList = append(playerList, p)
	}
	sort.Slice(playerList, func(i, j int) bool {
		return s.seq[playerList[i].ID] < s.seq[playerList[j].ID]
	})
	return playerList
}

func (s *Store) SetReady(id string, isReady bool) *Player {
	if p, e := s.players[id]; e {
		p.Ready = isReady
		return p
	}
	return nil
}

func (s *Store) AllReady() bool {
	if len(s.players) == 0 {
		return false
	}

	for _, player := range s.players {
		if !player.Ready {
			return false
		}
	}
	return true
}

// AllSubmitted reports whether every current player has a score for round.
func (s *Store) AllSubmitted(round int) bool {
	if len(s.players) == 0 {
		return false
	}
	for _, player := range s.players {
		if len(player.RoundScores) != round+1 {
			return false
		}
	}
	return true
}

func (s *Store) ResetReady() {
	for _, p := range s.players {
		p.Ready = false
	}
}

func (s *Store) ResetAll() {
	for _, p := range s.players {
		p.RoundScores = nil
		p.Ready = false
	}
}

// Scores copies the score history keyed by display name. Players sharing
// a name collapse to whichever joined last.
func (s *Store) Scores() map[string][]float64 {
	out := make(map[string][]float64, len(s.players))
	for _, p := range s.GetList() {
		scores := make([]float64, len(p.RoundScores))
		copy(scores, p.RoundScores)
		out[p.Name] = scores
	}
	return out
}
