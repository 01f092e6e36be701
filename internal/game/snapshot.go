package game

type PlayerView struct {
	Name        string    `json:"name"`
	Ready       bool      `json:"ready"`
	RoundScores []float64 `json:"roundScores"`
}

// Snapshot is a copy of a game's state, safe to read without the lock.
type Snapshot struct {
	Room         string       `json:"room"`
	GameID       string       `json:"gameId"`
	Phase        Phase        `json:"phase"`
	CurrentRound int          `json:"currentRound"`
	TotalRounds  int          `json:"totalRounds"`
	UsedImages   []string     `json:"usedImages"`
	Players      []PlayerView `json:"players"`
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Room:         g.room,
		GameID:       g.id,
		Phase:        g.phase(),
		CurrentRound: g.currentRound,
		TotalRounds:  g.totalRounds,
		UsedImages:   make([]string, 0, len(g.usedImages)),
		Players:      make([]PlayerView, 0, g.players.Count()),
	}
	for img := range g.usedImages {
		s.UsedImages = append(s.UsedImages, img)
	}
	for _, p := range g.players.GetList() {
		scores := make([]float64, len(p.RoundScores))
		copy(scores, p.RoundScores)
		s.Players = append(s.Players, PlayerView{Name: p.Name, Ready: p.Ready, RoundScores: scores})
	}
	return s
}

func (g *Game) phase() Phase {
	switch {
	case g.ended:
		return PhaseEnded
	case g.roundActive:
		return PhaseRoundActive
	case g.currentRound == 0 && !g.anyReady():
		return PhaseAwaitingPlayers
	default:
		return PhaseAwaitingReady
	}
}

func (g *Game) anyReady() bool {
	for _, p := range g.players.GetList() {
		if p.Ready {
			return true
		}
	}
	return false
}
