package players

import "time"

// Player is one connection's participation in a single game. ID is the
// connection id and is never sent to other players.
type Player struct {
	ID          string
	Name        string
	RoundScores []float64
	Ready       bool
	JoinedAt    time.Time
}

// HasSubmitted reports whether the player already holds a score for round.
func (p *Player) HasSubmitted(round int) bool {
	return len(p.RoundScores) > round
}

func (p *Player) Total() float64 {
	var sum float64
	for _, s := range p.RoundScores {
		sum += s
	}
	return sum
}
