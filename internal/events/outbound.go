package events

import "encoding/json"

// Scores maps a display name to that player's per-round scores.
type Scores map[string][]float64

type StartRound struct {
	Action        string `json:"action"`
	RoundDuration int    `json:"roundDuration"`
	ImageName     string `json:"imageName"`
	CurrentRound  int    `json:"currentRound"`
	TotalRounds   int    `json:"totalRounds"`
	PrevScores    Scores `json:"prevScores"`
}

type EndGame struct {
	Action      string `json:"action"`
	TotalRounds int    `json:"totalRounds"`
	PrevScores  Scores `json:"prevScores"`
}

type RestartGame struct {
	Action     string `json:"action"`
	PrevScores Scores `json:"prevScores"`
}

func NewStartRound(duration int, image string, round, total int, scores Scores) StartRound {
	return StartRound{
		Action:        ActionStartRound,
		RoundDuration: duration,
		ImageName:     image,
		CurrentRound:  round,
		TotalRounds:   total,
		PrevScores:    nonNil(scores),
	}
}

func NewEndGame(total int, scores Scores) EndGame {
	return EndGame{
		Action:      ActionEndGame,
		TotalRounds: total,
		PrevScores:  nonNil(scores),
	}
}

func NewRestartGame() RestartGame {
	return RestartGame{
		Action:     ActionRestartGame,
		PrevScores: Scores{},
	}
}

// Encode marshals an outbound message. The message types above contain
// only plain values, so an error here is a programming mistake.
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func nonNil(s Scores) Scores {
	if s == nil {
		return Scores{}
	}
	return s
}
