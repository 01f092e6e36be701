package analytics

type BadgeID string

const (
	BadgeChampion    BadgeID = "champion"
	BadgeFlawless    BadgeID = "flawless"
	BadgeSteady      BadgeID = "steady"
	BadgeLateArrival BadgeID = "late_arrival"
	BadgeUnstoppable BadgeID = "unstoppable"
	BadgeVeteran     BadgeID = "veteran"
	BadgeShowstopper BadgeID = "showstopper"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeChampion:    {ID: BadgeChampion, Name: "Champion", Description: "Won a completed game"},
	BadgeFlawless:    {ID: BadgeFlawless, Name: "Flawless", Description: "Top score in every round of a game"},
	BadgeSteady:      {ID: BadgeSteady, Name: "Steady", Description: "Scored in every round of a completed game"},
	BadgeLateArrival: {ID: BadgeLateArrival, Name: "Late Arrival", Description: "Joined mid-game and still finished on the podium"},
	BadgeUnstoppable: {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "3-game win streak"},
	BadgeVeteran:     {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ games"},
	BadgeShowstopper: {ID: BadgeShowstopper, Name: "Showstopper", Description: "Won 5+ games"},
}

// EvaluateGameBadges checks which badges a player earned in a single game.
// field is every standing of that game, the player's own included.
func EvaluateGameBadges(s Standing, field []Standing, completed bool) []Badge {
	var earned []Badge

	if completed && s.Rank == 1 {
		earned = append(earned, AllBadges[BadgeChampion])
	}

	// Flawless needs someone to beat.
	if len(field) > 1 && roundWinner(s, field) {
		earned = append(earned, AllBadges[BadgeFlawless])
	}

	if completed && len(s.RoundScores) > 0 && !hasZero(s.RoundScores) {
		earned = append(earned, AllBadges[BadgeSteady])
	}

	// Backfilled rounds are recorded as leading zeros.
	if completed && s.Rank <= 3 && len(s.RoundScores) > 0 && s.RoundScores[0] == 0 && !allZero(s.RoundScores) {
		earned = append(earned, AllBadges[BadgeLateArrival])
	}

	return earned
}

// EvaluateLifetimeBadges checks which badges a player earned across their career.
func EvaluateLifetimeBadges(stats PlayerLifetimeStats) []Badge {
	var earned []Badge

	// Unstoppable: 3-game win streak
	if stats.WinStreak >= 3 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}

	// Veteran: 10+ games
	if stats.GamesPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	if stats.WinCount >= 5 {
		earned = append(earned, AllBadges[BadgeShowstopper])
	}

	return earned
}

func hasZero(scores []float64) bool {
	for _, v := range scores {
		if v == 0 {
			return true
		}
	}
	return false
}

func allZero(scores []float64) bool {
	for _, v := range scores {
		if v != 0 {
			return false
		}
	}
	return true
}
