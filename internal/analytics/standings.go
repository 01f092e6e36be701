package analytics

import "sort"

// Standings ranks players by total score, highest first. Equal totals share
// a rank and the next rank is skipped (1, 1, 3). Ties are listed by name.
func Standings(scores map[string][]float64) []Standing {
	out := make([]Standing, 0, len(scores))
	for name, rounds := range scores {
		s := Standing{Name: name, RoundScores: make([]float64, len(rounds))}
		copy(s.RoundScores, rounds)
		for _, v := range rounds {
			s.Total += v
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})

	for i := range out {
		if i > 0 && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}

// roundWinner reports whether s scored at least as high as everyone else in
// every round it played.
func roundWinner(s Standing, field []Standing) bool {
	if len(s.RoundScores) == 0 {
		return false
	}
	for round, score := range s.RoundScores {
		for _, other := range field {
			if other.Name == s.Name || round >= len(other.RoundScores) {
				continue
			}
			if other.RoundScores[round] > score {
				return false
			}
		}
	}
	return true
}
