package game

import "sort"

type LeaderboardEntry struct {
	Rank          int             `json:"rank"`
	ParticipantID string          `json:"participant_id"`
	DisplayName   string          `json:"display_name"`
	Kind          ParticipantKind `json:"kind"`
	BingosWon     int             `json:"bingos_won"`
	TotalXP       int             `json:"total_xp"`
	Correct       int             `json:"correct"`
	Incorrect     int             `json:"incorrect"`
	Accuracy      float64         `json:"accuracy"`
	BestStreak    int             `json:"best_streak"`
}

// BuildLeaderboard orders by bingos won, then XP. Name and id break ties so
// the order is stable across calls.
func BuildLeaderboard(participants []Participant) []LeaderboardEntry {
	ps := make([]Participant, len(participants))
	copy(ps, participants)
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.BingosWon != b.BingosWon {
			return a.BingosWon > b.BingosWon
		}
		if a.TotalXP != b.TotalXP {
			return a.TotalXP > b.TotalXP
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
	out := make([]LeaderboardEntry, 0, len(ps))
	for i, p := range ps {
		out = append(out, LeaderboardEntry{
			Rank:          i + 1,
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Kind:          p.Kind,
			BingosWon:     p.BingosWon,
			TotalXP:       p.TotalXP,
			Correct:       p.CorrectCount,
			Incorrect:     p.IncorrectCnt,
			Accuracy:      Accuracy(p.CorrectCount, p.IncorrectCnt),
			BestStreak:    p.BestStreak,
		})
	}
	return out
}
