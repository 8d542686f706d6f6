package game

import "testing"

func TestBuildLeaderboardOrdering(t *testing.T) {
	ps := []Participant{
		{ID: "a", DisplayName: "Ada", BingosWon: 1, TotalXP: 90, CorrectCount: 9, IncorrectCnt: 1},
		{ID: "b", DisplayName: "Bo", BingosWon: 2, TotalXP: 60},
		{ID: "c", DisplayName: "Cy", BingosWon: 1, TotalXP: 120},
		{ID: "d", DisplayName: "Di"},
	}
	lb := BuildLeaderboard(ps)
	order := []string{"b", "c", "a", "d"}
	for i, id := range order {
		if lb[i].ParticipantID != id || lb[i].Rank != i+1 {
			t.Fatalf("position %d = %+v, want %s", i, lb[i], id)
		}
	}
	if lb[2].Accuracy != 90 {
		t.Fatalf("accuracy = %v, want 90", lb[2].Accuracy)
	}
	if lb[3].Accuracy != 0 {
		t.Fatalf("accuracy for no answers = %v, want 0", lb[3].Accuracy)
	}
	if ps[0].ID != "a" {
		t.Fatal("input slice reordered")
	}
}
