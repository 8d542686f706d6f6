package match

import (
	"errors"
	"testing"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
)

func TestJoinDealsCard(t *testing.T) {
	env := newTestEnv(t, defaultRoom(), nil)
	sess := env.openSession(t)

	p, err := env.reg.Join(env.ctx, sess.ID, JoinRequest{DisplayName: "  ana  "})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.DisplayName != "ana" || p.Kind != game.KindHuman || p.Difficulty != "" {
		t.Fatalf("unexpected participant: %+v", p)
	}
	if p.Card.At(game.Center) != game.FreeCategory || p.Unlocked != game.NewCellSet(game.Center) {
		t.Fatalf("center must be free and unlocked: %+v", p)
	}
	seen := map[string]bool{}
	for i, cat := range p.Card {
		if i == game.Center.Index() {
			continue
		}
		if cat == "" || seen[cat] {
			t.Fatalf("card has empty or repeated category %q", cat)
		}
		seen[cat] = true
	}
	if n := env.pub.count(broadcast.KindParticipantJoined); n != 1 {
		t.Fatalf("expected participant_joined, got %d", n)
	}

	bot, err := env.reg.Join(env.ctx, sess.ID, JoinRequest{DisplayName: "bot", Kind: game.KindAgent, Difficulty: "impossible"})
	if err != nil {
		t.Fatalf("join agent: %v", err)
	}
	if bot.Difficulty != game.DifficultyMedium {
		t.Fatalf("unknown difficulty should fall back to medium, got %q", bot.Difficulty)
	}
}

func TestJoinRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t, defaultRoom(), nil)
	sess := env.openSession(t)

	if _, err := env.reg.Join(env.ctx, sess.ID, JoinRequest{DisplayName: " "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for blank name, got %v", err)
	}
	if _, err := env.reg.Join(env.ctx, sess.ID, JoinRequest{DisplayName: "x", Kind: "robot"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad kind, got %v", err)
	}
	if _, err := env.reg.Join(env.ctx, "missing", JoinRequest{DisplayName: "x"}); err == nil {
		t.Fatalf("expected error for unknown session")
	}

	if _, err := env.repo.MarkSessionCompleted(env.ctx, sess.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.reg.Join(env.ctx, sess.ID, JoinRequest{DisplayName: "late"}); !errors.Is(err, ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}
}

func TestJoinNeedsEnoughCategories(t *testing.T) {
	room := defaultRoom()
	room.CategoryScope = []string{"CHEF", "PILOT"}
	env := newTestEnv(t, room, nil)
	sess := env.openSession(t)

	_, err := env.reg.Join(env.ctx, sess.ID, JoinRequest{DisplayName: "ana"})
	if !errors.Is(err, game.ErrNotEnoughCategories) || !IsClientError(err) {
		t.Fatalf("expected not enough categories, got %v", err)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	env := newTestEnv(t, defaultRoom(), nil)
	sess := env.openSession(t)
	p := env.addParticipant(t, sess.ID, "ana", game.KindHuman, 0)

	for i := 0; i < 2; i++ {
		if err := env.reg.Leave(env.ctx, sess.ID, p.ID); err != nil {
			t.Fatalf("leave %d: %v", i, err)
		}
	}
	if !env.participant(t, p.ID).Left {
		t.Fatalf("participant should be marked left")
	}
	if n := env.pub.count(broadcast.KindParticipantLeft); n != 1 {
		t.Fatalf("expected one participant_left, got %d", n)
	}
	if err := env.reg.Leave(env.ctx, "other-session", p.ID); err == nil {
		t.Fatalf("expected error leaving from the wrong session")
	}
}

func TestOpenSessionUsesRoomSettings(t *testing.T) {
	room := defaultRoom()
	room.TotalQuestions = 7
	room.BingoSlots = 2
	env := newTestEnv(t, room, nil)

	first := env.openSession(t)
	second := env.openSession(t)
	if first.TotalQuestions != 7 || first.BingoSlotsRemaining != 2 || first.Status != game.SessionPending {
		t.Fatalf("unexpected session: %+v", first)
	}
	if second.GameNumber != first.GameNumber+1 {
		t.Fatalf("game numbers should increase: %d then %d", first.GameNumber, second.GameNumber)
	}
	if _, err := env.reg.OpenSession(env.ctx, "missing"); err == nil {
		t.Fatalf("expected error for unknown room")
	}

	snap, err := env.reg.Snapshot(env.ctx, first.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Running || snap.Question != nil || snap.Summary != nil {
		t.Fatalf("pending session snapshot: %+v", snap)
	}
}
