package store

import (
	"context"
	"testing"
	"time"

	"career-bingo/internal/game"
	"career-bingo/internal/testutil"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(testutil.SchemaDSN(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

// repository is the method set shared by Store and Memory.
type repository interface {
	Seeder
	GetRoom(ctx context.Context, id string) (*game.Room, error)
	CreateSession(ctx context.Context, roomID string, totalQuestions, bingoSlots int) (*game.Session, error)
	GetSession(ctx context.Context, id string) (*game.Session, error)
	MarkSessionActive(ctx context.Context, id string) error
	MarkSessionCompleted(ctx context.Context, id string) (bool, error)
	RecordQuestionAsked(ctx context.Context, sessionID, questionID string) error
	AdvanceQuestion(ctx context.Context, sessionID string) (int, error)
	ClaimBingoSlot(ctx context.Context, sessionID string) (int, error)
	CreateParticipant(ctx context.Context, p game.Participant) error
	GetParticipant(ctx context.Context, id string) (*game.Participant, error)
	ListParticipants(ctx context.Context, sessionID string) ([]game.Participant, error)
	UpdateParticipant(ctx context.Context, p game.Participant) (game.Participant, error)
	ListQuestions(ctx context.Context, categories []string) ([]game.Question, error)
	MarkQuestionShown(ctx context.Context, id string) error
	MarkQuestionCorrect(ctx context.Context, id string) error
	AppendClick(ctx context.Context, ev game.ClickEvent) error
	ListClicks(ctx context.Context, sessionID string) ([]game.ClickEvent, error)
	AppendAward(ctx context.Context, a game.BingoAward) error
	ListAwards(ctx context.Context, sessionID string) ([]game.BingoAward, error)
}

// eachBackend runs fn against the in-memory store and, when a test database
// is configured, against Postgres.
func eachBackend(t *testing.T, fn func(t *testing.T, r repository, ctx context.Context)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory(), context.Background())
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, openStore(t), context.Background())
	})
}

func mustSession(t *testing.T, r repository, ctx context.Context, slots int) (string, *game.Session) {
	t.Helper()
	roomID, err := r.CreateRoom(ctx, game.Room{
		Name:              "Lobby",
		QuestionTimeLimit: 20 * time.Second,
		Intermission:      time.Minute,
		TotalQuestions:    20,
		BingoSlots:        slots,
	})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	sess, err := r.CreateSession(ctx, roomID, 20, slots)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return roomID, sess
}

func mustParticipant(t *testing.T, r repository, ctx context.Context, sessionID, name string) game.Participant {
	t.Helper()
	var card game.Card
	for i := range card {
		card[i] = DefaultCategories()[i%len(DefaultCategories())]
	}
	card[game.Center.Index()] = game.FreeCategory
	p := game.Participant{
		ID:          NewID(),
		SessionID:   sessionID,
		DisplayName: name,
		Kind:        game.KindHuman,
		Card:        card,
		Unlocked:    game.NewCellSet(game.Center),
	}
	if err := r.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	got, err := r.GetParticipant(ctx, p.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	return *got
}
