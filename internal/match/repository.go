package match

import (
	"context"

	"career-bingo/internal/game"
)

// Repository is the persistence the orchestrator needs. ClaimBingoSlot and
// UpdateParticipant must be atomic at the storage layer.
type Repository interface {
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
	AppendAward(ctx context.Context, a game.BingoAward) error
	ListAwards(ctx context.Context, sessionID string) ([]game.BingoAward, error)
}
