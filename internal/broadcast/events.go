package broadcast

import (
	"errors"
	"time"

	"career-bingo/internal/game"
)

var ErrInvalidEvent = errors.New("invalid_event")

type Kind string

const (
	KindQuestionStarted   Kind = "question_started"
	KindPlayerCorrect     Kind = "player_correct"
	KindPlayerIncorrect   Kind = "player_incorrect"
	KindBingoAchieved     Kind = "bingo_achieved"
	KindGameCompleted     Kind = "game_completed"
	KindParticipantJoined Kind = "participant_joined"
	KindParticipantLeft   Kind = "participant_left"
)

// Event is one of the payload types below. The unexported method keeps the
// set closed to this package.
type Event interface {
	Kind() Kind
	validate() error
}

type QuestionStarted struct {
	QuestionNumber int       `json:"question_number"`
	TotalQuestions int       `json:"total_questions"`
	QuestionID     string    `json:"question_id"`
	Text           string    `json:"text"`
	TimeLimitMS    int64     `json:"time_limit_ms"`
	StartedAt      time.Time `json:"started_at"`
	Deadline       time.Time `json:"deadline"`
}

// NewQuestionStarted builds the announcement for question number n (1-based).
// The target category is deliberately absent.
func NewQuestionStarted(n, total int, q game.Question, startedAt time.Time, limit time.Duration) (QuestionStarted, error) {
	ev := QuestionStarted{
		QuestionNumber: n,
		TotalQuestions: total,
		QuestionID:     q.ID,
		Text:           q.Text,
		TimeLimitMS:    limit.Milliseconds(),
		StartedAt:      startedAt,
		Deadline:       startedAt.Add(limit),
	}
	return ev, ev.validate()
}

func (QuestionStarted) Kind() Kind { return KindQuestionStarted }

func (e QuestionStarted) validate() error {
	if e.QuestionNumber < 1 || e.QuestionID == "" || e.Text == "" || e.TimeLimitMS <= 0 {
		return ErrInvalidEvent
	}
	if e.TotalQuestions > 0 && e.QuestionNumber > e.TotalQuestions {
		return ErrInvalidEvent
	}
	return nil
}

// PlayerAnswered is sent as player_correct or player_incorrect.
type PlayerAnswered struct {
	Correct        bool      `json:"correct"`
	ParticipantID  string    `json:"participant_id"`
	DisplayName    string    `json:"display_name"`
	Cell           game.Cell `json:"cell"`
	QuestionNumber int       `json:"question_number"`
	XPDelta        int       `json:"xp_delta"`
	TotalXP        int       `json:"total_xp"`
	NewStreak      int       `json:"new_streak"`
	SpeedBonus     int       `json:"speed_bonus,omitempty"`
	StreakBonus    int       `json:"streak_bonus,omitempty"`
}

func NewPlayerCorrect(p game.Participant, cell game.Cell, questionNumber int, xp game.XPBreakdown) (PlayerAnswered, error) {
	ev := PlayerAnswered{
		Correct:        true,
		ParticipantID:  p.ID,
		DisplayName:    p.DisplayName,
		Cell:           cell,
		QuestionNumber: questionNumber,
		XPDelta:        xp.Total,
		TotalXP:        p.TotalXP,
		NewStreak:      p.CurrentStreak,
		SpeedBonus:     xp.Speed,
		StreakBonus:    xp.Streak,
	}
	return ev, ev.validate()
}

// NewPlayerIncorrect reports the penalty actually applied: xpDelta is between
// -IncorrectXP and 0 because the total never drops below zero.
func NewPlayerIncorrect(p game.Participant, cell game.Cell, questionNumber, xpDelta int) (PlayerAnswered, error) {
	ev := PlayerAnswered{
		ParticipantID:  p.ID,
		DisplayName:    p.DisplayName,
		Cell:           cell,
		QuestionNumber: questionNumber,
		XPDelta:        xpDelta,
		TotalXP:        p.TotalXP,
		NewStreak:      p.CurrentStreak,
	}
	return ev, ev.validate()
}

func (e PlayerAnswered) Kind() Kind {
	if e.Correct {
		return KindPlayerCorrect
	}
	return KindPlayerIncorrect
}

func (e PlayerAnswered) validate() error {
	if e.ParticipantID == "" || !e.Cell.Valid() || e.QuestionNumber < 1 || e.TotalXP < 0 {
		return ErrInvalidEvent
	}
	if e.Correct && (e.XPDelta < game.BaseXP || e.NewStreak < 1) {
		return ErrInvalidEvent
	}
	if !e.Correct && (e.XPDelta > 0 || e.XPDelta < -game.IncorrectXP || e.NewStreak != 0) {
		return ErrInvalidEvent
	}
	return nil
}

type BingoAchieved struct {
	ParticipantID  string        `json:"participant_id"`
	DisplayName    string        `json:"display_name"`
	AwardNumber    int           `json:"award_number"`
	LineType       game.LineType `json:"line_type"`
	LineIndex      int           `json:"line_index"`
	BonusXP        int           `json:"bonus_xp"`
	TotalXP        int           `json:"total_xp"`
	SlotsRemaining int           `json:"slots_remaining"`
	QuestionNumber int           `json:"question_number"`
}

func NewBingoAchieved(p game.Participant, award game.BingoAward, slotsRemaining int) (BingoAchieved, error) {
	ev := BingoAchieved{
		ParticipantID:  p.ID,
		DisplayName:    p.DisplayName,
		AwardNumber:    award.AwardNumber,
		LineType:       award.Line.Type,
		LineIndex:      award.Line.Index,
		BonusXP:        award.BonusXP,
		TotalXP:        p.TotalXP,
		SlotsRemaining: slotsRemaining,
		QuestionNumber: award.QuestionIndex + 1,
	}
	return ev, ev.validate()
}

func (BingoAchieved) Kind() Kind { return KindBingoAchieved }

func (e BingoAchieved) validate() error {
	if e.ParticipantID == "" || e.AwardNumber < 1 || e.SlotsRemaining < 0 || e.BonusXP <= 0 {
		return ErrInvalidEvent
	}
	switch e.LineType {
	case game.LineRow, game.LineColumn:
		if e.LineIndex < 0 || e.LineIndex >= game.GridSize {
			return ErrInvalidEvent
		}
	case game.LineDiagonal:
		if e.LineIndex != game.DiagonalMain && e.LineIndex != game.DiagonalAnti {
			return ErrInvalidEvent
		}
	case game.LineCorners:
	default:
		return ErrInvalidEvent
	}
	return nil
}

type GameCompleted struct {
	SessionID      string                  `json:"session_id"`
	QuestionsAsked int                     `json:"questions_asked"`
	Leaderboard    []game.LeaderboardEntry `json:"leaderboard"`
	Awards         []game.BingoAward       `json:"awards"`
	IntermissionMS int64                   `json:"intermission_ms"`
	NextStartAt    time.Time               `json:"next_start_at"`
}

func NewGameCompleted(sessionID string, questionsAsked int, board []game.LeaderboardEntry, awards []game.BingoAward, completedAt time.Time, intermission time.Duration) (GameCompleted, error) {
	if board == nil {
		board = []game.LeaderboardEntry{}
	}
	if awards == nil {
		awards = []game.BingoAward{}
	}
	ev := GameCompleted{
		SessionID:      sessionID,
		QuestionsAsked: questionsAsked,
		Leaderboard:    board,
		Awards:         awards,
		IntermissionMS: intermission.Milliseconds(),
		NextStartAt:    completedAt.Add(intermission),
	}
	return ev, ev.validate()
}

func (GameCompleted) Kind() Kind { return KindGameCompleted }

func (e GameCompleted) validate() error {
	if e.SessionID == "" || e.QuestionsAsked < 0 || e.IntermissionMS < 0 {
		return ErrInvalidEvent
	}
	return nil
}

// ParticipantPresence is sent as participant_joined or participant_left.
type ParticipantPresence struct {
	Joined          bool                 `json:"joined"`
	ParticipantID   string               `json:"participant_id"`
	DisplayName     string               `json:"display_name"`
	ParticipantKind game.ParticipantKind `json:"participant_kind"`
}

func NewParticipantJoined(p game.Participant) (ParticipantPresence, error) {
	ev := ParticipantPresence{Joined: true, ParticipantID: p.ID, DisplayName: p.DisplayName, ParticipantKind: p.Kind}
	return ev, ev.validate()
}

func NewParticipantLeft(p game.Participant) (ParticipantPresence, error) {
	ev := ParticipantPresence{ParticipantID: p.ID, DisplayName: p.DisplayName, ParticipantKind: p.Kind}
	return ev, ev.validate()
}

func (e ParticipantPresence) Kind() Kind {
	if e.Joined {
		return KindParticipantJoined
	}
	return KindParticipantLeft
}

func (e ParticipantPresence) validate() error {
	if e.ParticipantID == "" {
		return ErrInvalidEvent
	}
	if e.ParticipantKind != game.KindHuman && e.ParticipantKind != game.KindAgent {
		return ErrInvalidEvent
	}
	return nil
}
