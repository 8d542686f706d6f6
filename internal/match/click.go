package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	maxCASAttempts = 5
	bonusAttempts  = 3
)

// ActiveQuestion is the open question window of a running session.
type ActiveQuestion struct {
	Index     int // 0-based position in the session
	Question  game.Question
	StartedAt time.Time
	Deadline  time.Time
}

func (q *ActiveQuestion) Number() int { return q.Index + 1 }

type ClickInput struct {
	SessionID     string
	ParticipantID string
	Cell          game.Cell
	// Question is nil when no question window is open.
	Question       *ActiveQuestion
	ResponseTime   time.Duration
	Source         game.ClickSource
	CornersEnabled bool
}

type ClickResult struct {
	Applied  bool             `json:"applied"`
	Correct  bool             `json:"correct"`
	Reason   string           `json:"reason,omitempty"`
	Unlocked *game.Cell       `json:"unlocked,omitempty"`
	XPDelta  int              `json:"xp_delta"`
	TotalXP  int              `json:"total_xp"`
	Streak   int              `json:"streak"`
	Bingo    *game.BingoAward `json:"bingo,omitempty"`
}

func stale(reason string) ClickResult {
	metricClicksStaleTotal.Add(1)
	return ClickResult{Reason: reason}
}

// Processor validates clicks and applies their effects exactly once.
type Processor struct {
	repo Repository
	pub  broadcast.Publisher
	now  func() time.Time
}

func NewProcessor(repo Repository, pub broadcast.Publisher) *Processor {
	return &Processor{repo: repo, pub: pub, now: time.Now}
}

// ProcessClick evaluates one click. Stale clicks return Applied=false with a
// reason and no side effects. A correct click that completes lines awards at
// most the first of them; the end-of-question sweep handles the rest.
func (p *Processor) ProcessClick(ctx context.Context, in ClickInput) (ClickResult, error) {
	metricClicksTotal.Add(1)
	if !in.Cell.Valid() {
		return ClickResult{}, ErrInvalidCell
	}

	var (
		updated game.Participant
		xp      game.XPBreakdown
		correct bool
		clicked string
		prevXP  int
	)
	for attempt := 0; ; attempt++ {
		if attempt == maxCASAttempts {
			metricClickErrorsTotal.Add(1)
			return ClickResult{}, fmt.Errorf("process click %s: %w", in.ParticipantID, ErrTooManyConflicts)
		}
		cur, err := p.loadParticipant(ctx, in.SessionID, in.ParticipantID)
		if err != nil {
			return ClickResult{}, err
		}
		switch {
		case cur.Left:
			return stale(ReasonParticipantLeft), nil
		case cur.Unlocked.Has(in.Cell):
			return stale(ReasonAlreadyUnlocked), nil
		case in.Question == nil:
			return stale(ReasonNoActiveQuestion), nil
		}

		next := *cur
		prevXP = cur.TotalXP
		clicked = cur.Card.At(in.Cell)
		correct = clicked == in.Question.Question.Category
		if correct {
			xp = next.ApplyCorrect(in.Cell, in.ResponseTime)
		} else {
			next.ApplyIncorrect()
		}
		updated, err = p.repo.UpdateParticipant(ctx, next)
		if errors.Is(err, store.ErrConflict) {
			metricCASRetriesTotal.Add(1)
			continue
		}
		if err != nil {
			metricClickErrorsTotal.Add(1)
			return ClickResult{}, fmt.Errorf("update participant %s: %w", in.ParticipantID, err)
		}
		break
	}

	audit := game.ClickEvent{
		ID:              store.NewID(),
		SessionID:       in.SessionID,
		ParticipantID:   in.ParticipantID,
		QuestionIndex:   in.Question.Index,
		Cell:            in.Cell,
		ClickedCategory: clicked,
		TargetCategory:  in.Question.Question.Category,
		Correct:         correct,
		ResponseTime:    in.ResponseTime,
		Unlocked:        correct,
		Source:          in.Source,
	}
	if err := p.repo.AppendClick(ctx, audit); err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Str("participant_id", in.ParticipantID).Msg("append click event failed")
	}

	res := ClickResult{Applied: true, Correct: correct, TotalXP: updated.TotalXP, Streak: updated.CurrentStreak}
	if !correct {
		// the penalty floors at zero, so the applied delta may be smaller
		res.XPDelta = updated.TotalXP - prevXP
		p.publish(ctx, in.SessionID, func() (broadcast.Event, error) {
			return broadcast.NewPlayerIncorrect(updated, in.Cell, in.Question.Number(), res.XPDelta)
		})
		return res, nil
	}

	metricClicksCorrectTotal.Add(1)
	cell := in.Cell
	res.Unlocked = &cell
	res.XPDelta = xp.Total
	if err := p.repo.MarkQuestionCorrect(ctx, in.Question.Question.ID); err != nil {
		log.Warn().Err(err).Str("question_id", in.Question.Question.ID).Msg("bump question correct counter failed")
	}
	p.publish(ctx, in.SessionID, func() (broadcast.Event, error) {
		return broadcast.NewPlayerCorrect(updated, in.Cell, in.Question.Number(), xp)
	})

	if line, ok := game.Detect(updated.Unlocked, updated.Completed).First(in.CornersEnabled); ok {
		award, err := p.AwardBingo(ctx, in.SessionID, in.ParticipantID, line, in.Question.Index)
		if err != nil {
			// the unlock stands; an unclaimed line is left open for the sweep
			log.Error().Err(err).Str("session_id", in.SessionID).Str("participant_id", in.ParticipantID).Msg("award bingo failed")
		}
		res.Bingo = award
		if award != nil && err == nil {
			res.TotalXP += award.BonusXP
		}
	}
	return res, nil
}

func (p *Processor) loadParticipant(ctx context.Context, sessionID, participantID string) (*game.Participant, error) {
	cur, err := p.repo.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if cur.SessionID != sessionID {
		return nil, store.ErrNotFound
	}
	return cur, nil
}

// publish is fire-and-forget: failures are logged and counted.
func (p *Processor) publish(ctx context.Context, sessionID string, build func() (broadcast.Event, error)) {
	ev, err := build()
	if err == nil {
		err = p.pub.Publish(ctx, sessionID, ev)
	}
	if err != nil {
		metricPublishErrorsTotal.Add(1)
		log.Warn().Err(err).Str("session_id", sessionID).Msg("publish event failed")
	}
}
