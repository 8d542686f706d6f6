package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/oracle"
	"career-bingo/internal/selector"
	"career-bingo/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	loopRetryAttempts = 3
	loopRetryDelay    = time.Second
)

// run drives the session until the question budget or the bingo slots are
// used up, the session is completed elsewhere, or the run is cancelled. The
// end-of-game runs exactly once on every exit path.
func (r *Registry) run(ctx context.Context, run *sessionRun) {
	defer r.wg.Done()
	defer close(run.done)
	defer r.scheduleForget(run)
	defer metricSessionsRunning.Add(-1)
	defer run.endOnce.Do(func() { r.endGame(run) })

	for ctx.Err() == nil {
		sess, room, err := r.loadState(ctx, run.sessionID)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("session_id", run.sessionID).Msg("session loop cannot load state")
			}
			return
		}
		run.mu.Lock()
		run.room = *room
		run.mu.Unlock()

		switch {
		case sess.Status == game.SessionCompleted:
			log.Info().Str("session_id", run.sessionID).Msg("session completed externally")
			return
		case sess.BingoSlotsRemaining <= 0:
			log.Info().Str("session_id", run.sessionID).Msg("bingo slots exhausted")
			return
		case sess.QuestionBudgetUsed():
			return
		}

		q, err := r.selector.Next(ctx, sess.QuestionsAsked, room.CategoryScope)
		if errors.Is(err, selector.ErrNoEligibleQuestion) {
			log.Info().Str("session_id", run.sessionID).Int("asked", len(sess.QuestionsAsked)).Msg("no eligible question left")
			return
		}
		if err != nil {
			metricLoopErrorsTotal.Add(1)
			log.Error().Err(err).Str("session_id", run.sessionID).Msg("select question failed")
			if !sleepCtx(ctx, loopRetryDelay) {
				return
			}
			continue
		}
		r.askQuestion(ctx, run, sess, room, q)
	}
}

func (r *Registry) loadState(ctx context.Context, sessionID string) (*game.Session, *game.Room, error) {
	var lastErr error
	for attempt := 0; attempt < loopRetryAttempts; attempt++ {
		sess, err := r.repo.GetSession(ctx, sessionID)
		if err == nil {
			room, roomErr := r.repo.GetRoom(ctx, sess.RoomID)
			if roomErr == nil {
				return sess, room, nil
			}
			err = roomErr
		}
		if isNotFound(err) {
			return nil, nil, err
		}
		lastErr = err
		metricLoopErrorsTotal.Add(1)
		if !sleepCtx(ctx, loopRetryDelay) {
			break
		}
	}
	return nil, nil, lastErr
}

func (r *Registry) askQuestion(ctx context.Context, run *sessionRun, sess *game.Session, room *game.Room, q game.Question) {
	detached := context.WithoutCancel(ctx)
	logger := log.With().Str("session_id", run.sessionID).Int("question_index", sess.CurrentQuestionIndex).Str("question_id", q.ID).Logger()

	if err := r.repo.RecordQuestionAsked(ctx, run.sessionID, q.ID); err != nil {
		// the question was not recorded, or was already asked: select again
		if errors.Is(err, store.ErrDuplicate) {
			logger.Warn().Msg("question already asked; selecting another")
			return
		}
		metricLoopErrorsTotal.Add(1)
		logger.Error().Err(err).Msg("record question asked failed")
		sleepCtx(ctx, loopRetryDelay)
		return
	}
	if err := r.repo.MarkQuestionShown(ctx, q.ID); err != nil {
		logger.Warn().Err(err).Msg("bump question shown counter failed")
	}
	metricQuestionsTotal.Add(1)

	start := r.now()
	aq := &ActiveQuestion{Index: sess.CurrentQuestionIndex, Question: q, StartedAt: start, Deadline: start.Add(room.QuestionTimeLimit)}
	run.openQuestion(aq)
	r.proc.publish(ctx, run.sessionID, func() (broadcast.Event, error) {
		return broadcast.NewQuestionStarted(aq.Number(), sess.TotalQuestions, q, start, room.QuestionTimeLimit)
	})
	logger.Info().Int("question_number", aq.Number()).Dur("time_limit", room.QuestionTimeLimit).Msg("question started")

	qctx, qcancel := context.WithCancel(ctx)
	var agents sync.WaitGroup
	participants, err := r.repo.ListParticipants(ctx, run.sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("list participants for agent scheduling failed")
	}
	for _, p := range participants {
		if !p.IsAgent() || p.Left {
			continue
		}
		agents.Add(1)
		go r.agentTask(qctx, &agents, run, aq, p)
	}

	timer := time.NewTimer(room.QuestionTimeLimit)
	stopped := false
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		stopped = true
	}
	qcancel()
	agents.Wait()
	run.closeQuestion()

	if stopped {
		return
	}
	r.sweep(detached, run, aq.Index)
	if _, err := r.repo.AdvanceQuestion(detached, run.sessionID); err != nil {
		metricLoopErrorsTotal.Add(1)
		logger.Error().Err(err).Msg("advance question failed")
	}
}

// agentTask asks the oracle and fires the click at question start plus the
// decided delay, unless the question context ends first.
func (r *Registry) agentTask(ctx context.Context, wg *sync.WaitGroup, run *sessionRun, aq *ActiveQuestion, p game.Participant) {
	defer wg.Done()
	view := oracle.AgentView{Card: p.Card, Unlocked: p.Unlocked}
	d, err := r.oracle.Decide(ctx, aq.Question, view, p.Difficulty)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("participant_id", p.ID).Msg("agent oracle failed")
		}
		return
	}
	if d.Pass {
		return
	}
	if !d.Cell.Valid() || d.ResponseTime < 0 {
		metricAgentInvalidTotal.Add(1)
		log.Warn().Str("participant_id", p.ID).Int("row", d.Cell.Row).Int("col", d.Cell.Col).Msg("agent decision rejected")
		return
	}

	wait := aq.StartedAt.Add(d.ResponseTime).Sub(r.now())
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	metricAgentClicksTotal.Add(1)
	if _, err := r.submit(ctx, run, p.ID, d.Cell, d.ResponseTime, game.SourceAgent); err != nil && !isNotFound(err) {
		log.Error().Err(err).Str("participant_id", p.ID).Msg("agent click failed")
	}
}

// sweep awards every line a participant completed but has not been paid for,
// in priority order, while slots remain.
func (r *Registry) sweep(ctx context.Context, run *sessionRun, questionIndex int) {
	participants, err := r.repo.ListParticipants(ctx, run.sessionID)
	if err != nil {
		metricLoopErrorsTotal.Add(1)
		log.Error().Err(err).Str("session_id", run.sessionID).Msg("sweep: list participants failed")
		return
	}
	corners := run.corners()
	for _, p := range participants {
		if p.Left {
			continue
		}
		for _, line := range game.Detect(p.Unlocked, p.Completed).Ordered(corners) {
			sess, err := r.repo.GetSession(ctx, run.sessionID)
			if err != nil || sess.BingoSlotsRemaining <= 0 {
				return
			}
			if _, err := r.proc.AwardBingo(ctx, run.sessionID, p.ID, line, questionIndex); err != nil {
				log.Error().Err(err).Str("session_id", run.sessionID).Str("participant_id", p.ID).Msg("sweep award failed")
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
