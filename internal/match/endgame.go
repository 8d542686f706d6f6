package match

import (
	"context"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"

	"github.com/rs/zerolog/log"
)

const endGameTimeout = 10 * time.Second

type Summary struct {
	SessionID      string                  `json:"session_id"`
	QuestionsAsked int                     `json:"questions_asked"`
	Leaderboard    []game.LeaderboardEntry `json:"leaderboard"`
	Awards         []game.BingoAward       `json:"awards"`
	CompletedAt    time.Time               `json:"completed_at"`
	NextStartAt    time.Time               `json:"next_start_at"`
}

// endGame marks the session completed, publishes the final standings and
// closes the session's streams. It runs on a fresh context so a stopped run
// still finishes its bookkeeping.
func (r *Registry) endGame(run *sessionRun) {
	ctx, cancel := context.WithTimeout(context.Background(), endGameTimeout)
	defer cancel()
	logger := log.With().Str("session_id", run.sessionID).Logger()

	if _, err := r.repo.MarkSessionCompleted(ctx, run.sessionID); err != nil {
		logger.Error().Err(err).Msg("mark session completed failed")
		if isNotFound(err) {
			return
		}
	}
	sess, err := r.repo.GetSession(ctx, run.sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("load completed session failed")
		return
	}
	participants, err := r.repo.ListParticipants(ctx, run.sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("list participants for leaderboard failed")
	}
	awards, err := r.repo.ListAwards(ctx, run.sessionID)
	if err != nil {
		logger.Error().Err(err).Msg("list awards failed")
	}

	run.mu.Lock()
	intermission := run.room.Intermission
	run.mu.Unlock()
	completedAt := r.now()
	if sess.CompletedAt != nil {
		completedAt = *sess.CompletedAt
	}
	summary := &Summary{
		SessionID:      run.sessionID,
		QuestionsAsked: len(sess.QuestionsAsked),
		Leaderboard:    game.BuildLeaderboard(participants),
		Awards:         awards,
		CompletedAt:    completedAt,
		NextStartAt:    completedAt.Add(intermission),
	}
	run.mu.Lock()
	run.summary = summary
	run.mu.Unlock()

	r.proc.publish(ctx, run.sessionID, func() (broadcast.Event, error) {
		return broadcast.NewGameCompleted(run.sessionID, summary.QuestionsAsked, summary.Leaderboard, summary.Awards, completedAt, intermission)
	})
	if err := r.pub.CloseSession(ctx, run.sessionID); err != nil {
		logger.Warn().Err(err).Msg("close session stream failed")
	}
	metricSessionsCompleted.Add(1)
	logger.Info().
		Int("questions_asked", summary.QuestionsAsked).
		Int("bingos", len(awards)).
		Int("slots_remaining", sess.BingoSlotsRemaining).
		Msg("session completed")
}

// Summary returns the end-of-game result once the session's loop is done.
func (r *Registry) Summary(sessionID string) (*Summary, bool) {
	run := r.lookup(sessionID)
	if run == nil {
		return nil, false
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.summary, run.summary != nil
}
