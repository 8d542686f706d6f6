package match

import (
	"context"
	"errors"
	"fmt"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/store"

	"github.com/rs/zerolog/log"
)

// AwardBingo grants line to the participant if a slot is left. It returns
// nil without error when slots are exhausted or the line was already
// recorded, so concurrent click and sweep calls for the same line are safe.
//
// The line is reserved on the participant before a slot is claimed; a
// participant that loses the race for the last slot keeps the line recorded
// without an award. Any other claim failure releases the reservation so the
// sweep can pay the line later. Once a slot is claimed the award is always
// recorded and published; if the bonus cannot be applied the award is
// returned together with the error.
func (p *Processor) AwardBingo(ctx context.Context, sessionID, participantID string, line game.Line, questionIndex int) (*game.BingoAward, error) {
	sess, err := p.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.BingoSlotsRemaining <= 0 {
		return nil, nil
	}

	reserved, err := p.mutateParticipant(ctx, sessionID, participantID, func(cur *game.Participant) bool {
		if cur.Completed.Has(line) {
			return false
		}
		cur.Completed = cur.Completed.With(line)
		return true
	})
	if err != nil || !reserved {
		return nil, err
	}

	n, err := p.repo.ClaimBingoSlot(ctx, sessionID)
	if errors.Is(err, store.ErrSlotsExhausted) {
		log.Info().Str("session_id", sessionID).Str("participant_id", participantID).Msg("bingo line completed after last slot")
		return nil, nil
	}
	if err != nil {
		if _, relErr := p.mutateParticipant(ctx, sessionID, participantID, func(cur *game.Participant) bool {
			if !cur.Completed.Has(line) {
				return false
			}
			cur.Completed = cur.Completed.Without(line)
			return true
		}); relErr != nil {
			log.Error().Err(relErr).Str("session_id", sessionID).Str("participant_id", participantID).Msg("release bingo line failed")
		}
		return nil, fmt.Errorf("claim bingo slot: %w", err)
	}

	bonus := game.AwardBonus(n)
	final, bonusErr := p.applyBonus(ctx, sessionID, participantID, bonus)
	if bonusErr != nil {
		metricBonusErrorsTotal.Add(1)
		log.Error().Err(bonusErr).Str("session_id", sessionID).Str("participant_id", participantID).Int("award_number", n).Msg("apply bingo bonus failed")
	}

	award := game.BingoAward{
		ID:            store.NewID(),
		SessionID:     sessionID,
		ParticipantID: participantID,
		AwardNumber:   n,
		Line:          line,
		QuestionIndex: questionIndex,
		BonusXP:       bonus,
	}
	if err := p.repo.AppendAward(ctx, award); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Int("award_number", n).Msg("append bingo award failed")
	}
	metricBingoAwardsTotal.Add(1)
	log.Info().
		Str("session_id", sessionID).
		Str("participant_id", participantID).
		Int("award_number", n).
		Str("line_type", string(line.Type)).
		Int("line_index", line.Index).
		Int("slots_remaining", sess.BingoSlotsTotal-n).
		Msg("bingo awarded")

	p.publish(ctx, sessionID, func() (broadcast.Event, error) {
		return broadcast.NewBingoAchieved(final, award, sess.BingoSlotsTotal-n)
	})
	if bonusErr != nil {
		return &award, fmt.Errorf("apply bingo bonus: %w", bonusErr)
	}
	return &award, nil
}

// applyBonus credits a claimed slot. Write errors are retried a few times on
// top of the compare-and-swap retries. On failure it returns the participant
// as last read so the award can still be announced.
func (p *Processor) applyBonus(ctx context.Context, sessionID, participantID string, bonus int) (game.Participant, error) {
	var (
		final game.Participant
		err   error
	)
	for attempt := 0; attempt < bonusAttempts; attempt++ {
		_, err = p.mutateParticipant(ctx, sessionID, participantID, func(cur *game.Participant) bool {
			cur.BingosWon++
			cur.TotalXP += bonus
			final = *cur
			return true
		})
		if err == nil || isNotFound(err) {
			break
		}
	}
	if err != nil {
		if cur, loadErr := p.loadParticipant(ctx, sessionID, participantID); loadErr == nil {
			final = *cur
		} else {
			final.ID = participantID
		}
	}
	return final, err
}

// mutateParticipant applies fn under compare-and-swap, reloading on conflict.
// fn returns false to leave the participant untouched.
func (p *Processor) mutateParticipant(ctx context.Context, sessionID, participantID string, fn func(*game.Participant) bool) (bool, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := p.loadParticipant(ctx, sessionID, participantID)
		if err != nil {
			return false, err
		}
		next := *cur
		if !fn(&next) {
			return false, nil
		}
		if _, err := p.repo.UpdateParticipant(ctx, next); err != nil {
			if errors.Is(err, store.ErrConflict) {
				metricCASRetriesTotal.Add(1)
				continue
			}
			return false, err
		}
		return true, nil
	}
	return false, ErrTooManyConflicts
}
