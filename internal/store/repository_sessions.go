package store

import (
	"context"
	"errors"

	"career-bingo/internal/game"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, room_id, game_number, status, total_questions, current_question_index, questions_asked,
	bingo_slots_total, bingo_slots_remaining, started_at, completed_at, created_at`

func scanSession(row rowScanner) (*game.Session, error) {
	var sess game.Session
	var status string
	var started, completed pgtype.Timestamptz
	if err := row.Scan(&sess.ID, &sess.RoomID, &sess.GameNumber, &status, &sess.TotalQuestions, &sess.CurrentQuestionIndex,
		&sess.QuestionsAsked, &sess.BingoSlotsTotal, &sess.BingoSlotsRemaining, &started, &completed, &sess.CreatedAt); err != nil {
		return nil, err
	}
	sess.Status = game.SessionStatus(status)
	sess.StartedAt = timePtrVal(started)
	sess.CompletedAt = timePtrVal(completed)
	return &sess, nil
}

// CreateSession opens a pending session; the game number is the next ordinal
// within the room.
func (s *Store) CreateSession(ctx context.Context, roomID string, totalQuestions, bingoSlots int) (*game.Session, error) {
	id := NewID()
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO game_sessions (id, room_id, game_number, status, total_questions, bingo_slots_total, bingo_slots_remaining)
		SELECT $1, $2, COALESCE(MAX(game_number), 0) + 1, 'pending', $3, $4, $4
		FROM game_sessions WHERE room_id = $2
		RETURNING `+sessionColumns,
		id, roomID, totalQuestions, bingoSlots)
	sess, err := scanSession(row)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*game.Session, error) {
	sess, err := scanSession(s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sess, nil
}

func (s *Store) MarkSessionActive(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions SET status = 'active', started_at = COALESCE(started_at, now())
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.sessionExists(ctx, id)
	}
	return nil
}

// MarkSessionCompleted reports whether this call performed the transition.
func (s *Store) MarkSessionCompleted(ctx context.Context, id string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions SET status = 'completed', completed_at = now()
		WHERE id = $1 AND status <> 'completed'`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, s.sessionExists(ctx, id)
	}
	return true, nil
}

func (s *Store) RecordQuestionAsked(ctx context.Context, sessionID, questionID string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions SET questions_asked = array_append(questions_asked, $2)
		WHERE id = $1 AND NOT ($2 = ANY(questions_asked))`, sessionID, questionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if err := s.sessionExists(ctx, sessionID); err != nil {
			return err
		}
		return ErrDuplicate
	}
	return nil
}

func (s *Store) AdvanceQuestion(ctx context.Context, sessionID string) (int, error) {
	var idx int
	err := s.Pool.QueryRow(ctx, `
		UPDATE game_sessions SET current_question_index = current_question_index + 1
		WHERE id = $1 RETURNING current_question_index`, sessionID).Scan(&idx)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return idx, nil
}

// ClaimBingoSlot atomically consumes one slot and returns its award number.
func (s *Store) ClaimBingoSlot(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		UPDATE game_sessions SET bingo_slots_remaining = bingo_slots_remaining - 1
		WHERE id = $1 AND bingo_slots_remaining > 0
		RETURNING bingo_slots_total - bingo_slots_remaining`, sessionID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := s.sessionExists(ctx, sessionID); err != nil {
			return 0, err
		}
		return 0, ErrSlotsExhausted
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) sessionExists(ctx context.Context, id string) error {
	var one int
	err := s.Pool.QueryRow(ctx, `SELECT 1 FROM game_sessions WHERE id = $1`, id).Scan(&one)
	return mapNotFound(err)
}
