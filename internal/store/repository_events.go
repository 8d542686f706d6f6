package store

import (
	"context"

	"career-bingo/internal/game"
)

func (s *Store) AppendClick(ctx context.Context, ev game.ClickEvent) error {
	if ev.ID == "" {
		ev.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO click_events (id, session_id, participant_id, question_index, cell_row, cell_col,
			clicked_category, target_category, correct, response_ms, unlocked, source)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		ev.ID, ev.SessionID, ev.ParticipantID, ev.QuestionIndex, ev.Cell.Row, ev.Cell.Col,
		ev.ClickedCategory, ev.TargetCategory, ev.Correct, durationMS(ev.ResponseTime), ev.Unlocked, string(ev.Source))
	return mapWriteErr(err)
}

func (s *Store) ListClicks(ctx context.Context, sessionID string) ([]game.ClickEvent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_id, participant_id, question_index, cell_row, cell_col, clicked_category,
			target_category, correct, response_ms, unlocked, source, created_at
		FROM click_events WHERE session_id = $1 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.ClickEvent{}
	for rows.Next() {
		var ev game.ClickEvent
		var responseMS int64
		var source string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.ParticipantID, &ev.QuestionIndex, &ev.Cell.Row, &ev.Cell.Col,
			&ev.ClickedCategory, &ev.TargetCategory, &ev.Correct, &responseMS, &ev.Unlocked, &source, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.ResponseTime = msDuration(responseMS)
		ev.Source = game.ClickSource(source)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) AppendAward(ctx context.Context, a game.BingoAward) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO bingo_awards (id, session_id, participant_id, award_number, line_type, line_index, question_index, bonus_xp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.SessionID, a.ParticipantID, a.AwardNumber, string(a.Line.Type), a.Line.Index, a.QuestionIndex, a.BonusXP)
	return mapWriteErr(err)
}

func (s *Store) ListAwards(ctx context.Context, sessionID string) ([]game.BingoAward, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_id, participant_id, award_number, line_type, line_index, question_index, bonus_xp, created_at
		FROM bingo_awards WHERE session_id = $1 ORDER BY award_number ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.BingoAward{}
	for rows.Next() {
		var a game.BingoAward
		var lineType string
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ParticipantID, &a.AwardNumber, &lineType, &a.Line.Index, &a.QuestionIndex, &a.BonusXP, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Line.Type = game.LineType(lineType)
		out = append(out, a)
	}
	return out, rows.Err()
}
