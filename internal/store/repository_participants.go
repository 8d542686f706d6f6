package store

import (
	"context"

	"career-bingo/internal/game"

	"github.com/jackc/pgx/v5/pgtype"
)

const participantColumns = `id, session_id, display_name, kind, difficulty, card, unlocked_mask,
	completed_rows, completed_cols, completed_diagonals, completed_corners,
	correct_count, incorrect_count, total_xp, current_streak, best_streak, bingos_won,
	left_session, version, created_at`

func scanParticipant(row rowScanner) (*game.Participant, error) {
	var p game.Participant
	var kind string
	var difficulty pgtype.Text
	var card []string
	var unlocked int32
	var rows, cols, diags int16
	if err := row.Scan(&p.ID, &p.SessionID, &p.DisplayName, &kind, &difficulty, &card, &unlocked,
		&rows, &cols, &diags, &p.Completed.Corners,
		&p.CorrectCount, &p.IncorrectCnt, &p.TotalXP, &p.CurrentStreak, &p.BestStreak, &p.BingosWon,
		&p.Left, &p.Version, &p.CreatedAt); err != nil {
		return nil, err
	}
	c, err := game.CardFromSlice(card)
	if err != nil {
		return nil, err
	}
	p.Kind = game.ParticipantKind(kind)
	p.Difficulty = game.Difficulty(textVal(difficulty))
	p.Card = c
	p.Unlocked = game.CellSet(unlocked)
	p.Completed.Rows = uint8(rows)
	p.Completed.Cols = uint8(cols)
	p.Completed.Diagonals = uint8(diags)
	return &p, nil
}

func (s *Store) CreateParticipant(ctx context.Context, p game.Participant) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO session_participants (id, session_id, display_name, kind, difficulty, card, unlocked_mask)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.SessionID, p.DisplayName, string(p.Kind), textParam(string(p.Difficulty)), p.Card.Slice(), int32(p.Unlocked))
	return mapWriteErr(err)
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*game.Participant, error) {
	p, err := scanParticipant(s.Pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM session_participants WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]game.Participant, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+participantColumns+` FROM session_participants WHERE session_id = $1 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateParticipant writes p only if the stored version still equals
// p.Version; the returned participant carries the bumped version.
func (s *Store) UpdateParticipant(ctx context.Context, p game.Participant) (game.Participant, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE session_participants SET
			unlocked_mask = $3,
			completed_rows = $4,
			completed_cols = $5,
			completed_diagonals = $6,
			completed_corners = $7,
			correct_count = $8,
			incorrect_count = $9,
			total_xp = $10,
			current_streak = $11,
			best_streak = $12,
			bingos_won = $13,
			left_session = $14,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		p.ID, p.Version, int32(p.Unlocked),
		int16(p.Completed.Rows), int16(p.Completed.Cols), int16(p.Completed.Diagonals), p.Completed.Corners,
		p.CorrectCount, p.IncorrectCnt, p.TotalXP, p.CurrentStreak, p.BestStreak, p.BingosWon, p.Left)
	if err != nil {
		return p, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetParticipant(ctx, p.ID); err != nil {
			return p, err
		}
		return p, ErrConflict
	}
	p.Version++
	return p, nil
}
