package store

import (
	"context"

	"career-bingo/internal/game"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) CreateQuestion(ctx context.Context, q game.Question) (string, error) {
	if q.ID == "" {
		q.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO questions (id, text, category, difficulty, topic, times_shown, times_correct)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.Text, q.Category, textParam(q.Difficulty), textParam(q.Topic), q.TimesShown, q.TimesCorrect)
	return q.ID, err
}

// ListQuestions returns every question whose category is in categories, or
// all questions when categories is empty.
func (s *Store) ListQuestions(ctx context.Context, categories []string) ([]game.Question, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, text, category, difficulty, topic, times_shown, times_correct, created_at
		FROM questions
		WHERE cardinality($1::text[]) = 0 OR category = ANY($1::text[])
		ORDER BY category ASC, id ASC`, nonNilStrings(categories))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Question{}
	for rows.Next() {
		var q game.Question
		var difficulty, topic pgtype.Text
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &difficulty, &topic, &q.TimesShown, &q.TimesCorrect, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Difficulty = textVal(difficulty)
		q.Topic = textVal(topic)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM questions`).Scan(&n)
	return n, err
}

func (s *Store) MarkQuestionShown(ctx context.Context, id string) error {
	return s.bumpQuestion(ctx, `UPDATE questions SET times_shown = times_shown + 1 WHERE id = $1`, id)
}

func (s *Store) MarkQuestionCorrect(ctx context.Context, id string) error {
	return s.bumpQuestion(ctx, `UPDATE questions SET times_correct = times_correct + 1 WHERE id = $1`, id)
}

func (s *Store) bumpQuestion(ctx context.Context, sql, id string) error {
	tag, err := s.Pool.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
