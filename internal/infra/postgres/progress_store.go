package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aiornot-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const progressColumns = `id, user_id, difficulty, topic, keyword, current_question, score, is_completed, quiz_sets, created_at, updated_at`

// ProgressStore persists game progress in the game_progress table. A partial unique index keeps at
// most one in-progress row per (user, difficulty, topic).
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) FindActive(ctx context.Context, key domain.ProgressKey) (domain.GameProgress, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM game_progress
		 WHERE user_id=$1 AND difficulty=$2 AND topic=$3 AND NOT is_completed`,
		key.UserID, string(key.Difficulty), key.Topic)
	rec, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameProgress{}, false, nil
	}
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("find progress: %w", err)
	}
	return rec, true, nil
}

func (s *ProgressStore) CreateActive(ctx context.Context, p domain.GameProgress) (domain.GameProgress, bool, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsCompleted = false
	quiz, err := json.Marshal(nonNil(p.QuizSets))
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("marshal quiz sets: %w", err)
	}
	var id string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO game_progress (`+progressColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10)
		 ON CONFLICT (user_id, difficulty, topic) WHERE NOT is_completed DO NOTHING
		 RETURNING id`,
		p.ID, p.UserID, string(p.Difficulty), p.Topic, p.Keyword, p.CurrentQuestion, p.Score, quiz, p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.GameProgress{}, false, fmt.Errorf("insert progress: %w", err)
	}
	existing, found, err := s.FindActive(ctx, p.Key())
	if err != nil {
		return domain.GameProgress{}, false, err
	}
	if !found {
		return domain.GameProgress{}, false, fmt.Errorf("insert progress: conflicting row vanished")
	}
	return existing, false, nil
}

func (s *ProgressStore) UpdateActive(ctx context.Context, key domain.ProgressKey, u domain.ProgressUpdate) (domain.GameProgress, bool, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE game_progress
		 SET current_question=$4, score=$5, updated_at=$6, is_completed=$7
		 WHERE user_id=$1 AND difficulty=$2 AND topic=$3 AND NOT is_completed
		 RETURNING `+progressColumns,
		key.UserID, string(key.Difficulty), key.Topic, u.CurrentQuestion, u.Score, u.UpdatedAt, u.Complete)
	rec, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameProgress{}, false, nil
	}
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("update progress: %w", err)
	}
	return rec, true, nil
}

func (s *ProgressStore) DeleteActive(ctx context.Context, key domain.ProgressKey) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM game_progress WHERE user_id=$1 AND difficulty=$2 AND topic=$3 AND NOT is_completed`,
		key.UserID, string(key.Difficulty), key.Topic)
	if err != nil {
		return false, fmt.Errorf("delete progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Completed returns completed records for a key, oldest first.
func (s *ProgressStore) Completed(ctx context.Context, key domain.ProgressKey) ([]domain.GameProgress, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+progressColumns+` FROM game_progress
		 WHERE user_id=$1 AND difficulty=$2 AND topic=$3 AND is_completed
		 ORDER BY updated_at`,
		key.UserID, string(key.Difficulty), key.Topic)
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	defer rows.Close()
	var out []domain.GameProgress
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completed: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanProgress(row pgx.Row) (domain.GameProgress, error) {
	var (
		rec        domain.GameProgress
		difficulty string
		quiz       []byte
	)
	err := row.Scan(&rec.ID, &rec.UserID, &difficulty, &rec.Topic, &rec.Keyword, &rec.CurrentQuestion, &rec.Score,
		&rec.IsCompleted, &quiz, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.GameProgress{}, err
	}
	rec.Difficulty = domain.Difficulty(difficulty)
	if len(quiz) > 0 {
		if err := json.Unmarshal(quiz, &rec.QuizSets); err != nil {
			return domain.GameProgress{}, fmt.Errorf("unmarshal quiz sets: %w", err)
		}
	}
	return rec, nil
}

func nonNil(q domain.QuizSet) domain.QuizSet {
	if q == nil {
		return domain.QuizSet{}
	}
	return q
}
