package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aiornot-quiz-service/internal/domain"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_progress (
    id               TEXT PRIMARY KEY,
    user_id          TEXT    NOT NULL,
    difficulty       TEXT    NOT NULL,
    topic            TEXT    NOT NULL,
    keyword          TEXT    NOT NULL DEFAULT '',
    current_question INTEGER NOT NULL DEFAULT 0,
    score            INTEGER NOT NULL DEFAULT 0,
    is_completed     INTEGER NOT NULL DEFAULT 0,
    quiz_sets        TEXT    NOT NULL DEFAULT '[]',
    created_at       TEXT    NOT NULL,
    updated_at       TEXT    NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS game_progress_active_uq
    ON game_progress (user_id, difficulty, topic)
    WHERE is_completed = 0;
`

const progressColumns = `id, user_id, difficulty, topic, keyword, current_question, score, is_completed, quiz_sets, created_at, updated_at`

// ProgressStore is a single-file progress store for local and single-node deployments.
type ProgressStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*ProgressStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &ProgressStore{db: db}, nil
}

func (s *ProgressStore) Close() error {
	return s.db.Close()
}

func (s *ProgressStore) FindActive(ctx context.Context, key domain.ProgressKey) (domain.GameProgress, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM game_progress
		 WHERE user_id=? AND difficulty=? AND topic=? AND is_completed=0`,
		key.UserID, string(key.Difficulty), key.Topic)
	rec, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
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
	if p.QuizSets == nil {
		p.QuizSets = domain.QuizSet{}
	}
	quiz, err := json.Marshal(p.QuizSets)
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("marshal quiz sets: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_progress (`+progressColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
		 ON CONFLICT (user_id, difficulty, topic) WHERE is_completed = 0 DO NOTHING`,
		p.ID, p.UserID, string(p.Difficulty), p.Topic, p.Keyword, p.CurrentQuestion, p.Score, string(quiz),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("insert progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return p, true, nil
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
	row := s.db.QueryRowContext(ctx,
		`UPDATE game_progress
		 SET current_question=?, score=?, updated_at=?, is_completed=?
		 WHERE user_id=? AND difficulty=? AND topic=? AND is_completed=0
		 RETURNING `+progressColumns,
		u.CurrentQuestion, u.Score, formatTime(u.UpdatedAt), u.Complete,
		key.UserID, string(key.Difficulty), key.Topic)
	rec, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameProgress{}, false, nil
	}
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("update progress: %w", err)
	}
	return rec, true, nil
}

func (s *ProgressStore) DeleteActive(ctx context.Context, key domain.ProgressKey) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM game_progress WHERE user_id=? AND difficulty=? AND topic=? AND is_completed=0`,
		key.UserID, string(key.Difficulty), key.Topic)
	if err != nil {
		return false, fmt.Errorf("delete progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete progress: %w", err)
	}
	return n > 0, nil
}

// Completed returns completed records for a key, oldest first.
func (s *ProgressStore) Completed(ctx context.Context, key domain.ProgressKey) ([]domain.GameProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM game_progress
		 WHERE user_id=? AND difficulty=? AND topic=? AND is_completed=1
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

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(row scanner) (domain.GameProgress, error) {
	var (
		rec                  domain.GameProgress
		difficulty, quiz     string
		createdAt, updatedAt string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &difficulty, &rec.Topic, &rec.Keyword, &rec.CurrentQuestion, &rec.Score,
		&rec.IsCompleted, &quiz, &createdAt, &updatedAt)
	if err != nil {
		return domain.GameProgress{}, err
	}
	rec.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(quiz), &rec.QuizSets); err != nil {
		return domain.GameProgress{}, fmt.Errorf("unmarshal quiz sets: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.GameProgress{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.GameProgress{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
