package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/logger"
)

// ProgressService tracks resumable sessions: NONE -> IN_PROGRESS -> COMPLETED.
// Topics are limited to the catalog plus the rotating topics.
type ProgressService struct {
	store   ProgressStore
	catalog *domain.Catalog
	now     func() time.Time
	log     *logger.Logger
}

func NewProgressService(store ProgressStore, catalog *domain.Catalog, log *logger.Logger) *ProgressService {
	return NewProgressServiceWithClock(store, catalog, log, time.Now)
}

// NewProgressServiceWithClock allows deterministic timestamps in tests.
func NewProgressServiceWithClock(store ProgressStore, catalog *domain.Catalog, log *logger.Logger, now func() time.Time) *ProgressService {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	return &ProgressService{store: store, catalog: catalog, now: now, log: log.With("component", "progress")}
}

// SaveRequest mirrors the "save progress" request.
type SaveRequest struct {
	Key             domain.ProgressKey
	Keyword         string
	CurrentQuestion int
	Score           int
	IsFinal         bool
	QuizSets        domain.QuizSet
}

// Save creates the in-progress record on first call, freezing QuizSets into it, and updates it in place
// afterwards. A final save completes the record. Rotating topics (random, custom) are never ranked:
// their final save deletes the in-progress record instead, so the next game starts fresh.
// A custom topic requires a valid keyword.
func (s *ProgressService) Save(ctx context.Context, req SaveRequest) (domain.GameProgress, error) {
	if err := s.validateKey(req.Key); err != nil {
		return domain.GameProgress{}, err
	}
	if req.Key.Topic == domain.TopicCustom {
		kw, err := domain.ValidateKeyword(req.Keyword)
		if err != nil {
			return domain.GameProgress{}, err
		}
		req.Keyword = kw
	}
	if req.CurrentQuestion < 0 || req.Score < 0 {
		return domain.GameProgress{}, domain.Validationf("currentQuestion and score must not be negative")
	}

	now := s.now()
	rotating := domain.IsRotatingTopic(req.Key.Topic)

	rec, found, err := s.store.FindActive(ctx, req.Key)
	if err != nil {
		return domain.GameProgress{}, fmt.Errorf("%w: find: %w", domain.ErrPersistence, err)
	}
	if !found {
		var created bool
		rec, created, err = s.store.CreateActive(ctx, domain.GameProgress{
			UserID:          req.Key.UserID,
			Difficulty:      req.Key.Difficulty,
			Topic:           req.Key.Topic,
			Keyword:         strings.TrimSpace(req.Keyword),
			CurrentQuestion: req.CurrentQuestion,
			Score:           req.Score,
			QuizSets:        req.QuizSets,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return domain.GameProgress{}, fmt.Errorf("%w: create: %w", domain.ErrPersistence, err)
		}
		if created && !req.IsFinal {
			s.log.Debug("progress created", "user_id", req.Key.UserID, "topic", req.Key.Topic, "difficulty", req.Key.Difficulty)
			return rec, nil
		}
	}

	rec, found, err = s.store.UpdateActive(ctx, req.Key, domain.ProgressUpdate{
		CurrentQuestion: req.CurrentQuestion,
		Score:           req.Score,
		Complete:        req.IsFinal && !rotating,
		UpdatedAt:       now,
	})
	if err != nil {
		return domain.GameProgress{}, fmt.Errorf("%w: update: %w", domain.ErrPersistence, err)
	}
	if !found {
		return domain.GameProgress{}, fmt.Errorf("%w: in-progress record disappeared during save", domain.ErrPersistence)
	}

	if req.IsFinal && rotating {
		if _, err := s.store.DeleteActive(ctx, req.Key); err != nil {
			return domain.GameProgress{}, fmt.Errorf("%w: discard rotating: %w", domain.ErrPersistence, err)
		}
	}
	if rec.IsCompleted {
		s.log.Info("game completed", "user_id", req.Key.UserID, "topic", req.Key.Topic, "difficulty", req.Key.Difficulty, "score", rec.Score)
	}
	return rec, nil
}

// Load returns the resumable record and its frozen quiz snapshot, if any.
func (s *ProgressService) Load(ctx context.Context, key domain.ProgressKey) (domain.GameProgress, bool, error) {
	if err := s.validateKey(key); err != nil {
		return domain.GameProgress{}, false, err
	}
	rec, found, err := s.store.FindActive(ctx, key)
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("%w: load: %w", domain.ErrPersistence, err)
	}
	return rec, found, nil
}

// Delete removes the in-progress record; completed records are never touched.
func (s *ProgressService) Delete(ctx context.Context, key domain.ProgressKey) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}
	deleted, err := s.store.DeleteActive(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: delete: %w", domain.ErrPersistence, err)
	}
	return deleted, nil
}

func (s *ProgressService) validateKey(key domain.ProgressKey) error {
	if strings.TrimSpace(key.UserID) == "" {
		return domain.Validationf("user is required")
	}
	if _, err := domain.ParseDifficulty(string(key.Difficulty)); err != nil {
		return err
	}
	switch key.Topic {
	case "":
		return domain.Validationf("topic is required")
	case domain.TopicRandom, domain.TopicCustom:
		return nil
	}
	if _, ok := s.catalog.Lookup(key.Topic); !ok {
		return domain.Validationf("unknown topic %q", key.Topic)
	}
	return nil
}
