package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/infra/memory"
	"aiornot-quiz-service/internal/logger"
)

func newProgressService(store app.ProgressStore) *app.ProgressService {
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	return app.NewProgressServiceWithClock(store, domain.DefaultCatalog(), logger.Nop(), func() time.Time {
		now = now.Add(time.Second)
		return now
	})
}

func sampleQuiz() domain.QuizSet {
	return domain.QuizSet{
		{Images: []string{"https://refs.test/1.jpg", "https://cdn.test/generated/cat/a.png"}, CorrectAnswer: 1},
		{Images: []string{"https://cdn.test/generated/cat/b.png", "https://refs.test/2.jpg"}, CorrectAnswer: 0},
	}
}

func TestSaveUpdatesInPlaceThenCompletesOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	service := newProgressService(store)
	key := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: "cat"}

	first, err := service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 1, Score: 1, QuizSets: sampleQuiz()})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 2, Score: 1, QuizSets: domain.QuizSet{}})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected in-place update, got new record %s vs %s", second.ID, first.ID)
	}
	if second.CurrentQuestion != 2 || second.IsCompleted {
		t.Fatalf("unexpected record after second save: %+v", second)
	}
	if len(second.QuizSets) != 2 {
		t.Fatalf("quiz snapshot must be write-once, got %d questions", len(second.QuizSets))
	}
	if !second.UpdatedAt.After(second.CreatedAt) {
		t.Fatalf("expected updatedAt to advance")
	}

	final, err := service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 2, Score: 2, IsFinal: true})
	if err != nil {
		t.Fatalf("final save: %v", err)
	}
	if !final.IsCompleted || final.ID != first.ID || final.Score != 2 {
		t.Fatalf("expected completed record, got %+v", final)
	}
	if completed := store.Completed(key); len(completed) != 1 {
		t.Fatalf("expected exactly one completed record, got %d", len(completed))
	}
	if _, resumable, _ := service.Load(ctx, key); resumable {
		t.Fatalf("completed game must not be resumable")
	}
}

func TestLoadReturnsFrozenSnapshot(t *testing.T) {
	ctx := context.Background()
	service := newProgressService(memory.NewProgressStore())
	key := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyHard, Topic: "rose"}

	if _, err := service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 3, Score: 2, QuizSets: sampleQuiz()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, resumable, err := service.Load(ctx, key)
	if err != nil || !resumable {
		t.Fatalf("load: resumable=%v err=%v", resumable, err)
	}
	if rec.CurrentQuestion != 3 || len(rec.QuizSets) != 2 || rec.QuizSets[0].CorrectAnswer != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestFinalSaveOnRotatingTopicNeverCompletes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	service := newProgressService(store)
	key := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: domain.TopicRandom}

	if _, err := service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 1, Score: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, err := service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 10, Score: 8, IsFinal: true})
	if err != nil {
		t.Fatalf("final save: %v", err)
	}
	if rec.IsCompleted {
		t.Fatalf("rotating topic must not complete")
	}
	if len(store.Completed(key)) != 0 {
		t.Fatalf("rotating topic must not produce completed records")
	}
	if _, resumable, _ := service.Load(ctx, key); resumable {
		t.Fatalf("finished rotating game must not be resumable")
	}
}

func TestDeleteOnlyRemovesInProgress(t *testing.T) {
	ctx := context.Background()
	service := newProgressService(memory.NewProgressStore())
	key := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: "fruits"}

	if deleted, _ := service.Delete(ctx, key); deleted {
		t.Fatalf("nothing to delete yet")
	}
	_, _ = service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 1})
	if deleted, err := service.Delete(ctx, key); err != nil || !deleted {
		t.Fatalf("expected in-progress record deleted, err=%v", err)
	}

	_, _ = service.Save(ctx, app.SaveRequest{Key: key, CurrentQuestion: 10, Score: 10, IsFinal: true})
	if deleted, _ := service.Delete(ctx, key); deleted {
		t.Fatalf("completed record must survive delete")
	}
}

func TestSaveValidatesRequest(t *testing.T) {
	store := memory.NewProgressStore()
	service := newProgressService(store)
	ctx := context.Background()
	custom := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: domain.TopicCustom}

	cases := []app.SaveRequest{
		{Key: domain.ProgressKey{Difficulty: domain.DifficultyEasy, Topic: "cat"}},
		{Key: domain.ProgressKey{UserID: "u1", Difficulty: "medium", Topic: "cat"}},
		{Key: domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy}},
		{Key: domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: "cat"}, Score: -1},
		{Key: domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: "no-such-topic"}},
		{Key: custom},
		{Key: custom, Keyword: "   "},
		{Key: custom, Keyword: strings.Repeat("x", 51)},
	}
	for _, req := range cases {
		if _, err := service.Save(ctx, req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
	if _, found, _ := store.FindActive(ctx, custom); found {
		t.Fatalf("rejected custom save must not create a record")
	}

	unknown := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: "no-such-topic"}
	if _, _, err := service.Load(ctx, unknown); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error on load, got %v", err)
	}
	if _, err := service.Delete(ctx, unknown); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error on delete, got %v", err)
	}
}

func TestCustomSaveKeepsTrimmedKeyword(t *testing.T) {
	service := newProgressService(memory.NewProgressStore())
	key := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyHard, Topic: domain.TopicCustom}

	rec, err := service.Save(context.Background(), app.SaveRequest{Key: key, Keyword: "  red panda ", CurrentQuestion: 1, QuizSets: sampleQuiz()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.Keyword != "red panda" {
		t.Fatalf("expected trimmed keyword, got %q", rec.Keyword)
	}
}

type brokenProgressStore struct{ app.ProgressStore }

func (brokenProgressStore) FindActive(context.Context, domain.ProgressKey) (domain.GameProgress, bool, error) {
	return domain.GameProgress{}, false, errors.New("db down")
}

func TestSaveWrapsPersistenceErrors(t *testing.T) {
	service := newProgressService(brokenProgressStore{})
	key := domain.ProgressKey{UserID: "u1", Difficulty: domain.DifficultyEasy, Topic: "cat"}

	if _, err := service.Save(context.Background(), app.SaveRequest{Key: key}); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, _, err := service.Load(context.Background(), key); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error on load, got %v", err)
	}
}
