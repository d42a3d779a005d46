package app

import (
	"math/rand"
	"sync"
	"time"

	"aiornot-quiz-service/internal/domain"
)

// Assembler turns the synthetic and reference pools into a quiz set.
type Assembler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewAssembler uses rnd for every draw; pass a seeded source for reproducible quizzes.
func NewAssembler(rnd *rand.Rand) *Assembler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Assembler{rnd: rnd}
}

// Assemble builds min(questionCount, len(pool)) questions. Each question holds one synthetic image and
// imagesPerQuestion-1 decoys in uniformly random order. No synthetic image and no decoy URL is used twice
// anywhere in the set.
func (a *Assembler) Assemble(pool []domain.GeneratedAssetRef, references []string, imagesPerQuestion, questionCount int) (domain.QuizSet, error) {
	if imagesPerQuestion < 2 {
		return nil, domain.Validationf("images per question must be at least 2, got %d", imagesPerQuestion)
	}
	if questionCount < 1 {
		return nil, domain.Validationf("question count must be positive, got %d", questionCount)
	}

	synthetic := domain.NewAssetPool(pool...).Refs()
	decoyPool := uniqueURLs(references)
	if len(synthetic) < 1 {
		return nil, &domain.InsufficientAssetsError{Reason: "no synthetic images", Have: 0, Need: 1}
	}

	n := min(questionCount, len(synthetic))
	decoys := imagesPerQuestion - 1
	if need := decoys * n; len(decoyPool) < need {
		return nil, &domain.InsufficientAssetsError{Reason: "reference pool too small", Have: len(decoyPool), Need: need}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	synthOrder := a.rnd.Perm(len(synthetic))[:n]
	decoyOrder := a.rnd.Perm(len(decoyPool))[:decoys*n]

	quiz := make(domain.QuizSet, 0, n)
	for i := 0; i < n; i++ {
		src := make([]string, 0, imagesPerQuestion)
		src = append(src, synthetic[synthOrder[i]].URL)
		for _, j := range decoyOrder[i*decoys : (i+1)*decoys] {
			src = append(src, decoyPool[j])
		}

		// src[k] lands at perm[k]; src[0] is the synthetic image.
		perm := a.rnd.Perm(imagesPerQuestion)
		images := make([]string, imagesPerQuestion)
		for k, pos := range perm {
			images[pos] = src[k]
		}
		quiz = append(quiz, domain.QuizQuestion{Images: images, CorrectAnswer: perm[0]})
	}
	return quiz, nil
}

func uniqueURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
