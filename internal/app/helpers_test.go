package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/infra/memory"
	"aiornot-quiz-service/internal/logger"
)

// scriptedGenerator returns one PNG per call unless the prompt is scripted to fail.
type scriptedGenerator struct {
	failFirst  map[string]bool // fail only the first attempt for the prompt
	failAlways map[string]bool
	errOnFail  bool
	delay      time.Duration

	mu       sync.Mutex
	attempts map[string]int
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		failFirst:  map[string]bool{},
		failAlways: map[string]bool{},
		attempts:   map[string]int{},
	}
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) ([]domain.Image, error) {
	g.calls.Add(1)
	cur := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		peak := g.peak.Load()
		if cur <= peak || g.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	g.mu.Lock()
	g.attempts[prompt]++
	attempt := g.attempts[prompt]
	g.mu.Unlock()

	if g.failAlways[prompt] || (g.failFirst[prompt] && attempt == 1) {
		if g.errOnFail {
			return nil, errors.New("service unavailable")
		}
		return nil, nil
	}
	return []domain.Image{{Data: []byte("png-bytes"), MimeType: "image/png"}}, nil
}

func (g *scriptedGenerator) Calls() int { return int(g.calls.Load()) }

// stubReferences returns up to perPage distinct URLs out of available.
type stubReferences struct {
	available int
	err       error
	calls     atomic.Int64
}

func (s *stubReferences) Search(_ context.Context, query string, perPage int) ([]string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	n := min(perPage, s.available)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("https://refs.test/%s/%d.jpg", query, i))
	}
	return out, nil
}

// failingStore simulates an unreachable object store.
type failingStore struct {
	lists atomic.Int64
}

func (s *failingStore) List(context.Context, string) ([]string, error) {
	s.lists.Add(1)
	return nil, errors.New("connection refused")
}
func (s *failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("connection refused")
}
func (s *failingStore) PublicURL(key string) string { return key }

func catalogPrompts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Photorealistic test prompt number %d", i)
	}
	return out
}

func testCatalog(prompts int) *domain.Catalog {
	return domain.NewCatalog(domain.Topic{Name: "cat", SearchTerm: "cat", Prompts: catalogPrompts(prompts)})
}

type harness struct {
	store   *memory.ObjectStore
	gen     *scriptedGenerator
	refs    *stubReferences
	service *app.GameService
}

func newHarness(prompts, maxWorkers int, cfg app.GameConfig) *harness {
	log := logger.Nop()
	store := memory.NewObjectStore("https://cdn.test")
	gen := newScriptedGenerator()
	refs := &stubReferences{available: 200}
	service := app.NewGameService(app.GameDeps{
		Catalog:    testCatalog(prompts),
		Resolver:   app.NewResolver(store, log),
		Filler:     app.NewFiller(gen, store, app.FillConfig{MaxWorkers: maxWorkers, TaskTimeout: time.Second}, rand.New(rand.NewSource(1)), log),
		References: refs,
		Assembler:  app.NewAssembler(rand.New(rand.NewSource(2))),
		Rand:       rand.New(rand.NewSource(3)),
		Log:        log,
	}, cfg)
	return &harness{store: store, gen: gen, refs: refs, service: service}
}

func nopLog() *logger.Logger { return logger.Nop() }
