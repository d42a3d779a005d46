package http

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/infra/memory"
	"aiornot-quiz-service/internal/logger"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type stubGenerator struct {
	calls atomic.Int64
}

func (g *stubGenerator) Generate(context.Context, string) ([]domain.Image, error) {
	g.calls.Add(1)
	return []domain.Image{{Data: []byte("png"), MimeType: "image/png"}}, nil
}

type stubReferences struct {
	mu        sync.Mutex
	available int
	err       error
}

func (s *stubReferences) set(available int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available, s.err = available, err
}

func (s *stubReferences) Search(_ context.Context, query string, perPage int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	n := min(perPage, s.available)
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://refs.test/%s/%d.jpg", query, i)
	}
	return out, nil
}

type fixture struct {
	server  *httptest.Server
	gen     *stubGenerator
	refs    *stubReferences
	revoked *memory.RevocationStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	store := memory.NewObjectStore("https://cdn.test")
	gen := &stubGenerator{}
	refs := &stubReferences{available: 200}
	prompts := make([]string, 10)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("Photorealistic cat number %d", i)
	}
	catalog := domain.NewCatalog(domain.Topic{Name: "cat", SearchTerm: "cat", Prompts: prompts})
	games := app.NewGameService(app.GameDeps{
		Catalog:    catalog,
		Resolver:   app.NewResolver(store, log),
		Filler:     app.NewFiller(gen, store, app.FillConfig{MaxWorkers: 4, TaskTimeout: time.Second}, rand.New(rand.NewSource(1)), log),
		References: refs,
		Assembler:  app.NewAssembler(rand.New(rand.NewSource(2))),
		Rand:       rand.New(rand.NewSource(3)),
		Log:        log,
	}, app.DefaultGameConfig())
	progress := app.NewProgressService(memory.NewProgressStore(), catalog, log)
	revoked := memory.NewRevocationStore()
	auth := NewAuthenticator(testSecret, revoked)

	mux := http.NewServeMux()
	NewHandler(games, progress, auth, log).Register(mux)
	mux.HandleFunc("GET /ws/prepare", NewWSHandler(games, auth, log).ServePrepare)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &fixture{server: server, gen: gen, refs: refs, revoked: revoked}
}

func signToken(t *testing.T, secret, subject, jti string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

var errRefsDown = &domain.UpstreamError{Service: "pixabay", Status: 503, Err: errors.New("down")}
