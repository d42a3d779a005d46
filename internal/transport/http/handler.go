package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/logger"
)

// Handler exposes the game and progress use cases over JSON.
type Handler struct {
	games    *app.GameService
	progress *app.ProgressService
	auth     *Authenticator
	log      *logger.Logger
}

func NewHandler(games *app.GameService, progress *app.ProgressService, auth *Authenticator, log *logger.Logger) *Handler {
	return &Handler{games: games, progress: progress, auth: auth, log: log.With("component", "http")}
}

// Register mounts the REST routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/games/prepare", h.auth.Middleware(h.prepare))
	mux.HandleFunc("POST /api/progress", h.auth.Middleware(h.saveProgress))
	mux.HandleFunc("GET /api/progress", h.auth.Middleware(h.loadProgress))
	mux.HandleFunc("DELETE /api/progress", h.auth.Middleware(h.deleteProgress))
	mux.HandleFunc("POST /auth/logout", h.auth.Middleware(h.logout))
}

type prepareBody struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Keyword    string `json:"keyword"`
}

func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) {
	var body prepareBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	game, err := h.games.Prepare(r.Context(), app.PrepareRequest{
		Topic:      body.Topic,
		Difficulty: body.Difficulty,
		Keyword:    body.Keyword,
	}, nil)
	if err != nil {
		h.logFailure(r, "prepare failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

type saveBody struct {
	CurrentQuestion int            `json:"currentQuestion"`
	Score           int            `json:"score"`
	Difficulty      string         `json:"difficulty"`
	Topic           string         `json:"topic"`
	Keyword         string         `json:"keyword"`
	IsFinal         bool           `json:"isFinal"`
	QuizSets        domain.QuizSet `json:"quizSets"`
}

func (h *Handler) saveProgress(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var body saveBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.progress.Save(r.Context(), app.SaveRequest{
		Key:             domain.ProgressKey{UserID: id.UserID, Difficulty: domain.Difficulty(body.Difficulty), Topic: body.Topic},
		Keyword:         body.Keyword,
		CurrentQuestion: body.CurrentQuestion,
		Score:           body.Score,
		IsFinal:         body.IsFinal,
		QuizSets:        body.QuizSets,
	})
	if err != nil {
		h.logFailure(r, "save progress failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type loadResponse struct {
	Resumable bool                 `json:"resumable"`
	Progress  *domain.GameProgress `json:"progress,omitempty"`
}

func (h *Handler) loadProgress(w http.ResponseWriter, r *http.Request) {
	rec, found, err := h.progress.Load(r.Context(), progressKey(r))
	if err != nil {
		h.logFailure(r, "load progress failed", err)
		writeError(w, err)
		return
	}
	resp := loadResponse{Resumable: found}
	if found {
		resp.Progress = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteProgress(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.progress.Delete(r.Context(), progressKey(r))
	if err != nil {
		h.logFailure(r, "delete progress failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, errNoIdentity)
		return
	}
	if err := h.auth.Revoke(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func progressKey(r *http.Request) domain.ProgressKey {
	id, _ := identityFrom(r.Context())
	q := r.URL.Query()
	return domain.ProgressKey{
		UserID:     id.UserID,
		Difficulty: domain.Difficulty(strings.TrimSpace(q.Get("difficulty"))),
		Topic:      strings.TrimSpace(q.Get("topic")),
	}
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	if status, _ := statusFor(err); status >= http.StatusInternalServerError {
		h.log.Error(msg, "path", r.URL.Path, "error", err)
		return
	}
	h.log.Debug(msg, "path", r.URL.Path, "error", err)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 4<<20))
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf("malformed JSON body: %v", err)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
}

// statusFor maps error kinds to HTTP status codes and a client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrInsufficientAssets):
		return http.StatusServiceUnavailable, "service degraded, try a different topic"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeJSON(w, status, errorBody{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
