package http

import (
	"context"
	"net/http"
	"time"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/logger"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WSHandler streams game preparation progress over a websocket and finishes with the quiz.
type WSHandler struct {
	games    *app.GameService
	auth     *Authenticator
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService, auth *Authenticator, log *logger.Logger) *WSHandler {
	return &WSHandler{
		games: games,
		auth:  auth,
		log:   log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type prepareOutcome struct {
	game app.PreparedGame
	err  error
}

// ServePrepare handles /ws/prepare?topic=&difficulty=&keyword=&token=.
func (h *WSHandler) ServePrepare(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.Authenticate(r.Context(), tokenFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	req := app.PrepareRequest{Topic: q.Get("topic"), Difficulty: q.Get("difficulty"), Keyword: q.Get("keyword")}
	if _, _, err := h.games.ResolveTopic(req); err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	stream := app.NewEventStream(32)
	done := make(chan prepareOutcome, 1)
	go func() {
		game, err := h.games.Prepare(ctx, req, stream.Publish)
		stream.Close()
		done <- prepareOutcome{game: game, err: err}
	}()

	writeFailed := false
	for ev := range stream.Events() {
		if writeFailed {
			continue
		}
		if err := h.write(conn, outboundMessage[app.ProgressEvent]{Type: "progress", Payload: ev}); err != nil {
			h.log.Debug("ws write failed", "error", err)
			writeFailed = true
			cancel()
		}
	}
	res := <-done
	if writeFailed {
		return
	}

	if res.err != nil {
		status, msg := statusFor(res.err)
		if status >= http.StatusInternalServerError {
			h.log.Error("prepare failed", "topic", req.Topic, "difficulty", req.Difficulty, "error", res.err)
		}
		_ = h.write(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Status: status, Message: msg}})
	} else {
		_ = h.write(conn, outboundMessage[app.PreparedGame]{Type: "quiz", Payload: res.game})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *WSHandler) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
