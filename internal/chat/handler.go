// AngelaMos | 2026
// handler.go

package chat

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bandmate/backend/internal/config"
	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/middleware"
)

// inboundFrame is what clients send after the handshake.
type inboundFrame struct {
	RecipientID int64  `json:"recipient_id"`
	Message     string `json:"message"`
}

type Handler struct {
	engine   *Engine
	registry *Registry
	repo     Repository
	verifier middleware.TokenVerifier
	cfg      config.ChatConfig
	upgrader websocket.Upgrader
}

func NewHandler(
	engine *Engine,
	registry *Registry,
	repo Repository,
	verifier middleware.TokenVerifier,
	cfg config.ChatConfig,
	checkOrigin func(*http.Request) bool,
) *Handler {
	return &Handler{
		engine:   engine,
		registry: registry,
		repo:     repo,
		verifier: verifier,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/ws", h.ServeWS)
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/messages/{userID}", h.History)
	})
}

// ServeWS upgrades the connection and authenticates it from the first text
// frame, which must carry a bearer token. The HTTP handshake itself is
// unauthenticated; a connection that fails the token check is closed without
// an error frame.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade rejected", "error", err)
		return
	}

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	userID, ok := h.authenticate(r, conn)
	if !ok {
		//nolint:errcheck // closing an unauthenticated connection
		_ = conn.Close()
		return
	}

	wrapped := newWSConn(conn, h.cfg.WriteTimeout)
	h.registry.Register(userID, wrapped)
	slog.Info("chat session opened", "user_id", userID)

	defer func() {
		h.registry.Deregister(userID, wrapped)
		//nolint:errcheck // session teardown
		_ = wrapped.Close()
		slog.Info("chat session closed", "user_id", userID)
	}()

	h.readLoop(r, conn, wrapped, userID)
}

func (h *Handler) authenticate(
	r *http.Request,
	conn *websocket.Conn,
) (int64, bool) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return 0, false
	}

	token := strings.TrimSpace(string(data))
	token = strings.TrimPrefix(token, "Bearer ")

	userID, err := h.verifier.VerifyAccessToken(r.Context(), token)
	if err != nil {
		slog.Debug("chat session auth failed", "error", err)
		return 0, false
	}

	return userID, true
}

func (h *Handler) readLoop(
	r *http.Request,
	conn *websocket.Conn,
	wrapped Conn,
	userID int64,
) {
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
			) {
				slog.Warn("chat session read error",
					"user_id", userID,
					"error", err,
				)
			}
			return
		}

		if frame.RecipientID <= 0 || frame.Message == "" {
			continue
		}

		_, err := h.engine.Deliver(
			r.Context(),
			userID,
			frame.RecipientID,
			frame.Message,
			wrapped,
		)
		if err != nil {
			slog.Error("message delivery failed",
				"sender_id", userID,
				"recipient_id", frame.RecipientID,
				"error", err,
			)
		}
	}
}

type HistoryResponse struct {
	Messages []Envelope `json:"messages"`
}

// History returns the full conversation between the caller and another user,
// oldest first, and marks the other party's messages as read.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	otherID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || otherID <= 0 {
		core.BadRequest(w, "invalid user ID")
		return
	}

	messages, err := h.repo.ListConversation(r.Context(), userID, otherID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if err := h.repo.MarkConversationRead(r.Context(), userID, otherID); err != nil {
		slog.Warn("mark conversation read failed",
			"user_id", userID,
			"sender_id", otherID,
			"error", err,
		)
	}

	resp := HistoryResponse{Messages: make([]Envelope, 0, len(messages))}
	for i := range messages {
		resp.Messages = append(resp.Messages, messages[i].Envelope())
	}

	core.OK(w, resp)
}
