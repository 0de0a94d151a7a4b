// Package ws serves job notifications to browsers over WebSocket.
package ws

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cuongbtq/chauffer-be/internal/realtime"
	"github.com/cuongbtq/chauffer-be/internal/session"
)

// Subscriber is the part of the realtime listener a socket drives
type Subscriber interface {
	Controls
	Subscribe(sess *session.Session, owner string) error
	Unsubscribe(userID, owner string)
}

var _ Subscriber = (*realtime.Listener)(nil)

// Handler upgrades authenticated requests and ties each socket to its user's subscription
type Handler struct {
	hub        *Hub
	auth       *session.Authenticator
	sessions   *session.Store
	subscriber Subscriber
	upgrader   websocket.Upgrader
	opts       Options
	logger     *slog.Logger
}

func NewHandler(
	hub *Hub,
	auth *session.Authenticator,
	sessions *session.Store,
	subscriber Subscriber,
	allowedOrigins []string,
	opts Options,
	logger *slog.Logger,
) *Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowedOrigins) > 0 {
		upgrader.CheckOrigin = originChecker(allowedOrigins)
	}

	return &Handler{
		hub:        hub,
		auth:       auth,
		sessions:   sessions,
		subscriber: subscriber,
		upgrader:   upgrader,
		opts:       opts,
		logger:     logger.With(slog.String("component", "ws_handler")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// HandleConnection serves GET /api/v1/realtime?token=...
func (h *Handler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
	}

	identity, err := h.auth.Verify(token)
	if err != nil {
		h.logger.Warn("Rejected realtime connection", slog.Any("error", err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":       err.Error(),
			"title":       "Authentication Required",
			"description": "Please sign in to receive job updates",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", slog.Any("error", err))
		return
	}

	sess := h.sessions.SignIn(identity)
	client := NewClient(h.hub, conn, identity.UserID, h.subscriber, h.opts, h.logger)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	if err := h.subscriber.Subscribe(sess, client.ID()); err != nil {
		h.logger.Error("Realtime subscription failed",
			slog.String("user_id", identity.UserID),
			slog.Any("error", err),
		)
	}

	go client.WritePump()
	go func() {
		client.ReadPump()
		h.subscriber.Unsubscribe(identity.UserID, client.ID())
	}()
}
