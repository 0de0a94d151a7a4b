package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/api/dto"
	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// GetNotifications handles GET /api/v1/notifications
func (h *SessionHandler) GetNotifications(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		respondError(c, h.logger, domain.ErrAuthRequired)
		return
	}

	c.JSON(http.StatusOK, dto.NotificationsResponse{
		HasUnread:  h.notifications.HasUnread(sess.UserID()),
		Subscribed: h.notifications.Active(sess.UserID()),
	})
}

// MarkRead handles POST /api/v1/notifications/read
func (h *SessionHandler) MarkRead(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		respondError(c, h.logger, domain.ErrAuthRequired)
		return
	}

	h.notifications.MarkAsRead(sess.UserID())
	c.Status(http.StatusNoContent)
}

// SignOut handles DELETE /api/v1/session
func (h *SessionHandler) SignOut(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		respondError(c, h.logger, domain.ErrAuthRequired)
		return
	}

	if h.sessions.SignOut(sess.UserID()) {
		h.logger.Info("Signed out", slog.String("user_id", sess.UserID()))
	}
	c.Status(http.StatusNoContent)
}
