package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/api/dto"
	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
)

// GetAccount handles GET /api/v1/payments/account
func (h *PaymentHandler) GetAccount(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	status, err := h.reader.Fetch(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Onboard handles POST /api/v1/payments/onboard
func (h *PaymentHandler) Onboard(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	result, err := h.onboarder.Onboard(c.Request.Context(), identity, c.GetHeader("Origin"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenPortal handles POST /api/v1/payments/portal
func (h *PaymentHandler) OpenPortal(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	url, err := h.portal.Open(c.Request.Context(), identity, c.GetHeader("Origin"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.PortalResponse{URL: url})
}

func (h *PaymentHandler) identity(c *gin.Context) (session.Identity, bool) {
	identity, err := session.RequireIdentity(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, domain.ErrAuthRequired)
		return session.Identity{}, false
	}
	return identity, true
}
