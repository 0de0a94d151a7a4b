package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/api/dto"
)

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), CurrentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileResponse{Profile: profile})
}

// UpdateProfile handles PATCH /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		respondError(c, h.logger, bindingError(err))
		return
	}

	result, err := h.profiles.Update(c.Request.Context(), CurrentSession(c), req.ToUpdate())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateVehicle handles PATCH /api/v1/profile/vehicle
func (h *ProfileHandler) UpdateVehicle(c *gin.Context) {
	var req dto.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		respondError(c, h.logger, bindingError(err))
		return
	}

	result, err := h.profiles.UpdateVehicle(c.Request.Context(), CurrentSession(c), req.LicenseNumber, req.VehicleDetails)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
