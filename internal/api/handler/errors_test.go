package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/shared/logger"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError("bad", "pickup"), http.StatusBadRequest},
		{"auth", domain.ErrAuthRequired, http.StatusUnauthorized},
		{"wrapped auth", fmt.Errorf("%w: token expired", domain.ErrAuthRequired), http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"onboarding", domain.ErrOnboardingRequired, http.StatusForbidden},
		{"demo", domain.ErrDemoJob, http.StatusForbidden},
		{"not found", domain.ErrJobNotFound, http.StatusNotFound},
		{"profile not found", domain.ErrProfileNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: job is claimed", domain.ErrConflict), http.StatusConflict},
		{"repository", domain.NewRepositoryError("list", errors.New("timeout")), http.StatusBadGateway},
		{"payment setup", &domain.PaymentSetupError{Message: "no portal"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/portal", nil)

	respondError(c, logger.NewNop(), &domain.PaymentSetupError{
		Message:       "billing portal is not configured",
		ConfigMissing: true,
		SetupURL:      "https://dashboard.example/portal",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{
		"error": "payment setup failed: billing portal is not configured",
		"title": "Payment Setup Failed",
		"description": "billing portal is not configured",
		"setup_url": "https://dashboard.example/portal"
	}`, w.Body.String())
}
