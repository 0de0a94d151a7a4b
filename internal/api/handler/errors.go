package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/lifecycle"
)

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var (
		validationErr *domain.ValidationError
		repoErr       *domain.RepositoryError
		setupErr      *domain.PaymentSetupError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrOnboardingRequired), errors.Is(err, domain.ErrDemoJob):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &repoErr), errors.As(err, &setupErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// defaultNotice titles errors that do not come with a lifecycle notice
func defaultNotice(err error) lifecycle.Notice {
	n := lifecycle.Notice{Title: "Error", Description: err.Error(), Variant: lifecycle.VariantDestructive}

	var (
		validationErr *domain.ValidationError
		setupErr      *domain.PaymentSetupError
	)
	switch {
	case errors.As(err, &validationErr):
		n.Title = "Missing Information"
		n.Description = validationErr.Message
	case errors.Is(err, domain.ErrAuthRequired):
		n.Title = "Sign In Required"
		n.Description = "Please sign in to continue."
	case errors.Is(err, domain.ErrJobNotFound):
		n.Title = "Not Found"
		n.Description = "This job no longer exists."
	case errors.Is(err, domain.ErrProfileNotFound):
		n.Title = "Profile Not Found"
		n.Description = "Complete your profile to get started."
	case errors.As(err, &setupErr):
		n.Title = "Payment Setup Failed"
		n.Description = setupErr.Message
	}
	return n
}

// respondError writes {"error","title","description"} plus any hints the error carries
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)

	n, ok := lifecycle.NoticeFor(err)
	if !ok {
		n = defaultNotice(err)
	}

	body := gin.H{
		"error":       err.Error(),
		"title":       n.Title,
		"description": n.Description,
	}

	var (
		validationErr *domain.ValidationError
		setupErr      *domain.PaymentSetupError
	)
	if errors.As(err, &validationErr) && len(validationErr.Fields) > 0 {
		body["fields"] = validationErr.Fields
	}
	if errors.Is(err, domain.ErrAuthRequired) {
		body["sign_in_required"] = true
	}
	if errors.As(err, &setupErr) && setupErr.ConfigMissing {
		body["setup_url"] = setupErr.SetupURL
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.Int("status", status),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(status, body)
}
