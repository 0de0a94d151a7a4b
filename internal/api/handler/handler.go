package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/lifecycle"
	"github.com/cuongbtq/chauffer-be/internal/payment"
	"github.com/cuongbtq/chauffer-be/internal/profile"
	"github.com/cuongbtq/chauffer-be/internal/realtime"
	"github.com/cuongbtq/chauffer-be/internal/session"
)

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	Auth          *session.Authenticator
	Sessions      *session.Store
	Lifecycle     *lifecycle.Service
	Payments      *payment.Reader
	Onboarder     *payment.Onboarder
	Portal        *payment.Portal
	Profiles      *profile.Service
	Notifications *realtime.Listener
	Health        map[string]HealthChecker
	// AllowedOrigins lists browser origins for CORS; empty allows any
	AllowedOrigins []string
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	lifecycle *lifecycle.Service
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger.With(slog.String("handler", "jobs")),
		lifecycle: deps.Lifecycle,
	}
}

// PaymentHandler serves the payment-account endpoints
type PaymentHandler struct {
	logger    *slog.Logger
	reader    *payment.Reader
	onboarder *payment.Onboarder
	portal    *payment.Portal
}

func NewPaymentHandler(deps *Dependencies) *PaymentHandler {
	return &PaymentHandler{
		logger:    deps.Logger.With(slog.String("handler", "payments")),
		reader:    deps.Payments,
		onboarder: deps.Onboarder,
		portal:    deps.Portal,
	}
}

// ProfileHandler serves the signed-in user's profile
type ProfileHandler struct {
	logger   *slog.Logger
	profiles *profile.Service
}

func NewProfileHandler(deps *Dependencies) *ProfileHandler {
	return &ProfileHandler{
		logger:   deps.Logger.With(slog.String("handler", "profile")),
		profiles: deps.Profiles,
	}
}

// SessionHandler serves the unread flag and sign-out
type SessionHandler struct {
	logger        *slog.Logger
	sessions      *session.Store
	notifications *realtime.Listener
}

func NewSessionHandler(deps *Dependencies) *SessionHandler {
	return &SessionHandler{
		logger:        deps.Logger.With(slog.String("handler", "session")),
		sessions:      deps.Sessions,
		notifications: deps.Notifications,
	}
}
