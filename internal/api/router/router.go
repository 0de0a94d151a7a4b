package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/api/dto"
	"github.com/cuongbtq/chauffer-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes.
// realtime serves the notification socket and may be nil.
func SetupRouter(deps *handler.Dependencies, realtime gin.HandlerFunc) *gin.Engine {
	if err := dto.RegisterValidations(); err != nil {
		deps.Logger.Error("Failed to register request validations", slog.Any("error", err))
	}

	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(deps.AllowedOrigins))

	r.GET("/health", healthHandler(deps.Health))

	jobHandler := handler.NewJobHandler(deps)
	paymentHandler := handler.NewPaymentHandler(deps)
	sessionHandler := handler.NewSessionHandler(deps)
	profileHandler := handler.NewProfileHandler(deps)

	optional := OptionalAuth(deps.Auth, deps.Sessions, deps.Logger)
	required := RequireAuth(deps.Auth, deps.Sessions, deps.Logger)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.GET("/available", optional, jobHandler.ListAvailable)
			jobs.GET("/posted", required, jobHandler.ListPosted)
			jobs.GET("/claimed", required, jobHandler.ListClaimed)
			jobs.GET("/:job_id", optional, jobHandler.GetJob)

			jobs.POST("", required, jobHandler.PostJob)
			// anonymous claims reach the lifecycle so the caller gets its sign-in notice
			jobs.POST("/:job_id/claim", optional, jobHandler.ClaimJob)
			jobs.POST("/:job_id/start", required, jobHandler.StartJob)
			jobs.POST("/:job_id/complete", required, jobHandler.CompleteJob)
			jobs.POST("/:job_id/cancel", required, jobHandler.CancelJob)
		}

		payments := v1.Group("/payments", required)
		{
			payments.GET("/account", paymentHandler.GetAccount)
			payments.POST("/onboard", paymentHandler.Onboard)
			payments.POST("/portal", paymentHandler.OpenPortal)
		}

		profile := v1.Group("/profile", required)
		{
			profile.GET("", profileHandler.GetProfile)
			profile.PATCH("", profileHandler.UpdateProfile)
			profile.PATCH("/vehicle", profileHandler.UpdateVehicle)
		}

		notifications := v1.Group("/notifications", required)
		{
			notifications.GET("", sessionHandler.GetNotifications)
			notifications.POST("/read", sessionHandler.MarkRead)
		}

		v1.DELETE("/session", required, sessionHandler.SignOut)

		if realtime != nil {
			v1.GET("/realtime", realtime)
		}
	}

	return r
}

func healthHandler(checks map[string]handler.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := gin.H{}
		for name, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				status = http.StatusServiceUnavailable
				components[name] = err.Error()
				continue
			}
			components[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":     state,
			"service":    "chauffer-api-service",
			"components": components,
		})
	}
}
