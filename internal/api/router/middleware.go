package router

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/chauffer-be/internal/api/handler"
	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/session"
)

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("body_size", c.Writer.Size()),
		}
		if sess := handler.CurrentSession(c); sess != nil {
			attrs = append(attrs, slog.String("user_id", sess.UserID()))
		}
		logger.Info("HTTP Request", attrs...)

		// Log errors if any
		for _, e := range c.Errors {
			logger.Error("Request error",
				slog.String("error", e.Error()),
				slog.Uint64("type", uint64(e.Type)),
			)
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing. An empty list allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*"):
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowedOrigins, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// OptionalAuth attaches a session when the request carries a valid token and ignores it otherwise
func OptionalAuth(auth *session.Authenticator, sessions *session.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.Next()
			return
		}

		identity, err := auth.Verify(token)
		if err != nil {
			logger.Debug("Ignoring invalid token", slog.String("error", err.Error()))
			c.Next()
			return
		}

		handler.SetSession(c, sessions.SignIn(identity))
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token
func RequireAuth(auth *session.Authenticator, sessions *session.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Verify(c.GetHeader("Authorization"))
		if err != nil {
			logger.Debug("Rejected unauthenticated request",
				slog.String("path", c.Request.URL.Path),
				slog.String("error", err.Error()),
			)
			c.AbortWithStatusJSON(401, gin.H{
				"error":            domain.ErrAuthRequired.Error(),
				"title":            "Sign In Required",
				"description":      "Please sign in to continue.",
				"sign_in_required": true,
			})
			return
		}

		handler.SetSession(c, sessions.SignIn(identity))
		c.Next()
	}
}
