package middleware

import (
	"time"

	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/types"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware attaches a request scoped hub and reports panics. It is a
// passthrough when Sentry is disabled.
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
}

// SentryScopeMiddleware tags the request hub with the route, request ID and,
// once authentication ran, the caller. Must run after RequestIDMiddleware.
func SentryScopeMiddleware(c *gin.Context) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		c.Next()
		return
	}

	scope := hub.Scope()
	scope.SetTag("route", c.FullPath())
	if requestID := types.GetRequestID(c.Request.Context()); requestID != "" {
		scope.SetTag("request_id", requestID)
	}

	c.Next()

	if caller := types.GetUserID(c.Request.Context()); caller != "" {
		scope.SetTag("caller", caller)
	}
}
