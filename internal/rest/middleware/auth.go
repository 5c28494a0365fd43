package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/flexprice/invoicer/internal/auth"
	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware resolves the caller of a request from either:
// 1. API key in the x-api-key header
// 2. JWT token in the Authorization header as a Bearer token
// The account is set as the user ID in the request context; it is the owner
// for invoice creation and minting and the payer for settlements.
func AuthenticateMiddleware(cfg *config.Configuration, provider auth.Provider, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader(types.HeaderAPIKey); apiKey != "" {
			account, valid := auth.ValidateAPIKey(cfg, apiKey)
			if !valid {
				logger.Debugw("invalid api key")
				unauthorized(c, "Invalid API key")
				return
			}

			setCaller(c, account)
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			unauthorized(c, "Unauthorized")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := provider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debugw("failed to validate token", "error", err)
			unauthorized(c, "Invalid token")
			return
		}

		if claims == nil || claims.UserID == "" {
			unauthorized(c, "Invalid token claims")
			return
		}

		setCaller(c, claims.UserID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), types.CtxJWT, tokenString))
		c.Next()
	}
}

func setCaller(c *gin.Context, account string) {
	c.Request = c.Request.WithContext(types.SetUserID(c.Request.Context(), account))
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ierr.ErrorResponse{
		Success: false,
		Error: ierr.ErrorDetail{
			Display: message,
			Code:    "unauthorized",
		},
	})
}
