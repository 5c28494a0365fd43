package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/golang-jwt/jwt/v4"
)

// DefaultTokenTTL is used when a token is issued without an explicit lifetime
const DefaultTokenTTL = 30 * 24 * time.Hour

// tokenAuth issues and verifies HS256 tokens carrying a user_id claim
type tokenAuth struct {
	secret string
}

func NewTokenAuth(cfg *config.Configuration) *tokenAuth {
	return &tokenAuth{secret: cfg.Auth.Secret}
}

func (t *tokenAuth) GenerateToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ierr.NewError("user id is required").
			WithHint("A token must identify a user").
			Mark(ierr.ErrValidation)
	}
	if t.secret == "" {
		return "", ierr.NewError("auth secret is not configured").
			WithHint("Set auth.secret before issuing tokens").
			Mark(ierr.ErrValidation)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.secret))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}

func (t *tokenAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(t.secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{UserID: userID}, nil
}
