package auth

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/config"
)

// Claims identify the caller of a request
type Claims struct {
	UserID string
}

type Provider interface {
	GenerateToken(userID string, ttl time.Duration) (string, error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewTokenAuth(cfg)
}
